// Command ingest runs the tagged-movie ingestion worker: it consumes
// catalog.movie.tagged events from NATS, validates and normalises each vibe
// vector, and upserts the movie into the Qdrant catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/CineSyncApp/cinesync-engine/engine/catalog"
	"github.com/CineSyncApp/cinesync-engine/engine/ingest"
	"github.com/CineSyncApp/cinesync-engine/pkg/metrics"
)

var met = metrics.New()

var (
	mStored = met.Counter("cinesync_ingest_stored_total", "Tagged movies stored")
	mFailed = met.Counter("cinesync_ingest_failed_total", "Tagged movies rejected or failed")
)

func main() {
	var (
		natsURL     = flag.String("nats", nats.DefaultURL, "NATS server URL")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection  = flag.String("collection", "cinesync_movies", "Qdrant collection name")
		metricsPort = flag.Int("metrics-port", 9091, "Prometheus metrics port")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*natsURL, *qdrantAddr, *collection, *metricsPort, logger); err != nil {
		logger.Error("ingest worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(natsURL, qdrantAddr, collection string, metricsPort int, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met.ServeAsync(metricsPort)

	store, err := catalog.New(qdrantAddr, collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("qdrant ensure collection: %w", err)
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("cinesync-ingest"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Drain()

	worker := ingest.NewWorker(nc, store, logger)
	worker.OnStored = func(catalog.Movie) { mStored.Inc() }
	worker.OnFailed = func(ingest.TaggedMovie, error) { mFailed.Inc() }

	sub, err := worker.Start()
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", ingest.TaggedSubject, err)
	}

	logger.Info("ingest worker started",
		"subject", ingest.TaggedSubject, "qdrant", qdrantAddr, "collection", collection)

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")
	if err := sub.Drain(); err != nil {
		logger.Warn("subscription drain failed", "err", err)
	}
	return nil
}
