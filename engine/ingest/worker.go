package ingest

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/CineSyncApp/cinesync-engine/engine/catalog"
	"github.com/CineSyncApp/cinesync-engine/pkg/fn"
	"github.com/CineSyncApp/cinesync-engine/pkg/natsutil"
)

// Worker subscribes to tagged-movie events and runs each through the
// pipeline. Events the pipeline rejects or cannot store are forwarded to the
// DLQ subject with the failure reason.
type Worker struct {
	nc       *nats.Conn
	pipeline fn.Stage[TaggedMovie, catalog.Movie]
	logger   *slog.Logger

	// Hooks for counters; nil-safe.
	OnStored func(catalog.Movie)
	OnFailed func(TaggedMovie, error)
}

// NewWorker creates a Worker over the given NATS connection and store.
func NewWorker(nc *nats.Conn, store MovieStore, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		nc:       nc,
		pipeline: NewPipeline(store),
		logger:   logger,
	}
}

// dlqEvent wraps a failed event with its failure reason.
type dlqEvent struct {
	Event  TaggedMovie `json:"event"`
	Reason string      `json:"reason"`
}

// Start subscribes to the tagged subject. The returned subscription is owned
// by the caller and should be drained on shutdown.
func (w *Worker) Start() (*nats.Subscription, error) {
	return natsutil.Subscribe(w.nc, TaggedSubject, func(ctx context.Context, ev TaggedMovie) {
		w.handle(ctx, ev)
	})
}

func (w *Worker) handle(ctx context.Context, ev TaggedMovie) {
	result := w.pipeline(ctx, ev)
	if result.IsErr() {
		_, err := result.Unwrap()
		w.logger.Error("tagged movie rejected", "movie", ev.MovieID, "err", err)
		if w.OnFailed != nil {
			w.OnFailed(ev, err)
		}
		if dlqErr := natsutil.Publish(ctx, w.nc, DLQSubject, dlqEvent{Event: ev, Reason: err.Error()}); dlqErr != nil {
			w.logger.Error("dlq publish failed", "movie", ev.MovieID, "err", dlqErr)
		}
		return
	}

	m, _ := result.Unwrap()
	w.logger.Info("movie vibe stored", "movie", m.ID, "title", m.Title)
	if w.OnStored != nil {
		w.OnStored(m)
	}
}
