// Command backfill seeds the movie catalog from the TMDB discover API. It
// pages through several sort orders, dedupes by TMDB id, and upserts in
// chunks. Seeded movies carry no vibe vector; tagging happens downstream.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/CineSyncApp/cinesync-engine/engine/catalog"
	"github.com/CineSyncApp/cinesync-engine/pkg/fn"
)

const (
	tmdbBaseURL = "https://api.themoviedb.org/3"
	posterBase  = "https://image.tmdb.org/t/p/w500"
	chunkSize   = 200
)

// sortOrders are fetched in turn so the seed mixes popular, well-voted, and
// recent titles.
var sortOrders = []string{
	"popularity.desc",
	"vote_count.desc",
	"primary_release_date.desc",
}

// Config holds all environment-based configuration.
type Config struct {
	APIKey     string
	QdrantURL  string
	Collection string
	Pages      int
	RateRPS    float64
}

func loadConfig() Config {
	pages, _ := strconv.Atoi(envOr("TMDB_PAGES", "5"))
	if pages <= 0 {
		pages = 5
	}
	rps, _ := strconv.ParseFloat(envOr("TMDB_RATE_RPS", "4"), 64)
	if rps <= 0 {
		rps = 4
	}
	return Config{
		APIKey:     os.Getenv("TMDB_API_KEY"),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "cinesync_movies"),
		Pages:      pages,
		RateRPS:    rps,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// discoverPage is one page of the TMDB discover response.
type discoverPage struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Results    []discoverItem `json:"results"`
}

type discoverItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
	Overview    string `json:"overview"`
}

// tmdbClient fetches discover pages behind a shared rate limiter.
type tmdbClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func newTMDBClient(apiKey string, rps float64) *tmdbClient {
	return &tmdbClient{
		baseURL: tmdbBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *tmdbClient) discover(ctx context.Context, sortBy string, page int) (discoverPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return discoverPage{}, err
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("sort_by", sortBy)
	q.Set("page", strconv.Itoa(page))
	q.Set("include_adult", "false")
	q.Set("vote_count.gte", "50")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/discover/movie?"+q.Encode(), nil)
	if err != nil {
		return discoverPage{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return discoverPage{}, fmt.Errorf("tmdb discover %s page %d: %w", sortBy, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return discoverPage{}, fmt.Errorf("tmdb discover %s page %d: status %d", sortBy, page, resp.StatusCode)
	}

	var out discoverPage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return discoverPage{}, fmt.Errorf("tmdb discover %s page %d: decode: %w", sortBy, page, err)
	}
	return out, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()
	if cfg.APIKey == "" {
		logger.Error("TMDB_API_KEY is required")
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("backfill failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := catalog.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("qdrant ensure collection: %w", err)
	}

	client := newTMDBClient(cfg.APIKey, cfg.RateRPS)

	var items []discoverItem
	for _, sortBy := range sortOrders {
		for page := 1; page <= cfg.Pages; page++ {
			dp, err := client.discover(ctx, sortBy, page)
			if err != nil {
				return err
			}
			items = append(items, dp.Results...)
			logger.Info("fetched discover page",
				"sort", sortBy, "page", page, "results", len(dp.Results))
			if page >= dp.TotalPages {
				break
			}
		}
	}

	// One movie can appear under several sort orders.
	items = fn.UniqueBy(items, func(it discoverItem) int64 { return it.ID })
	items = fn.Filter(items, func(it discoverItem) bool { return it.Title != "" })

	movies := fn.Map(items, toMovie)
	logger.Info("seeding catalog", "movies", len(movies))

	for i, chunk := range fn.Chunk(movies, chunkSize) {
		if err := store.Upsert(ctx, chunk); err != nil {
			return fmt.Errorf("upsert chunk %d: %w", i, err)
		}
	}

	logger.Info("backfill complete", "movies", len(movies))
	return nil
}

func toMovie(it discoverItem) catalog.Movie {
	m := catalog.Movie{
		ID:       uuid.NewString(),
		Title:    it.Title,
		Synopsis: it.Overview,
	}
	if len(it.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(it.ReleaseDate[:4]); err == nil {
			m.ReleaseYear = y
		}
	}
	if it.PosterPath != "" {
		m.PosterURL = posterBase + it.PosterPath
	}
	return m
}
