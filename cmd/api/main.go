// Package main implements the CineSync engine API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/CineSyncApp/cinesync-engine/engine/catalog"
	"github.com/CineSyncApp/cinesync-engine/engine/explain"
	"github.com/CineSyncApp/cinesync-engine/engine/feed"
	"github.com/CineSyncApp/cinesync-engine/engine/profile"
	"github.com/CineSyncApp/cinesync-engine/engine/score"
	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
	"github.com/CineSyncApp/cinesync-engine/pkg/metrics"
	"github.com/CineSyncApp/cinesync-engine/pkg/mid"
	"github.com/CineSyncApp/cinesync-engine/pkg/natsutil"
	"github.com/CineSyncApp/cinesync-engine/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	Neo4jURL   string
	Neo4jUser  string
	Neo4jPass  string
	QdrantURL  string
	Collection string
	NATSURL    string
	CORSOrigin string
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8080"),
		Neo4jURL:   envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:  envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:  envOr("NEO4J_PASS", "password"),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "cinesync_movies"),
		NATSURL:    envOr("NATS_URL", nats.DefaultURL),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var met = metrics.New()

var (
	mFeedRequests  = met.Counter("cinesync_api_feed_requests_total", "Feed requests served")
	mBlendRequests = met.Counter("cinesync_api_blend_requests_total", "Blend requests served")
	mQuizSaves     = met.Counter("cinesync_api_quiz_saves_total", "Quiz submissions persisted")
	mFeedDur       = met.Histogram("cinesync_api_feed_duration_seconds", "Feed build latency", nil)
)

// PreferenceUpdated is published after a quiz submission is persisted.
type PreferenceUpdated struct {
	UserID string `json:"user_id"`
}

const preferenceSubject = "profiles.preference.updated"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Neo4j ---
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	profiles := profile.New(driver)

	// --- Connect to Qdrant ---
	movies, err := catalog.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer movies.Close()

	if err := movies.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("qdrant ensure collection: %w", err)
	}

	// --- Connect to NATS (event publishing is best-effort) ---
	var nc *nats.Conn
	if conn, err := nats.Connect(cfg.NATSURL); err != nil {
		logger.Warn("nats unavailable, preference events disabled", "err", err)
	} else {
		nc = conn
		defer nc.Drain()
	}

	// --- Build feed service ---
	feedSvc := feed.New(profiles, movies, feed.DefaultOptions(), logger)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", met.Handler())
	mux.HandleFunc("GET /api/feed", handleFeed(feedSvc, logger))
	mux.HandleFunc("POST /api/blend", handleBlend(feedSvc, logger))
	mux.HandleFunc("POST /api/quiz", handleQuiz(profiles, nc, logger))
	mux.HandleFunc("GET /api/pills", handlePills(profiles, feedSvc, logger))

	limiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: 50, Burst: 100})
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.RateLimit(limiter),
		mid.OTel("cinesync-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// FeedItem is one candidate as rendered to clients: raw score plus the
// clamped 0-100 match value.
type FeedItem struct {
	ID    string            `json:"id"`
	Score float64           `json:"score"`
	Match int               `json:"match"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// FeedSection is one rendered feed section.
type FeedSection struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Style string     `json:"style"`
	Items []FeedItem `json:"items"`
}

// FeedResponse is the JSON response for feed and blend endpoints.
type FeedResponse struct {
	Sections     []FeedSection `json:"sections"`
	Pills        []string      `json:"pills,omitempty"`
	Participants []string      `json:"participants,omitempty"`
}

func renderFeed(f *feed.Feed) FeedResponse {
	resp := FeedResponse{
		Pills:        f.Pills,
		Participants: f.Participants,
	}
	for _, s := range f.Sections {
		sec := FeedSection{ID: s.ID, Title: s.Title, Style: s.Style}
		for _, item := range s.Items {
			sec.Items = append(sec.Items, FeedItem{
				ID:    item.ID,
				Score: item.Score,
				Match: score.MatchPercent(item.Score),
				Meta:  item.Meta,
			})
		}
		resp.Sections = append(resp.Sections, sec)
	}
	return resp
}

func handleFeed(svc *feed.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		if userID == "" {
			http.Error(w, `{"error":"user is required"}`, http.StatusBadRequest)
			return
		}

		start := time.Now()
		f, err := svc.HomeFeed(r.Context(), userID)
		if err != nil {
			writeFeedError(w, logger, err)
			return
		}
		mFeedRequests.Inc()
		mFeedDur.Since(start)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(renderFeed(f))
	}
}

// BlendRequest asks for a group feed, either for explicit participants or a
// stored blend circle.
type BlendRequest struct {
	UserIDs  []string `json:"user_ids,omitempty"`
	CircleID string   `json:"circle_id,omitempty"`
}

func handleBlend(svc *feed.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		var (
			f   *feed.Feed
			err error
		)
		switch {
		case req.CircleID != "":
			f, err = svc.CircleFeed(r.Context(), req.CircleID)
		case len(req.UserIDs) > 0:
			f, err = svc.BlendFeed(r.Context(), req.UserIDs)
		default:
			http.Error(w, `{"error":"user_ids or circle_id is required"}`, http.StatusBadRequest)
			return
		}
		if err != nil {
			writeFeedError(w, logger, err)
			return
		}
		mBlendRequests.Inc()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(renderFeed(f))
	}
}

// QuizRequest carries the ten forced-choice answers: "a", "b", or "" per axis.
type QuizRequest struct {
	UserID  string   `json:"user_id"`
	Answers []string `json:"answers"`
}

func handleQuiz(profiles *profile.Store, nc *nats.Conn, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuizRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, `{"error":"user_id is required"}`, http.StatusBadRequest)
			return
		}
		if len(req.Answers) != vibe.Dimensions {
			http.Error(w, `{"error":"exactly ten answers are required"}`, http.StatusBadRequest)
			return
		}

		var answers [vibe.Dimensions]vibe.Answer
		for i, a := range req.Answers {
			switch a {
			case "a", "A":
				answers[i] = vibe.ChoiceA
			case "b", "B":
				answers[i] = vibe.ChoiceB
			case "":
				answers[i] = vibe.Unanswered
			default:
				http.Error(w, `{"error":"answers must be a, b, or empty"}`, http.StatusBadRequest)
				return
			}
		}

		v := vibe.FromQuiz(answers)
		if err := profiles.SavePreference(r.Context(), req.UserID, v); err != nil {
			logger.Error("save preference failed", "user", req.UserID, "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		mQuizSaves.Inc()

		if nc != nil {
			if err := natsutil.Publish(r.Context(), nc, preferenceSubject, PreferenceUpdated{UserID: req.UserID}); err != nil {
				logger.Warn("preference event publish failed", "user", req.UserID, "err", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"user_id": req.UserID,
			"pills":   explain.DefaultPills(v),
		})
	}
}

// PillsResponse carries a user's vibe pills, plus the one-line justification
// for a specific movie when one was asked about.
type PillsResponse struct {
	UserID      string   `json:"user_id"`
	Pills       []string `json:"pills"`
	Explanation string   `json:"explanation,omitempty"`
}

func handlePills(profiles *profile.Store, svc *feed.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		if userID == "" {
			http.Error(w, `{"error":"user is required"}`, http.StatusBadRequest)
			return
		}

		pref, err := profiles.GetPreference(r.Context(), userID)
		if err != nil {
			writeFeedError(w, logger, err)
			return
		}
		if !pref.Present {
			writeFeedError(w, logger, feed.ErrNoPreference)
			return
		}

		resp := PillsResponse{
			UserID: userID,
			Pills:  explain.DefaultPills(pref.Vector),
		}
		if movieID := r.URL.Query().Get("movie"); movieID != "" {
			why, err := svc.WhyThis(r.Context(), userID, movieID)
			if err != nil {
				writeFeedError(w, logger, err)
				return
			}
			resp.Explanation = why
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func writeFeedError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, feed.ErrNoPreference):
		http.Error(w, `{"error":"not enough data: answer the vibe quiz first"}`, http.StatusConflict)
	case errors.Is(err, feed.ErrEmptyCircle):
		http.Error(w, `{"error":"blend circle has no members"}`, http.StatusNotFound)
	default:
		logger.Error("feed request failed", "err", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}
