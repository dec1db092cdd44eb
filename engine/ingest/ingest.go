// Package ingest consumes tagged-movie events and writes their vibe vectors
// into the catalog through a validated pipeline.
package ingest

import (
	"context"
	"errors"

	"github.com/CineSyncApp/cinesync-engine/engine/catalog"
	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
	"github.com/CineSyncApp/cinesync-engine/pkg/fn"
)

const (
	// TaggedSubject is the NATS subject carrying tagged-movie events.
	TaggedSubject = "catalog.movie.tagged"
	// DLQSubject is the dead letter queue subject for failed events.
	DLQSubject = "catalog.movie.tagged.dlq"
)

// Sentinel errors for event validation.
var (
	ErrMissingID    = errors.New("tagged movie has no id")
	ErrMissingTitle = errors.New("tagged movie has no title")
)

// ValidationError reports which event field failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "ingest: invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TaggedMovie is the event payload produced by the external tagging pipeline:
// a movie plus its ten freshly assigned vibe components.
type TaggedMovie struct {
	MovieID        string    `json:"movie_id"`
	Title          string    `json:"title"`
	ReleaseYear    int       `json:"release_year,omitempty"`
	RuntimeMinutes int       `json:"runtime_minutes,omitempty"`
	ContentRating  string    `json:"content_rating,omitempty"`
	PosterURL      string    `json:"poster_url,omitempty"`
	Synopsis       string    `json:"synopsis,omitempty"`
	Vibe           []float64 `json:"vibe"`
}

// MovieStore is the catalog write surface the pipeline needs.
type MovieStore interface {
	Upsert(ctx context.Context, movies []catalog.Movie) error
}

// Validate rejects events missing an id or title, or carrying a vector of the
// wrong dimension. Dimension faults are a data-integrity problem and fail
// fast rather than being padded or truncated.
var Validate fn.Stage[TaggedMovie, TaggedMovie] = func(_ context.Context, ev TaggedMovie) fn.Result[TaggedMovie] {
	if ev.MovieID == "" {
		return fn.Err[TaggedMovie](&ValidationError{Field: "movie_id", Err: ErrMissingID})
	}
	if ev.Title == "" {
		return fn.Err[TaggedMovie](&ValidationError{Field: "title", Err: ErrMissingTitle})
	}
	if _, err := vibe.FromSlice(ev.Vibe); err != nil {
		return fn.Err[TaggedMovie](&ValidationError{Field: "vibe", Err: err})
	}
	return fn.Ok(ev)
}

// Normalize clamps every vibe component into [-1, 1].
var Normalize fn.Stage[TaggedMovie, TaggedMovie] = fn.MapStage(func(ev TaggedMovie) TaggedMovie {
	v, _ := vibe.FromSlice(ev.Vibe)
	ev.Vibe = v.Clamp().Slice()
	return ev
})

// NewStoreStage writes the validated event into the catalog, retrying
// transient failures.
func NewStoreStage(store MovieStore) fn.Stage[TaggedMovie, catalog.Movie] {
	stage := func(ctx context.Context, ev TaggedMovie) fn.Result[catalog.Movie] {
		v, err := vibe.FromSlice(ev.Vibe)
		if err != nil {
			return fn.Err[catalog.Movie](err)
		}
		m := catalog.Movie{
			ID:             ev.MovieID,
			Title:          ev.Title,
			ReleaseYear:    ev.ReleaseYear,
			RuntimeMinutes: ev.RuntimeMinutes,
			ContentRating:  ev.ContentRating,
			PosterURL:      ev.PosterURL,
			Synopsis:       ev.Synopsis,
			Vibe:           &v,
		}
		if err := store.Upsert(ctx, []catalog.Movie{m}); err != nil {
			return fn.Err[catalog.Movie](err)
		}
		return fn.Ok(m)
	}
	return fn.RetryStage(fn.DefaultRetry, stage)
}

// NewPipeline wires validation, normalization, and storage into one stage.
func NewPipeline(store MovieStore) fn.Stage[TaggedMovie, catalog.Movie] {
	prepared := fn.TracedStage("ingest.prepare", fn.Pipeline(Validate, Normalize))
	return fn.Then(prepared, fn.TracedStage("ingest.store", NewStoreStage(store)))
}
