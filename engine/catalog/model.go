// Package catalog owns all Qdrant operations for the movie catalog: vibe
// vectors are stored per movie and candidate batches are recalled by cosine
// similarity.
package catalog

import "github.com/CineSyncApp/cinesync-engine/engine/vibe"

// Movie is one catalog item. Vibe is nil until the tagging pipeline has
// produced a vector for it; untagged movies are stored with a zero vector and
// score neutrally.
type Movie struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	ReleaseYear    int          `json:"release_year,omitempty"`
	RuntimeMinutes int          `json:"runtime_minutes,omitempty"`
	ContentRating  string       `json:"content_rating,omitempty"`
	PosterURL      string       `json:"poster_url,omitempty"`
	Synopsis       string       `json:"synopsis,omitempty"`
	Vibe           *vibe.Vector `json:"vibe,omitempty"`
}
