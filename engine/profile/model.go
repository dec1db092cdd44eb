// Package profile stores user preference vectors and blend-circle membership
// in Neo4j.
package profile

// User is a profile node. VibeValues holds the ten preference components, or
// nil when the user has not answered the quiz yet.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	VibeValues  []float64 `json:"vibe,omitempty"`
}

// Circle is a named group of users who blend feeds together.
type Circle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
