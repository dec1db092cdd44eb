// Package feed assembles ranked candidates into labeled presentation sections
// and orchestrates the end-to-end home-feed and blend-feed flows.
package feed

import (
	"math"

	"github.com/CineSyncApp/cinesync-engine/engine/rank"
	"github.com/CineSyncApp/cinesync-engine/engine/score"
	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
	"github.com/CineSyncApp/cinesync-engine/pkg/fn"
)

const (
	// TopPicksID is the id of the overview section every feed starts with.
	TopPicksID = "top_picks"

	// DefaultTopPicks is the default size of the overview section.
	DefaultTopPicks = 10

	// DefaultCategoryLimit is the default cap per category section.
	DefaultCategoryLimit = 8
)

// Section is a named, ordered, capped list of scored candidates.
type Section struct {
	ID    string                 `json:"id"`
	Title string                 `json:"title"`
	Style string                 `json:"style"`
	Items []rank.ScoredCandidate `json:"items"`
}

// Category configures one feed section beyond top picks. Score is the
// category's own scoring function over the shared candidate pool; candidates
// scoring at or below MinScore are filtered out before capping.
type Category struct {
	ID       string
	Title    string
	Style    string
	Limit    int
	MinScore float64
	Score    func(rank.Candidate) float64
}

// AxisCategory builds a Category that re-ranks the pool with an
// axis-weighted variant of the subject similarity: the base similarity is
// blended with the candidate's own lean on the category axis, so a "Dark &
// moody" row surfaces items that both match the subject and express that
// axis strongly. A negative weight favours the negative pole instead.
func AxisCategory(id, title string, axis vibe.Axis, weight float64, subject *vibe.Vector) Category {
	share := math.Abs(weight)
	return Category{
		ID:    id,
		Title: title,
		Style: "poster_row",
		Limit: DefaultCategoryLimit,
		Score: func(c rank.Candidate) float64 {
			if c.Vibe == nil {
				return 0
			}
			base := score.Similarity(subject, c.Vibe)
			return (1-share)*base + weight*c.Vibe[axis]
		},
	}
}

// Config controls section assembly.
type Config struct {
	TopPicks   int // size of the overview section; DefaultTopPicks when <= 0
	Categories []Category
}

// Assemble partitions an already-ranked candidate list into sections:
// one "Top picks" overview first, then one section per configured category in
// declaration order. A candidate lands in at most one category section
// (earlier categories claim first) but may also appear in top picks.
// Categories whose filtered pool comes up empty are omitted entirely.
func Assemble(rankedAll []rank.ScoredCandidate, cfg Config) []Section {
	var sections []Section

	topN := cfg.TopPicks
	if topN <= 0 {
		topN = DefaultTopPicks
	}
	if topN > len(rankedAll) {
		topN = len(rankedAll)
	}
	if topN > 0 {
		sections = append(sections, Section{
			ID:    TopPicksID,
			Title: "Top picks",
			Style: "hero",
			Items: rankedAll[:topN],
		})
	}

	pool := fn.Map(rankedAll, func(s rank.ScoredCandidate) rank.Candidate {
		return s.Candidate
	})
	claimed := make(map[string]bool)

	for _, cat := range cfg.Categories {
		if cat.Score == nil {
			continue
		}
		limit := cat.Limit
		if limit <= 0 {
			limit = DefaultCategoryLimit
		}

		free := fn.Filter(pool, func(c rank.Candidate) bool {
			return !claimed[c.ID]
		})
		items := fn.Filter(rank.RankFunc(free, limit, cat.Score), func(s rank.ScoredCandidate) bool {
			return s.Score > cat.MinScore
		})
		if len(items) == 0 {
			continue
		}

		for _, s := range items {
			claimed[s.ID] = true
		}
		style := cat.Style
		if style == "" {
			style = "poster_row"
		}
		sections = append(sections, Section{
			ID:    cat.ID,
			Title: cat.Title,
			Style: style,
			Items: items,
		})
	}
	return sections
}
