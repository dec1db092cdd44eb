// Package rank scores candidate items against a subject preference (or a
// participant group) and produces ordered, truncated result lists.
package rank

import (
	"sort"

	"github.com/CineSyncApp/cinesync-engine/engine/score"
	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
	"github.com/CineSyncApp/cinesync-engine/pkg/fn"
)

// Candidate is a scorable catalog item: an id, its vibe vector (nil when the
// item has not been tagged yet), and display metadata the engine passes
// through untouched.
type Candidate struct {
	ID   string            `json:"id"`
	Vibe *vibe.Vector      `json:"vibe,omitempty"`
	Meta map[string]string `json:"meta,omitempty"`
}

// ScoredCandidate is a Candidate plus its computed score. Score is raw and
// signed, in [-1, 1]; use score.MatchPercent for display.
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"`
}

// Rank scores every candidate against the subject vector, sorts descending by
// score, and truncates to limit. The sort is stable: equal scores keep their
// relative input order, so callers wanting a deterministic secondary order
// (popularity, say) should pre-sort the input. limit <= 0 yields an empty
// result; limit beyond the input size returns everything.
func Rank(subject *vibe.Vector, candidates []Candidate, limit int) []ScoredCandidate {
	return rankBy(candidates, limit, func(c Candidate) float64 {
		return score.Similarity(subject, c.Vibe)
	})
}

// RankGroup is Rank for a participant group: each candidate's score is the
// blended (mean pairwise) similarity across all participants.
func RankGroup(participants map[string]*vibe.Vector, candidates []Candidate, limit int) []ScoredCandidate {
	return rankBy(candidates, limit, func(c Candidate) float64 {
		return score.Blend(participants, c.Vibe)
	})
}

// RankFunc ranks candidates with a caller-supplied scoring function. The feed
// assembler uses this for per-category axis-weighted variants.
func RankFunc(candidates []Candidate, limit int, scoreFn func(Candidate) float64) []ScoredCandidate {
	return rankBy(candidates, limit, scoreFn)
}

func rankBy(candidates []Candidate, limit int, scoreFn func(Candidate) float64) []ScoredCandidate {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	scored := fn.Map(candidates, func(c Candidate) ScoredCandidate {
		return ScoredCandidate{Candidate: c, Score: scoreFn(c)}
	})
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}
