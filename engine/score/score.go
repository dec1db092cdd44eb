// Package score implements similarity scoring and multi-participant blending
// over vibe vectors. Everything here is a pure function: no state, no I/O.
package score

import (
	"math"

	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
)

// Similarity returns the cosine similarity of two vibe vectors, in [-1, 1].
// A nil or zero-norm input scores 0: an unrated user or untagged item is
// neutral, never rewarded or penalised.
func Similarity(a, b *vibe.Vector) float64 {
	if a == nil || b == nil {
		return 0
	}
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	sim := a.Dot(*b) / (na * nb)
	// Rounding can push the quotient a hair outside the legal range.
	return math.Max(-1, math.Min(1, sim))
}

// Blend scores a candidate against a set of participants and returns the
// arithmetic mean of the per-participant similarities. An empty participant
// set blends to 0. A participant with a nil or zero-norm vector contributes a
// similarity of 0 rather than being excluded; callers that require every
// participant to have a profile must pre-validate the set.
//
// Each participant counts equally regardless of how much rating history backs
// its vector. This is deliberately the mean of pairwise similarities, not the
// similarity against an averaged group vector; the two aggregations differ.
func Blend(participants map[string]*vibe.Vector, candidate *vibe.Vector) float64 {
	if len(participants) == 0 {
		return 0
	}
	var sum float64
	for _, p := range participants {
		sum += Similarity(p, candidate)
	}
	return sum / float64(len(participants))
}

// MatchPercent converts a raw similarity or blend score into the 0-100 match
// value shown to users. Negative similarity displays as 0%.
func MatchPercent(s float64) int {
	s = math.Max(0, math.Min(1, s))
	return int(math.Round(s * 100))
}
