package score

import (
	"math"
	"testing"

	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
)

func vec(vals ...float64) *vibe.Vector {
	var v vibe.Vector
	copy(v[:], vals)
	return &v
}

func TestSimilarityNeutralCases(t *testing.T) {
	tests := []struct {
		name string
		a, b *vibe.Vector
	}{
		{"both nil", nil, nil},
		{"nil a", nil, vec(1)},
		{"nil b", vec(1), nil},
		{"zero a", vec(), vec(1)},
		{"zero b", vec(1), vec()},
		{"both zero", vec(), vec()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != 0 {
				t.Errorf("expected 0, got %v", got)
			}
		})
	}
}

func TestSimilaritySelf(t *testing.T) {
	v := vec(0.7, -0.3, 0.1, 0, 0.9, -1, 0.2, 0, 0.5, -0.4)
	if got := Similarity(v, v); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected self-similarity 1, got %v", got)
	}
}

func TestSimilaritySymmetryAndBounds(t *testing.T) {
	a := vec(1, -1, 0.5, 0.2, -0.8, 0, 0.3, -0.3, 1, -0.5)
	b := vec(-0.4, 0.9, -0.5, 0.7, 0.1, -1, 0, 0.6, -0.2, 0.8)

	ab, ba := Similarity(a, b), Similarity(b, a)
	if ab != ba {
		t.Errorf("expected symmetry, got %v vs %v", ab, ba)
	}
	if ab < -1 || ab > 1 {
		t.Errorf("expected score in [-1,1], got %v", ab)
	}
}

func TestSimilarityOpposite(t *testing.T) {
	a := vec(1, -0.5, 0.25)
	b := vec(-1, 0.5, -0.25)
	if got := Similarity(a, b); math.Abs(got+1) > 1e-9 {
		t.Errorf("expected -1 for opposite vectors, got %v", got)
	}
}

func TestSimilarityScaleInvariant(t *testing.T) {
	a := vec(0.2, -0.4, 0.6)
	b := vec(0.1, -0.2, 0.3)
	if got := Similarity(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected 1 for parallel vectors, got %v", got)
	}
}

func TestBlendEmpty(t *testing.T) {
	if got := Blend(nil, vec(1)); got != 0 {
		t.Errorf("expected 0 for empty participant set, got %v", got)
	}
}

func TestBlendSingleMatchesSimilarity(t *testing.T) {
	u := vec(0.5, -0.5, 0.2)
	c := vec(0.4, -0.1, 0.9)
	got := Blend(map[string]*vibe.Vector{"u": u}, c)
	if want := Similarity(u, c); got != want {
		t.Errorf("expected single-participant blend %v, got %v", want, got)
	}
}

func TestBlendIsPairwiseMean(t *testing.T) {
	a := vec(1)
	b := vec(-1)
	c := vec(1)
	got := Blend(map[string]*vibe.Vector{"a": a, "b": b}, c)
	// similarities are +1 and -1, so the mean is 0
	if math.Abs(got) > 1e-9 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestBlendNilParticipantCountsAsZero(t *testing.T) {
	c := vec(1)
	got := Blend(map[string]*vibe.Vector{"a": vec(1), "b": nil}, c)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestBlendDiffersFromCentroidSimilarity(t *testing.T) {
	// Two participants on perpendicular axes. Pairwise mean gives
	// (cos 0 + cos 90) / 2 = 0.5 against a candidate aligned with one of
	// them; the centroid similarity would be cos 45 ~= 0.707.
	a := vec(1)
	b := &vibe.Vector{0, 1}
	c := vec(1)
	got := Blend(map[string]*vibe.Vector{"a": a, "b": b}, c)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected pairwise mean 0.5, got %v", got)
	}
}

func TestMatchPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{1, 100},
		{0, 0},
		{-0.8, 0},
		{0.5, 50},
		{0.005, 1},
		{0.004, 0},
		{1.7, 100},
		{0.874, 87},
		{0.875, 88},
	}
	for _, tt := range tests {
		if got := MatchPercent(tt.in); got != tt.want {
			t.Errorf("MatchPercent(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
