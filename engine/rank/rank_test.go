package rank

import (
	"testing"

	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
)

func vec(vals ...float64) *vibe.Vector {
	var v vibe.Vector
	copy(v[:], vals)
	return &v
}

func ids(scored []ScoredCandidate) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.ID
	}
	return out
}

func TestRankOrdersDescending(t *testing.T) {
	subject := vec(1)
	candidates := []Candidate{
		{ID: "opposite", Vibe: vec(-1)},
		{ID: "aligned", Vibe: vec(1)},
		{ID: "untagged", Vibe: nil},
	}

	got := Rank(subject, candidates, len(candidates))
	want := []string{"aligned", "untagged", "opposite"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("expected order %v, got %v", want, ids(got))
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("expected non-increasing scores, got %v then %v", got[i-1].Score, got[i].Score)
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	subject := vec(1)
	// All zero-norm candidates score 0; input order must survive.
	candidates := []Candidate{
		{ID: "first"}, {ID: "second"}, {ID: "third"},
	}
	got := Rank(subject, candidates, len(candidates))
	for i, want := range []string{"first", "second", "third"} {
		if got[i].ID != want {
			t.Fatalf("expected stable tie order, got %v", ids(got))
		}
	}
}

func TestRankLimit(t *testing.T) {
	subject := vec(1)
	candidates := []Candidate{
		{ID: "a", Vibe: vec(1)},
		{ID: "b", Vibe: vec(0.5)},
		{ID: "c", Vibe: vec(-0.5)},
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero", 0, 0},
		{"negative", -3, 0},
		{"partial", 2, 2},
		{"exact", 3, 3},
		{"beyond", 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(subject, candidates, tt.limit)
			if len(got) != tt.want {
				t.Errorf("limit %d: expected %d results, got %d", tt.limit, tt.want, len(got))
			}
		})
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	subject := vec(1)
	candidates := []Candidate{
		{ID: "low", Vibe: vec(-1)},
		{ID: "high", Vibe: vec(1)},
	}
	Rank(subject, candidates, 2)
	if candidates[0].ID != "low" || candidates[1].ID != "high" {
		t.Error("expected input slice order to be untouched")
	}
}

func TestRankMetadataPassthrough(t *testing.T) {
	meta := map[string]string{"title": "Solaris", "poster_url": "http://example/p.jpg"}
	got := Rank(vec(1), []Candidate{{ID: "m", Vibe: vec(1), Meta: meta}}, 1)
	if got[0].Meta["title"] != "Solaris" {
		t.Errorf("expected metadata passthrough, got %v", got[0].Meta)
	}
}

func TestRankGroup(t *testing.T) {
	participants := map[string]*vibe.Vector{
		"a": vec(1),
		"b": vec(-1),
	}
	candidates := []Candidate{
		{ID: "split", Vibe: vec(1)},               // +1 and -1 average to 0
		{ID: "neutral", Vibe: &vibe.Vector{0, 1}}, // orthogonal to both
	}
	got := RankGroup(participants, candidates, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, sc := range got {
		if sc.Score != 0 {
			t.Errorf("candidate %s: expected blended score 0, got %v", sc.ID, sc.Score)
		}
	}
}

func TestRankFunc(t *testing.T) {
	candidates := []Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := RankFunc(candidates, 3, func(c Candidate) float64 {
		if c.ID == "b" {
			return 1
		}
		return 0
	})
	if got[0].ID != "b" {
		t.Errorf("expected custom scorer to promote b, got %v", ids(got))
	}
}
