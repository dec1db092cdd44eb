package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/CineSyncApp/cinesync-engine/engine/rank"
	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
)

type fakeProfiles struct {
	prefs   map[string]vibe.Preference
	circles map[string][]string
	err     error
}

func (f *fakeProfiles) GetPreference(_ context.Context, userID string) (vibe.Preference, error) {
	if f.err != nil {
		return vibe.Preference{}, f.err
	}
	return f.prefs[userID], nil
}

func (f *fakeProfiles) CircleMembers(_ context.Context, circleID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.circles[circleID], nil
}

type fakeCatalog struct {
	candidates []rank.Candidate
	err        error
	lastLimit  int
}

func (f *fakeCatalog) TopCandidates(_ context.Context, _ vibe.Vector, limit int) ([]rank.Candidate, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *fakeCatalog) Candidate(_ context.Context, movieID string) (rank.Candidate, error) {
	if f.err != nil {
		return rank.Candidate{}, f.err
	}
	for _, c := range f.candidates {
		if c.ID == movieID {
			return c, nil
		}
	}
	return rank.Candidate{}, fmt.Errorf("not found: %s", movieID)
}

func axisVec(axis vibe.Axis, val float64) vibe.Vector {
	var v vibe.Vector
	v[axis] = val
	return v
}

func newTestService(profiles ProfileStore, catalog CandidateSource) *Service {
	opts := DefaultOptions()
	opts.SearchTimeout = 0
	return New(profiles, catalog, opts, nil)
}

func TestHomeFeedNoPreference(t *testing.T) {
	svc := newTestService(&fakeProfiles{prefs: map[string]vibe.Preference{}}, &fakeCatalog{})
	_, err := svc.HomeFeed(context.Background(), "newcomer")
	if !errors.Is(err, ErrNoPreference) {
		t.Fatalf("expected ErrNoPreference, got %v", err)
	}
}

func TestHomeFeed(t *testing.T) {
	arthouse := axisVec(vibe.AxisArthouse, 1)
	mainstream := axisVec(vibe.AxisArthouse, -1)

	profiles := &fakeProfiles{prefs: map[string]vibe.Preference{
		"u1": vibe.SomePreference(arthouse),
	}}
	catalog := &fakeCatalog{candidates: []rank.Candidate{
		{ID: "miss", Vibe: &mainstream},
		{ID: "hit", Vibe: &arthouse},
	}}

	svc := newTestService(profiles, catalog)
	f, err := svc.HomeFeed(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}

	if catalog.lastLimit != DefaultOptions().CandidateLimit {
		t.Errorf("expected recall limit %d, got %d", DefaultOptions().CandidateLimit, catalog.lastLimit)
	}
	if len(f.Sections) == 0 || f.Sections[0].ID != TopPicksID {
		t.Fatalf("expected top_picks section first, got %+v", f.Sections)
	}
	top := f.Sections[0]
	if top.Items[0].ID != "hit" {
		t.Errorf("expected aligned movie to rank first, got %v", top.Items[0].ID)
	}
	if len(f.Pills) == 0 || f.Pills[0] != "Arthouse lean" {
		t.Errorf("expected Arthouse lean pill, got %v", f.Pills)
	}
}

func TestBlendFeedExcludesAbsentParticipants(t *testing.T) {
	lean := axisVec(vibe.AxisArthouse, 1)

	profiles := &fakeProfiles{prefs: map[string]vibe.Preference{
		"a": vibe.SomePreference(lean),
		"c": vibe.SomePreference(lean),
		// "b" has never answered the quiz
	}}
	catalog := &fakeCatalog{candidates: []rank.Candidate{
		{ID: "aligned", Vibe: &lean},
	}}

	svc := newTestService(profiles, catalog)
	f, err := svc.BlendFeed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}

	if len(f.Participants) != 2 {
		t.Errorf("expected 2 participants after exclusion, got %v", f.Participants)
	}
	// Both remaining participants align perfectly, so the blend is 1.0.
	got := f.Sections[0].Items[0].Score
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("expected blended score 1.0, got %v", got)
	}
}

func TestBlendFeedAllAbsent(t *testing.T) {
	svc := newTestService(&fakeProfiles{prefs: map[string]vibe.Preference{}}, &fakeCatalog{})
	_, err := svc.BlendFeed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrNoPreference) {
		t.Fatalf("expected ErrNoPreference, got %v", err)
	}
}

func TestCircleFeed(t *testing.T) {
	lean := axisVec(vibe.AxisTone, 0.8)
	profiles := &fakeProfiles{
		prefs:   map[string]vibe.Preference{"a": vibe.SomePreference(lean)},
		circles: map[string][]string{"movie-night": {"a"}},
	}
	catalog := &fakeCatalog{candidates: []rank.Candidate{{ID: "m", Vibe: &lean}}}

	svc := newTestService(profiles, catalog)
	f, err := svc.CircleFeed(context.Background(), "movie-night")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Sections) == 0 {
		t.Error("expected sections for a non-empty circle")
	}
}

func TestCircleFeedEmpty(t *testing.T) {
	svc := newTestService(&fakeProfiles{circles: map[string][]string{}}, &fakeCatalog{})
	_, err := svc.CircleFeed(context.Background(), "ghost-town")
	if !errors.Is(err, ErrEmptyCircle) {
		t.Fatalf("expected ErrEmptyCircle, got %v", err)
	}
}

func TestWhyThis(t *testing.T) {
	lean := axisVec(vibe.AxisTone, 0.8)
	profiles := &fakeProfiles{prefs: map[string]vibe.Preference{
		"u1": vibe.SomePreference(lean),
	}}
	catalog := &fakeCatalog{candidates: []rank.Candidate{{ID: "m1", Vibe: &lean}}}

	svc := newTestService(profiles, catalog)
	why, err := svc.WhyThis(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Strong match on Dark & moody."; why != want {
		t.Errorf("expected %q, got %q", want, why)
	}
}

func TestWhyThisNoAgreement(t *testing.T) {
	user := axisVec(vibe.AxisTone, 0.8)
	item := axisVec(vibe.AxisTone, -0.8)
	profiles := &fakeProfiles{prefs: map[string]vibe.Preference{
		"u1": vibe.SomePreference(user),
	}}
	catalog := &fakeCatalog{candidates: []rank.Candidate{{ID: "m1", Vibe: &item}}}

	svc := newTestService(profiles, catalog)
	why, err := svc.WhyThis(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if why != "" {
		t.Errorf("expected empty explanation, got %q", why)
	}
}

func TestRecallErrorWrapped(t *testing.T) {
	lean := axisVec(vibe.AxisTone, 0.8)
	profiles := &fakeProfiles{prefs: map[string]vibe.Preference{
		"u1": vibe.SomePreference(lean),
	}}
	boom := errors.New("qdrant down")
	svc := newTestService(profiles, &fakeCatalog{err: boom})

	_, err := svc.HomeFeed(context.Background(), "u1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped recall error, got %v", err)
	}
}
