package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/CineSyncApp/cinesync-engine/engine/explain"
	"github.com/CineSyncApp/cinesync-engine/engine/rank"
	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
	"github.com/CineSyncApp/cinesync-engine/pkg/resilience"
)

// Sentinel errors surfaced to the API layer.
var (
	// ErrNoPreference means the subject (or every blend participant) has no
	// quiz yet. Callers should show a "not enough data" outcome instead of
	// ranking against an all-zero vector.
	ErrNoPreference = errors.New("no preference data")

	// ErrEmptyCircle means a blend circle has no members.
	ErrEmptyCircle = errors.New("blend circle has no members")
)

// ProfileStore looks up preference vectors and blend-circle membership.
type ProfileStore interface {
	GetPreference(ctx context.Context, userID string) (vibe.Preference, error)
	CircleMembers(ctx context.Context, circleID string) ([]string, error)
}

// CandidateSource recalls candidate batches from the catalog.
type CandidateSource interface {
	TopCandidates(ctx context.Context, query vibe.Vector, limit int) ([]rank.Candidate, error)
	Candidate(ctx context.Context, movieID string) (rank.Candidate, error)
}

// CategoryAxis selects one axis for a personalised category row.
type CategoryAxis struct {
	Axis   vibe.Axis
	Weight float64
}

// Options configures the feed pipeline.
type Options struct {
	// CandidateLimit caps the recall batch per request. Production keeps this
	// at a few hundred for latency.
	CandidateLimit int
	TopPicks       int
	CategoryLimit  int
	CategoryAxes   []CategoryAxis
	SearchTimeout  time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		CandidateLimit: 200,
		TopPicks:       DefaultTopPicks,
		CategoryLimit:  DefaultCategoryLimit,
		CategoryAxes: []CategoryAxis{
			{Axis: vibe.AxisTone, Weight: 0.4},
			{Axis: vibe.AxisPace, Weight: 0.4},
			{Axis: vibe.AxisRealism, Weight: 0.4},
			{Axis: vibe.AxisNovelty, Weight: 0.4},
		},
		SearchTimeout: 3 * time.Second,
	}
}

// Feed is the assembled response for one feed request.
type Feed struct {
	Sections     []Section `json:"sections"`
	Pills        []string  `json:"pills,omitempty"`
	Participants []string  `json:"participants,omitempty"`
}

// Service orchestrates profile lookup, candidate recall, ranking, assembly,
// and annotation. It holds no mutable state; any number of requests may run
// in parallel.
type Service struct {
	profiles ProfileStore
	catalog  CandidateSource
	breaker  *resilience.Breaker
	opts     Options
	logger   *slog.Logger
}

// New creates a feed Service. The catalog recall path runs through a circuit
// breaker so a struggling vector store degrades to fast failures.
func New(profiles ProfileStore, catalog CandidateSource, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		profiles: profiles,
		catalog:  catalog,
		breaker:  resilience.NewBreaker(resilience.DefaultBreakerOpts),
		opts:     opts,
		logger:   logger,
	}
}

// HomeFeed builds the personalised feed for a single user.
func (s *Service) HomeFeed(ctx context.Context, userID string) (*Feed, error) {
	pref, err := s.profiles.GetPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("feed: get preference %s: %w", userID, err)
	}
	if !pref.Present {
		return nil, fmt.Errorf("feed: user %s: %w", userID, ErrNoPreference)
	}
	subject := pref.Vector

	candidates, err := s.recall(ctx, subject)
	if err != nil {
		return nil, err
	}

	ranked := rank.Rank(&subject, candidates, len(candidates))
	sections := Assemble(ranked, Config{
		TopPicks:   s.opts.TopPicks,
		Categories: s.categories(&subject),
	})

	s.logger.Info("home feed built",
		"user", userID, "candidates", len(candidates), "sections", len(sections))

	return &Feed{
		Sections: sections,
		Pills:    explain.DefaultPills(subject),
	}, nil
}

// BlendFeed builds a group feed for the given participants. Participants with
// no preference yet are flagged and excluded; if nobody has one the blend is
// refused rather than returning an all-zero ordering.
func (s *Service) BlendFeed(ctx context.Context, userIDs []string) (*Feed, error) {
	participants := make(map[string]*vibe.Vector, len(userIDs))
	var included []string
	for _, id := range userIDs {
		pref, err := s.profiles.GetPreference(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("feed: get preference %s: %w", id, err)
		}
		if !pref.Present {
			s.logger.Info("blend participant has no preference, excluding", "user", id)
			continue
		}
		participants[id] = pref.Ptr()
		included = append(included, id)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("feed: blend of %d users: %w", len(userIDs), ErrNoPreference)
	}

	// The centroid is only the recall query; candidate scoring stays the mean
	// of pairwise similarities, which is not the same aggregation.
	query := centroid(participants)

	candidates, err := s.recall(ctx, query)
	if err != nil {
		return nil, err
	}

	ranked := rank.RankGroup(participants, candidates, len(candidates))
	sections := Assemble(ranked, Config{
		TopPicks:   s.opts.TopPicks,
		Categories: s.categories(&query),
	})

	s.logger.Info("blend feed built",
		"participants", len(participants), "candidates", len(candidates), "sections", len(sections))

	return &Feed{Sections: sections, Participants: included}, nil
}

// CircleFeed builds a blend feed for a stored blend circle.
func (s *Service) CircleFeed(ctx context.Context, circleID string) (*Feed, error) {
	members, err := s.profiles.CircleMembers(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("feed: circle members %s: %w", circleID, err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("feed: circle %s: %w", circleID, ErrEmptyCircle)
	}
	return s.BlendFeed(ctx, members)
}

// WhyThis renders the one-line justification for a user/movie pair. The empty
// string means no axis agrees strongly enough to say anything.
func (s *Service) WhyThis(ctx context.Context, userID, movieID string) (string, error) {
	pref, err := s.profiles.GetPreference(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("feed: get preference %s: %w", userID, err)
	}
	if !pref.Present {
		return "", fmt.Errorf("feed: user %s: %w", userID, ErrNoPreference)
	}

	cand, err := s.catalog.Candidate(ctx, movieID)
	if err != nil {
		return "", fmt.Errorf("feed: get candidate %s: %w", movieID, err)
	}

	return explain.Explain(pref.Ptr(), cand.Vibe, explain.DefaultAxisLabels), nil
}

func (s *Service) recall(ctx context.Context, query vibe.Vector) ([]rank.Candidate, error) {
	limit := s.opts.CandidateLimit
	if limit <= 0 {
		limit = DefaultOptions().CandidateLimit
	}

	searchCtx := ctx
	if s.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.opts.SearchTimeout)
		defer cancel()
	}

	var candidates []rank.Candidate
	err := s.breaker.Call(searchCtx, func(ctx context.Context) error {
		var err error
		candidates, err = s.catalog.TopCandidates(ctx, query, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("feed: candidate recall: %w", err)
	}
	return candidates, nil
}

// categories builds personalised category rows: one per configured axis the
// subject actually leans on, titled after the pole it leans to. Axes inside
// the neutral band produce no row.
func (s *Service) categories(subject *vibe.Vector) []Category {
	var cats []Category
	for _, ca := range s.opts.CategoryAxes {
		if !ca.Axis.Valid() {
			continue
		}
		lean := subject[ca.Axis]
		if lean > -explain.DefaultThreshold && lean < explain.DefaultThreshold {
			continue
		}

		weight := ca.Weight
		label := labelFor(ca.Axis, lean > 0)
		if lean < 0 {
			weight = -weight
		}

		cat := AxisCategory(
			fmt.Sprintf("axis_%d", ca.Axis),
			fmt.Sprintf("Best %s blend", label),
			ca.Axis, weight, subject,
		)
		cat.Limit = s.opts.CategoryLimit
		cats = append(cats, cat)
	}
	return cats
}

func labelFor(axis vibe.Axis, positive bool) string {
	for _, l := range explain.DefaultAxisLabels {
		if l.Axis == axis {
			if positive {
				return l.Positive
			}
			return l.Negative
		}
	}
	if positive {
		return axis.PositivePole()
	}
	return axis.NegativePole()
}

func centroid(participants map[string]*vibe.Vector) vibe.Vector {
	var sum vibe.Vector
	var n float64
	for _, p := range participants {
		if p == nil {
			continue
		}
		for i := range sum {
			sum[i] += p[i]
		}
		n++
	}
	if n == 0 {
		return sum
	}
	for i := range sum {
		sum[i] /= n
	}
	return sum
}
