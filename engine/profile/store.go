package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
	"github.com/CineSyncApp/cinesync-engine/pkg/repo"
)

// Store provides profile operations on top of the generic Neo4j repository.
type Store struct {
	driver neo4j.DriverWithContext
	users  *repo.Neo4jRepo[User, string]
}

// New creates a new profile Store.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{
		driver: driver,
		users:  newUserRepo(driver),
	}
}

func newUserRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[User, string] {
	return repo.NewNeo4jRepo[User, string](
		driver,
		"User",
		userToMap,
		userFromRecord,
	)
}

func userToMap(u User) map[string]any {
	m := map[string]any{
		"id":   u.ID,
		"name": u.DisplayName,
	}
	if u.VibeValues != nil {
		m["vibe"] = u.VibeValues
	}
	return m
}

func userFromRecord(rec *neo4j.Record) (User, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return User{}, err
	}
	props := node.Props
	u := User{
		ID:          strProp(props, "id"),
		DisplayName: strProp(props, "name"),
	}
	if raw, ok := props["vibe"].([]any); ok {
		vals := make([]float64, 0, len(raw))
		for _, x := range raw {
			if f, ok := x.(float64); ok {
				vals = append(vals, f)
			}
		}
		u.VibeValues = vals
	}
	return u, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	return s.users.Get(ctx, id)
}

// GetPreference returns the user's preference vector, or an explicit absence
// when the user is unknown or has not answered the quiz. Absence is a typed
// outcome, not an error: callers decide how to degrade.
func (s *Store) GetPreference(ctx context.Context, userID string) (vibe.Preference, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		var notFound *repo.ErrNotFound
		if errors.As(err, &notFound) {
			return vibe.NoPreference(), nil
		}
		return vibe.NoPreference(), fmt.Errorf("profile: get user %s: %w", userID, err)
	}
	if u.VibeValues == nil {
		return vibe.NoPreference(), nil
	}
	v, err := vibe.FromSlice(u.VibeValues)
	if err != nil {
		return vibe.NoPreference(), fmt.Errorf("profile: user %s: %w", userID, err)
	}
	return vibe.SomePreference(v.Clamp()), nil
}

// SavePreference merges the user node and sets its preference vector.
func (s *Store) SavePreference(ctx context.Context, userID string, v vibe.Vector) error {
	_, err := s.users.Merge(ctx, User{ID: userID, VibeValues: v.Clamp().Slice()})
	if err != nil {
		return fmt.Errorf("profile: save preference %s: %w", userID, err)
	}
	return nil
}

// CircleMembers returns the user ids belonging to a blend circle.
func (s *Store) CircleMembers(ctx context.Context, circleID string) ([]string, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MATCH (u:User)-[:MEMBER_OF]->(c:Circle {id: $id}) RETURN u.id AS id ORDER BY id`
	result, err := sess.Run(ctx, cypher, map[string]any{"id": circleID})
	if err != nil {
		return nil, fmt.Errorf("profile: circle members %s: %w", circleID, err)
	}

	var members []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("id"); ok && v != nil {
			members = append(members, fmt.Sprint(v))
		}
	}
	return members, nil
}

// AddCircleMember merges the circle, the user, and the membership edge.
func (s *Store) AddCircleMember(ctx context.Context, circleID, circleName, userID string) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (c:Circle {id: $circle})
			   SET c.name = $name
			   MERGE (u:User {id: $user})
			   MERGE (u)-[:MEMBER_OF]->(c)`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"circle": circleID,
		"name":   circleName,
		"user":   userID,
	})
	if err != nil {
		return fmt.Errorf("profile: add member %s to circle %s: %w", userID, circleID, err)
	}
	return nil
}
