//go:build integration

package profile

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
)

func neo4jURL() string {
	if v := os.Getenv("NEO4J_URL"); v != "" {
		return v
	}
	return "neo4j://localhost:7687"
}

func testDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	driver, err := neo4j.NewDriverWithContext(neo4jURL(),
		neo4j.BasicAuth(os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASS"), ""))
	if err != nil {
		t.Fatalf("neo4j driver: %v", err)
	}
	t.Cleanup(func() { driver.Close(context.Background()) })
	return driver
}

func TestNeo4j_PreferenceRoundTrip(t *testing.T) {
	store := New(testDriver(t))
	ctx := context.Background()
	userID := uuid.NewString()

	pref, err := store.GetPreference(ctx, userID)
	if err != nil {
		t.Fatalf("GetPreference (unknown user): %v", err)
	}
	if pref.Present {
		t.Fatal("expected absent preference for an unknown user")
	}

	v := vibe.Vector{1, -0.5, 0.3}
	if err := store.SavePreference(ctx, userID, v); err != nil {
		t.Fatalf("SavePreference: %v", err)
	}

	pref, err = store.GetPreference(ctx, userID)
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if !pref.Present {
		t.Fatal("expected preference to be present after save")
	}
	if pref.Vector != v {
		t.Fatalf("expected %v, got %v", v, pref.Vector)
	}
}

func TestNeo4j_CircleMembers(t *testing.T) {
	store := New(testDriver(t))
	ctx := context.Background()
	circleID := uuid.NewString()

	members, err := store.CircleMembers(ctx, circleID)
	if err != nil {
		t.Fatalf("CircleMembers (empty circle): %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected no members, got %v", members)
	}

	for _, userID := range []string{"b-" + circleID, "a-" + circleID} {
		if err := store.AddCircleMember(ctx, circleID, "Movie night", userID); err != nil {
			t.Fatalf("AddCircleMember: %v", err)
		}
	}

	members, err = store.CircleMembers(ctx, circleID)
	if err != nil {
		t.Fatalf("CircleMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
	// Membership listing is ordered by id for deterministic blends.
	if members[0] != "a-"+circleID || members[1] != "b-"+circleID {
		t.Fatalf("expected ordered members, got %v", members)
	}
}
