package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// --- Mock infrastructure ---

type mockResult struct {
	records []*neo4j.Record
	idx     int
}

func (m *mockResult) Next(ctx context.Context) bool {
	if m.idx < len(m.records) {
		m.idx++
		return true
	}
	return false
}

func (m *mockResult) Record() *neo4j.Record {
	return m.records[m.idx-1]
}

type mockRunner struct {
	result  *mockResult
	err     error
	cyphers []string
	params  []map[string]any
}

func (m *mockRunner) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	m.cyphers = append(m.cyphers, cypher)
	m.params = append(m.params, params)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockRunner) Close(ctx context.Context) error { return nil }

type member struct {
	ID   string
	Name string
}

func makeRecord(id, name string) *neo4j.Record {
	return &neo4j.Record{
		Values: []any{map[string]any{"id": id, "name": name}},
		Keys:   []string{"n"},
	}
}

func newTestRepo(r *mockRunner) *Neo4jRepo[member, string] {
	rep := NewNeo4jRepo[member, string](
		nil, "Member",
		func(m member) map[string]any { return map[string]any{"id": m.ID, "name": m.Name} },
		func(rec *neo4j.Record) (member, error) {
			m, ok := rec.Values[0].(map[string]any)
			if !ok {
				return member{}, errors.New("bad record shape")
			}
			return member{ID: m["id"].(string), Name: m["name"].(string)}, nil
		},
	)
	rep.newSession = func(ctx context.Context) runner { return r }
	return rep
}

// --- Tests ---

func TestGet(t *testing.T) {
	r := &mockRunner{result: &mockResult{records: []*neo4j.Record{makeRecord("u1", "Ada")}}}
	rep := newTestRepo(r)

	got, err := rep.Get(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "u1" || got.Name != "Ada" {
		t.Fatalf("unexpected entity: %+v", got)
	}
	if !strings.Contains(r.cyphers[0], "MATCH (n:Member {id: $id})") {
		t.Errorf("unexpected cypher: %q", r.cyphers[0])
	}
}

func TestGetNotFound(t *testing.T) {
	r := &mockRunner{result: &mockResult{}}
	rep := newTestRepo(r)

	_, err := rep.Get(context.Background(), "missing")
	var notFound *ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if notFound.Label != "Member" {
		t.Errorf("expected label Member, got %q", notFound.Label)
	}
}

func TestGetRunError(t *testing.T) {
	boom := errors.New("db down")
	rep := newTestRepo(&mockRunner{err: boom})
	if _, err := rep.Get(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected db down, got %v", err)
	}
}

func TestList(t *testing.T) {
	r := &mockRunner{result: &mockResult{records: []*neo4j.Record{
		makeRecord("u1", "Ada"), makeRecord("u2", "Grace"),
	}}}
	rep := newTestRepo(r)

	items, err := rep.List(context.Background(), ListOpts{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestListDefaultLimit(t *testing.T) {
	r := &mockRunner{result: &mockResult{}}
	rep := newTestRepo(r)

	if _, err := rep.List(context.Background(), ListOpts{}); err != nil {
		t.Fatal(err)
	}
	if got := r.params[0]["limit"]; got != 100 {
		t.Errorf("expected default limit 100, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	r := &mockRunner{result: &mockResult{records: []*neo4j.Record{makeRecord("u1", "Ada")}}}
	rep := newTestRepo(r)

	got, err := rep.Merge(context.Background(), member{ID: "u1", Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "u1" {
		t.Fatalf("unexpected entity: %+v", got)
	}
	if !strings.Contains(r.cyphers[0], "MERGE (n:Member {id: $id})") {
		t.Errorf("unexpected cypher: %q", r.cyphers[0])
	}
	if !strings.Contains(r.cyphers[0], "SET n += $props") {
		t.Errorf("expected props update, got %q", r.cyphers[0])
	}
}

func TestMergeNoRow(t *testing.T) {
	rep := newTestRepo(&mockRunner{result: &mockResult{}})
	if _, err := rep.Merge(context.Background(), member{ID: "u1"}); err == nil {
		t.Fatal("expected error when merge returns no row")
	}
}

func TestDelete(t *testing.T) {
	r := &mockRunner{result: &mockResult{}}
	rep := newTestRepo(r)

	if err := rep.Delete(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.cyphers[0], "DETACH DELETE n") {
		t.Errorf("expected detach delete, got %q", r.cyphers[0])
	}
}

func TestWithIDKey(t *testing.T) {
	rep := NewNeo4jRepo[member, string](
		nil, "Member", nil, nil,
		WithIDKey[member, string]("uuid"),
	)
	if rep.idKey != "uuid" {
		t.Fatalf("expected idKey uuid, got %s", rep.idKey)
	}
}
