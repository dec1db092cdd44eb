package catalog

import (
	"context"
	"fmt"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/CineSyncApp/cinesync-engine/engine/rank"
	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
)

// Store is the sole owner of all Qdrant operations.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a Store connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("catalog: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the ten-dimensional cosine collection if it
// doesn't exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("catalog: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(vibe.Dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("catalog: create collection %s: %w", s.collection, err)
	}
	return nil
}

// DeleteCollection drops the collection. Test cleanup only.
func (s *Store) DeleteCollection(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("catalog: delete collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert stores movies into Qdrant. Untagged movies get a zero vector.
func (s *Store) Upsert(ctx context.Context, movies []Movie) error {
	if len(movies) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(movies))
	for i, m := range movies {
		var vec vibe.Vector
		if m.Vibe != nil {
			vec = m.Vibe.Clamp()
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: m.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vec.Float32s()},
				},
			},
			Payload: moviePayload(m),
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("catalog: upsert %d movies: %w", len(movies), err)
	}
	return nil
}

// Delete removes a movie from the catalog.
func (s *Store) Delete(ctx context.Context, movieID string) error {
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: movieID}}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("catalog: delete movie %s: %w", movieID, err)
	}
	return nil
}

// TopCandidates recalls the closest movies to the query vector. Qdrant's own
// cosine score is only used for recall; the engine re-scores candidates from
// the returned vectors.
func (s *Store) TopCandidates(ctx context.Context, query vibe.Vector, limit int) ([]rank.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query.Float32s(),
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}

	candidates := make([]rank.Candidate, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		candidates = append(candidates, candidateFrom(
			r.GetId().GetUuid(),
			r.GetVectors().GetVector().GetData(),
			r.GetPayload(),
		))
	}
	return candidates, nil
}

// Candidate fetches a single movie as a scorable candidate.
func (s *Store) Candidate(ctx context.Context, movieID string) (rank.Candidate, error) {
	resp, err := s.points.Get(ctx, &pb.GetPoints{
		CollectionName: s.collection,
		Ids:            []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: movieID}}},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return rank.Candidate{}, fmt.Errorf("catalog: get movie %s: %w", movieID, err)
	}
	points := resp.GetResult()
	if len(points) == 0 {
		return rank.Candidate{}, fmt.Errorf("catalog: movie %s not found", movieID)
	}
	p := points[0]
	return candidateFrom(p.GetId().GetUuid(), p.GetVectors().GetVector().GetData(), p.GetPayload()), nil
}

// candidateFrom converts a stored point into a rank.Candidate. A stored zero
// vector means the movie is untagged, surfaced as a nil vibe so scoring stays
// neutral.
func candidateFrom(id string, data []float32, payload map[string]*pb.Value) rank.Candidate {
	c := rank.Candidate{ID: id, Meta: make(map[string]string, len(payload))}

	if v, err := vibe.FromFloat32s(data); err == nil && !v.IsZero() {
		c.Vibe = &v
	}

	for k, val := range payload {
		switch kind := val.GetKind().(type) {
		case *pb.Value_StringValue:
			c.Meta[k] = kind.StringValue
		case *pb.Value_IntegerValue:
			c.Meta[k] = strconv.FormatInt(kind.IntegerValue, 10)
		case *pb.Value_DoubleValue:
			c.Meta[k] = strconv.FormatFloat(kind.DoubleValue, 'g', -1, 64)
		case *pb.Value_BoolValue:
			c.Meta[k] = strconv.FormatBool(kind.BoolValue)
		}
	}
	return c
}

// moviePayload flattens movie display metadata for Qdrant.
func moviePayload(m Movie) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		"title": {Kind: &pb.Value_StringValue{StringValue: m.Title}},
	}
	if m.ReleaseYear != 0 {
		payload["release_year"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(m.ReleaseYear)}}
	}
	if m.RuntimeMinutes != 0 {
		payload["runtime_minutes"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(m.RuntimeMinutes)}}
	}
	if m.ContentRating != "" {
		payload["content_rating"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: m.ContentRating}}
	}
	if m.PosterURL != "" {
		payload["poster_url"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: m.PosterURL}}
	}
	if m.Synopsis != "" {
		payload["synopsis"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: m.Synopsis}}
	}
	return payload
}
