// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/infrastructure/config"
)

// Repository implements the VectorDB and CollectionManager interfaces using
// Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all its data.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// pointID derives a stable Qdrant point ID from an entity ID, so saving the
// same entity twice overwrites its vector.
func pointID(entityID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(entityID)).String()
}

// Save stores an entity vector.
func (r *Repository) Save(ctx context.Context, vector entities.EntityVector) error {
	return r.SaveBatch(ctx, []entities.EntityVector{vector})
}

// SaveBatch stores multiple entity vectors.
func (r *Repository) SaveBatch(ctx context.Context, vectors []entities.EntityVector) error {
	points := make([]*pb.PointStruct, 0, len(vectors))

	for _, v := range vectors {
		point := &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{
					Uuid: pointID(v.EntityID),
				},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{
						Data: v.Embedding,
					},
				},
			},
			Payload: map[string]*pb.Value{
				"entity_type": {Kind: &pb.Value_StringValue{StringValue: string(v.EntityType)}},
				"entity_id":   {Kind: &pb.Value_StringValue{StringValue: v.EntityID}},
				"text":        {Kind: &pb.Value_StringValue{StringValue: v.Text}},
			},
		}
		points = append(points, point)
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// Search returns the entities most similar to the given embedding.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]entities.EntityHit, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	return scoredPointsToHits(resp.Result), nil
}

// SearchByEntityType returns similar entities filtered to one entity type.
func (r *Repository) SearchByEntityType(ctx context.Context, embedding []float32, entityType entities.EntityType, limit int) ([]entities.EntityHit, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter: &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: "entity_type",
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{
									Keyword: string(entityType),
								},
							},
						},
					},
				},
			},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points by entity type: %w", err)
	}

	return scoredPointsToHits(resp.Result), nil
}

// Delete removes an entity's vector.
func (r *Repository) Delete(ctx context.Context, entityID string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(entityID)}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}

	return nil
}

// scoredPointsToHits converts scored points to entity hits.
func scoredPointsToHits(points []*pb.ScoredPoint) []entities.EntityHit {
	hits := make([]entities.EntityHit, 0, len(points))

	for _, point := range points {
		payload := point.Payload
		hits = append(hits, entities.EntityHit{
			EntityType: entities.EntityType(getStringValue(payload, "entity_type")),
			EntityID:   getStringValue(payload, "entity_id"),
			Text:       getStringValue(payload, "text"),
			Score:      point.Score,
		})
	}

	return hits
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
