// internal/app/store/routines/routinestore.go
package routinestore

import (
	"context"
	"time"

	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("routine_instances")}
}

// SumPoints totals the point values of every routine instance scheduled
// inside [start, end) for a stable. This is the point pool the
// quota-based algorithm divides among members.
func (s *Store) SumPoints(ctx context.Context, stableID primitive.ObjectID, start, end time.Time) (float64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"stable_id":    stableID,
			"scheduled_at": bson.M{"$gte": start, "$lt": end},
		}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$points"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	if cur.Next(ctx) {
		var row struct {
			Total float64 `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
		return row.Total, nil
	}
	return 0, cur.Err()
}

// Create inserts a routine instance.
func (s *Store) Create(ctx context.Context, ri *models.RoutineInstance) error {
	if ri.ID.IsZero() {
		ri.ID = primitive.NewObjectID()
	}
	if ri.CreatedAt.IsZero() {
		ri.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, ri)
	return err
}

// ListByStable returns a stable's routine instances scheduled inside
// [start, end), soonest first.
func (s *Store) ListByStable(ctx context.Context, stableID primitive.ObjectID, start, end time.Time) ([]models.RoutineInstance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{
		"stable_id":    stableID,
		"scheduled_at": bson.M{"$gte": start, "$lt": end},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var instances []models.RoutineInstance
	if err := cur.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}
