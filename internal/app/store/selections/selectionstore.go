// internal/app/store/selections/selectionstore.go
package selectionstore

import (
	"context"

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
	return &Store{c: db.Collection("selections")}
}

// ListByProcess returns a process's selections, oldest first.
func (s *Store) ListByProcess(ctx context.Context, processID primitive.ObjectID) ([]models.Selection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"process_id": processID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var selections []models.Selection
	if err := cur.All(ctx, &selections); err != nil {
		return nil, err
	}
	return selections, nil
}

// DeleteByProcess removes every selection under a process. Called inside
// the same transaction that deletes the process document.
func (s *Store) DeleteByProcess(ctx context.Context, processID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"process_id": processID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
