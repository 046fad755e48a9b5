// internal/app/store/selectionhistory/historystore.go
package historystore

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
	return &Store{c: db.Collection("selection_histories")}
}

// Record writes the immutable final-order snapshot for a completed
// process. The snapshot is taken from the process's turn array, so the
// order reflects the sequence that actually ran.
func (s *Store) Record(ctx context.Context, p *models.SelectionProcess, completedAt time.Time) error {
	entries := make([]models.HistoryEntry, 0, len(p.Turns))
	for _, t := range p.Turns {
		entries = append(entries, models.HistoryEntry{UserID: t.UserID, Order: t.Order})
	}

	h := models.SelectionHistory{
		ID:             primitive.NewObjectID(),
		OrganizationID: p.OrganizationID,
		StableID:       p.StableID,
		ProcessID:      p.ID,
		Algorithm:      p.Algorithm,
		FinalOrder:     entries,
		CompletedAt:    completedAt,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, h)
	return err
}

// Latest returns up to limit snapshots for a stable, newest completion
// first. This is the feed the turn-order engine consumes.
func (s *Store) Latest(ctx context.Context, stableID primitive.ObjectID, limit int) ([]models.SelectionHistory, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.c.Find(ctx, bson.M{"stable_id": stableID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []models.SelectionHistory
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
