// internal/app/store/logins/loginstore.go
package loginstore

import (
	"context"
	"net/http"
	"time"

	"github.com/paddockops/equihub/internal/app/system/ratelimit"
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
	return &Store{c: db.Collection("login_records")}
}

// CreateFrom builds a LoginRecord from the HTTP request and inserts it.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID) error {
	rec := models.LoginRecord{
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// RecentByUser returns the user's latest sign-ins, newest first.
func (s *Store) RecentByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.LoginRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []models.LoginRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
