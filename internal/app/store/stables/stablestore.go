// internal/app/store/stables/stablestore.go
package stablestore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/paddockops/equihub/internal/app/system/status"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateStableName = errors.New("a stable with this name already exists in the organization")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("stables")}
}

func (s *Store) Create(ctx context.Context, st models.Stable) (models.Stable, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.NameCI = text.Fold(st.Name)
	if st.Status == "" {
		st.Status = status.Active
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, st)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Stable{}, ErrDuplicateStableName
		}
		return models.Stable{}, err
	}
	return st, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Stable, error) {
	var st models.Stable
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return models.Stable{}, err
	}
	return st, nil
}

// ListByOrg returns all stables belonging to an organization, sorted by
// folded name.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Stable, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var stables []models.Stable
	if err := cur.All(ctx, &stables); err != nil {
		return nil, err
	}
	return stables, nil
}

// GetByIDs loads multiple stables, sorted by folded name. Used to list
// the stables a user belongs to.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Stable, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var stables []models.Stable
	if err := cur.All(ctx, &stables); err != nil {
		return nil, err
	}
	return stables, nil
}

// Delete removes a stable by ID. Returns the number of documents deleted
// (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
