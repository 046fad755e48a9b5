// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/paddockops/equihub/internal/app/system/status"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c       *mongo.Collection
	users   *mongo.Collection
	stables *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("stable_memberships"),
		users:   db.Collection("users"),
		stables: db.Collection("stables"),
	}
}

var (
	ErrBadRole      = errors.New(`role must be "manager" or "member"`)
	ErrOrgMismatch  = errors.New("user and stable belong to different organizations")
	ErrMissingOrgID = errors.New("user missing organization_id")
)

var ErrDuplicateMembership = errors.New("user is already a member of this stable")

// Add creates a membership after enforcing the org invariant and role
// validity.
func (s *Store) Add(ctx context.Context, stableID, userID primitive.ObjectID, role string) error {
	if role != "manager" && role != "member" {
		return ErrBadRole
	}

	var st models.Stable
	if err := s.stables.FindOne(ctx, bson.M{"_id": stableID}).Decode(&st); err != nil {
		return err
	}

	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		return err
	}
	if u.OrganizationID == nil {
		return ErrMissingOrgID
	}
	if st.OrganizationID != *u.OrganizationID {
		return ErrOrgMismatch
	}

	doc := bson.M{
		"stable_id":  stableID,
		"user_id":    userID,
		"org_id":     st.OrganizationID,
		"role":       role,
		"status":     status.Active,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership document for (stableID, userID).
func (s *Store) Remove(ctx context.Context, stableID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"stable_id": stableID, "user_id": userID})
	return err
}

// ListByStable returns all active memberships for a stable, optionally
// filtered by role.
func (s *Store) ListByStable(ctx context.Context, stableID primitive.ObjectID, role string) ([]models.StableMembership, error) {
	filter := bson.M{"stable_id": stableID, "status": status.Active}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.StableMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// ActiveMemberIDs returns the set of user IDs holding an active
// membership in the stable.
func (s *Store) ActiveMemberIDs(ctx context.Context, stableID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	cur, err := s.c.Find(ctx, bson.M{"stable_id": stableID, "status": status.Active})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	set := make(map[primitive.ObjectID]bool)
	for cur.Next(ctx) {
		var row struct {
			UserID primitive.ObjectID `bson:"user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		set[row.UserID] = true
	}
	return set, cur.Err()
}

// ValidationResult reports which of the requested user IDs are not
// active members of the stable.
type ValidationResult struct {
	Valid          bool
	InvalidUserIDs []primitive.ObjectID
}

// ValidateStableMembers checks every ID against the stable's current
// active membership set. Used at process creation and whenever a member
// order is replaced during an update.
func (s *Store) ValidateStableMembers(ctx context.Context, stableID primitive.ObjectID, userIDs []primitive.ObjectID) (ValidationResult, error) {
	set, err := s.ActiveMemberIDs(ctx, stableID)
	if err != nil {
		return ValidationResult{}, err
	}

	res := ValidationResult{Valid: true}
	for _, id := range userIDs {
		if !set[id] {
			res.Valid = false
			res.InvalidUserIDs = append(res.InvalidUserIDs, id)
		}
	}
	return res, nil
}

// StableIDsForUser returns the IDs of every stable the user actively
// belongs to.
func (s *Store) StableIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "status": status.Active})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			StableID primitive.ObjectID `bson:"stable_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.StableID)
	}
	return ids, cur.Err()
}

// CountByStable returns the count of active memberships for a stable,
// optionally filtered by role.
func (s *Store) CountByStable(ctx context.Context, stableID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"stable_id": stableID, "status": status.Active}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

// DeleteByStable removes all memberships for a stable. Returns the
// number of documents deleted.
func (s *Store) DeleteByStable(ctx context.Context, stableID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"stable_id": stableID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
