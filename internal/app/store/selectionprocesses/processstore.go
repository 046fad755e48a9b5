// internal/app/store/selectionprocesses/processstore.go
package processstore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("selection_processes")}
}

// ErrOpenProcessExists is returned by Create when the stable already
// has a process in a non-terminal status (draft or active). Guarding on
// non-terminal rather than just active is what keeps the one-active-per-
// stable invariant intact through Start, which only validates draft
// status. The guard is a read-then-insert check, not a unique index, so
// two concurrent creates can still slip through; callers treat it as
// best-effort.
var ErrOpenProcessExists = errors.New("stable already has an open selection process")

// Create inserts a new process after checking the open-process guard.
// The caller is expected to have filled in turns, status, and audit
// fields.
func (s *Store) Create(ctx context.Context, p *models.SelectionProcess) error {
	existing, err := s.GetOpenForStable(ctx, p.StableID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrOpenProcessExists
	}

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err = s.c.InsertOne(ctx, p)
	return err
}

// GetByID fetches one process. Returns mongo.ErrNoDocuments when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SelectionProcess, error) {
	var p models.SelectionProcess
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetActiveForStable returns the stable's active process, or nil when
// there is none.
func (s *Store) GetActiveForStable(ctx context.Context, stableID primitive.ObjectID) (*models.SelectionProcess, error) {
	return s.findOneForStable(ctx, stableID, bson.M{"status": models.ProcessActive})
}

// GetOpenForStable returns the stable's non-terminal (draft or active)
// process, or nil when there is none.
func (s *Store) GetOpenForStable(ctx context.Context, stableID primitive.ObjectID) (*models.SelectionProcess, error) {
	return s.findOneForStable(ctx, stableID, bson.M{
		"status": bson.M{"$in": []string{models.ProcessDraft, models.ProcessActive}},
	})
}

func (s *Store) findOneForStable(ctx context.Context, stableID primitive.ObjectID, filter bson.M) (*models.SelectionProcess, error) {
	filter["stable_id"] = stableID
	var p models.SelectionProcess
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListByStable returns processes for a stable, newest first, optionally
// filtered by status, with the total count before paging.
func (s *Store) ListByStable(ctx context.Context, stableID primitive.ObjectID, statusFilter string, limit, offset int64) ([]models.SelectionProcess, int64, error) {
	filter := bson.M{"stable_id": stableID}
	if statusFilter != "" {
		filter["status"] = statusFilter
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var processes []models.SelectionProcess
	if err := cur.All(ctx, &processes); err != nil {
		return nil, 0, err
	}
	return processes, total, nil
}

// Replace overwrites the stored document with p and bumps updated_at.
// State transitions re-read the document inside a transaction before
// calling this, so the write is a plain replace rather than a
// field-level patch.
func (s *Store) Replace(ctx context.Context, p *models.SelectionProcess) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// PeriodUpdate carries the fields an active-process dates adjustment
// may touch. Quota fields are only written when Algorithm is
// quota_based.
type PeriodUpdate struct {
	SelectionStartDate   time.Time
	SelectionEndDate     time.Time
	Algorithm            string
	QuotaPerMember       float64
	TotalAvailablePoints float64
	UpdatedBy            primitive.ObjectID
}

// UpdatePeriod patches the selection period fields with $set and leaves
// the turn state untouched, so a turn completed between the caller's
// read and this write is never rolled back.
func (s *Store) UpdatePeriod(ctx context.Context, id primitive.ObjectID, u PeriodUpdate) error {
	set := bson.M{
		"selection_start_date": u.SelectionStartDate,
		"selection_end_date":   u.SelectionEndDate,
		"updated_at":           time.Now().UTC(),
		"updated_by":           u.UpdatedBy,
	}
	if u.Algorithm == models.AlgorithmQuotaBased {
		set["quota_per_member"] = u.QuotaPerMember
		set["total_available_points"] = u.TotalAvailablePoints
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": models.ProcessActive},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the process document itself. Subcollection cleanup
// (selections) is composed by the caller inside a transaction.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountByStatus returns per-status process counts for a stable. Used by
// the stable detail view.
func (s *Store) CountByStatus(ctx context.Context, stableID primitive.ObjectID) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"stable_id": stableID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
			N  int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.N
	}
	return counts, cur.Err()
}
