// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth      = "auth"
	CategoryAdmin     = "admin"
	CategorySelection = "selection"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLogout                   = "logout"
)

// Admin event types
const (
	EventOrgCreated        = "org_created"
	EventOrgModulesChanged = "org_modules_changed"
	EventStableCreated     = "stable_created"
	EventStableDeleted     = "stable_deleted"
	EventMemberAdded       = "member_added_to_stable"
	EventMemberRemoved     = "member_removed_from_stable"
)

// Selection event types, one per state-machine operation.
const (
	EventProcessCreated   = "process_created"
	EventProcessUpdated   = "process_updated"
	EventProcessStarted   = "process_started"
	EventProcessCompleted = "process_completed"
	EventProcessCancelled = "process_cancelled"
	EventProcessDeleted   = "process_deleted"
	EventTurnCompleted    = "turn_completed"
)

// Event represents an audit event.
type Event struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	Timestamp      time.Time           `bson:"timestamp"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty"`
	StableID       *primitive.ObjectID `bson:"stable_id,omitempty"`
	ProcessID      *primitive.ObjectID `bson:"process_id,omitempty"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who: the affected user and, for admin/selection actions, who did it.
	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	OrganizationID *primitive.ObjectID
	StableID       *primitive.ObjectID
	ProcessID      *primitive.ObjectID
	UserID         *primitive.ObjectID
	Category       string
	EventType      string
	StartTime      *time.Time
	EndTime        *time.Time
	Limit          int64
	Offset         int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates the indexes the query paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "process_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) query() bson.M {
	query := bson.M{}
	if f.OrganizationID != nil {
		query["organization_id"] = f.OrganizationID
	}
	if f.StableID != nil {
		query["stable_id"] = f.StableID
	}
	if f.ProcessID != nil {
		query["process_id"] = f.ProcessID
	}
	if f.UserID != nil {
		query["user_id"] = f.UserID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

// GetByProcess retrieves recent audit events for one selection process.
func (s *Store) GetByProcess(ctx context.Context, processID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{ProcessID: &processID, Limit: limit})
}

// DeleteOlderThan removes events with a timestamp before cutoff.
// The retention worker calls this on a schedule.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
