// internal/app/store/logins/loginstore.go
package logins

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/copilot/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds one document per successful sign-in.
const Collection = "login_records"

// Retention is how long sign-in records are kept.
const Retention = 90 * 24 * time.Hour

// Record is one successful sign-in.
type Record struct {
	UserID    string    `bson:"user_id" json:"-"`
	IP        string    `bson:"ip" json:"ip"`
	UserAgent string    `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// EnsureIndexes creates the per-user listing index and the TTL index that
// expires records after Retention.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_user_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("ttl_login_created").SetExpireAfterSeconds(int32(Retention.Seconds())),
		},
	})
	return err
}

// Create inserts a Record. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom records a sign-in by userID from the request's client.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, userID string) error {
	return s.Create(ctx, Record{
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// Recent returns the user's latest sign-ins, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int64) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Record{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
