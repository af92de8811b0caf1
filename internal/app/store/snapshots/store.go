// internal/app/store/snapshots/store.go
package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one cached entity persisted between restarts.
type Record struct {
	ID      string    `bson:"_id"`
	Kind    string    `bson:"kind"`
	UID     string    `bson:"uid"`
	Data    string    `bson:"data"`
	SavedAt time.Time `bson:"saved_at"`
}

// Store persists entity cache snapshots in MongoDB, one document per
// entity.
type Store struct {
	c *mongo.Collection

	mu   sync.Mutex
	last time.Time
}

// New creates a snapshot Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cache_snapshots")}
}

// EnsureIndexes creates the kind index used by Load.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "uid", Value: 1}},
		Options: options.Index().SetName("idx_snapshot_kind_uid"),
	})
	return err
}

// Save writes snap, keyed by kind, and removes records not part of it.
// It returns the number of records written.
func (s *Store) Save(ctx context.Context, snap map[string][]json.RawMessage) (int, error) {
	now := s.stamp()

	var models []mongo.WriteModel
	for kind, items := range snap {
		for _, raw := range items {
			var head struct {
				UID string `json:"uid"`
			}
			if err := json.Unmarshal(raw, &head); err != nil || head.UID == "" {
				return 0, fmt.Errorf("snapshot %s: record without uid", kind)
			}
			rec := Record{
				ID:      kind + ":" + head.UID,
				Kind:    kind,
				UID:     head.UID,
				Data:    string(raw),
				SavedAt: now,
			}
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": rec.ID}).
				SetReplacement(rec).
				SetUpsert(true))
		}
	}

	if len(models) > 0 {
		if _, err := s.c.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return 0, fmt.Errorf("write snapshot: %w", err)
		}
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"saved_at": bson.M{"$lt": now}}); err != nil {
		return len(models), fmt.Errorf("prune snapshot: %w", err)
	}
	return len(models), nil
}

// stamp returns a save time strictly after the previous one at the
// millisecond precision Mongo stores.
func (s *Store) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Millisecond)
	}
	s.last = now
	return now
}

// Load reads the last saved snapshot, keyed by kind.
func (s *Store) Load(ctx context.Context) (map[string][]json.RawMessage, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "kind", Value: 1}, {Key: "uid", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string][]json.RawMessage{}
	for cur.Next(ctx) {
		var rec Record
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out[rec.Kind] = append(out[rec.Kind], json.RawMessage(rec.Data))
	}
	return out, cur.Err()
}
