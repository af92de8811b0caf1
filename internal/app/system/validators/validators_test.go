package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/copilot/internal/app/system/validators"
	"github.com/dalemusser/copilot/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{validators.TokensCollection, validators.SnapshotsCollection} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestTokensValidator_RejectsUnknownName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection(validators.TokensCollection).InsertOne(ctx, bson.M{
		"_id":        "User_1:mystery",
		"user_id":    "User_1",
		"name":       "mystery",
		"sealed":     []byte{1, 2, 3},
		"updated_at": time.Now(),
	})
	if err == nil {
		t.Error("expected document with unknown token name to be rejected")
	}
}

func TestSnapshotsValidator_AcceptsRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection(validators.SnapshotsCollection).InsertOne(ctx, bson.M{
		"_id":      "team:Team_1",
		"kind":     "team",
		"uid":      "Team_1",
		"data":     `{"uid":"Team_1"}`,
		"saved_at": time.Now(),
	})
	if err != nil {
		t.Errorf("valid snapshot rejected: %v", err)
	}
}
