package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/tradehub/internal/app/system/indexes"
	"github.com/dalemusser/tradehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"users":        {"uniq_users_email", "uniq_users_usernameci"},
		"listings":     {"text_listings_title_description", "idx_listings_status_created", "idx_listings_seller_created", "idx_listings_favorites", "idx_listings_image_url"},
		"categories":   {"uniq_categories_slug", "uniq_categories_name"},
		"messages":     {"idx_messages_receiver_created", "idx_messages_listing_created"},
		"audit_events": {"idx_audit_user_time", "idx_audit_listing_time"},
	}
	for coll, names := range want {
		got := indexNames(t, ctx, db, coll)
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesIndexWithSameKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("listings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "favorites", Value: 1}},
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	got := indexNames(t, ctx, db, "listings")
	if !got["idx_listings_favorites"] || got["favorites_1"] {
		t.Errorf("expected favorites_1 to be replaced, got %v", got)
	}
}

func TestEnsureAll_UniqueEmailEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"email": "a@example.com", "username_ci": "a"}); err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}
	if _, err := users.InsertOne(ctx, bson.M{"email": "a@example.com", "username_ci": "b"}); err == nil {
		t.Error("expected duplicate key error on users.email")
	}
	if _, err := users.InsertOne(ctx, bson.M{"email": "c@example.com", "username_ci": "a"}); err == nil {
		t.Error("expected duplicate key error on users.username_ci")
	}
}

func TestEnsureAll_ReportsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cats := db.Collection("categories")
	for i := 0; i < 2; i++ {
		if _, err := cats.InsertOne(ctx, bson.M{"slug": "vehicles", "name": i}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Fatal("expected EnsureAll to report duplicate slugs")
	}
}
