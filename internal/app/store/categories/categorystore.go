// internal/app/store/categories/categorystore.go
package categorystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/tradehub/internal/app/system/normalize"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no category has the requested slug.
	ErrNotFound = errors.New("category not found")
	// ErrDuplicate is returned when a category name or slug already exists.
	ErrDuplicate = errors.New("a category with this name or slug already exists")
)

// Store persists documents in the "categories" collection.
type Store struct {
	c *mongo.Collection
}

// New returns a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("categories")}
}

// List returns every category ordered by sort_order, then name.
func (s *Store) List(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Category{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

// GetBySlug loads one category.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Category, error) {
	var c models.Category
	if err := s.c.FindOne(ctx, bson.M{"slug": normalize.Slug(slug)}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Category{}, ErrNotFound
		}
		return models.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// Count returns the number of stored categories.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// InsertMany stores cats, assigning ids and normalizing slugs.
func (s *Store) InsertMany(ctx context.Context, cats []models.Category) error {
	if len(cats) == 0 {
		return nil
	}
	docs := make([]any, 0, len(cats))
	for _, c := range cats {
		c.ID = primitive.NewObjectID()
		c.Slug = normalize.Slug(c.Slug)
		subs := make([]models.Subcategory, len(c.Subcategories))
		for i, sub := range c.Subcategories {
			sub.Slug = normalize.Slug(sub.Slug)
			subs[i] = sub
		}
		c.Subcategories = subs
		docs = append(docs, c)
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		// InsertMany fails with a BulkWriteException, which IsDuplicateKeyError unwraps
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert categories: %w", err)
	}
	return nil
}

// SeedIfEmpty inserts cats only when the collection has no categories.
// It reports whether anything was inserted.
func (s *Store) SeedIfEmpty(ctx context.Context, cats []models.Category) (bool, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := s.InsertMany(ctx, cats); err != nil {
		return false, err
	}
	return true, nil
}
