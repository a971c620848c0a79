package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/tradehub/internal/app/system/normalize"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "secret123"

var testPasswordHash []byte

func passwordHash(t *testing.T) string {
	t.Helper()
	if testPasswordHash == nil {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash test password: %v", err)
		}
		testPasswordHash = h
	}
	return string(testPasswordHash)
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user whose password is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     normalize.Username(username),
		UsernameCI:   normalize.UsernameCI(username),
		Email:        normalize.Email(email),
		PasswordHash: passwordHash(f.t),
		Phone:        "555-0100",
		Location:     models.Location{City: "Test City", Country: "US"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// ListingOption adjusts a fixture listing before it is inserted.
type ListingOption func(*models.Listing)

// WithPrice sets the price.
func WithPrice(p int64) ListingOption { return func(l *models.Listing) { l.Price = p } }

// WithCategory sets category and subcategory.
func WithCategory(cat, sub string) ListingOption {
	return func(l *models.Listing) { l.Category, l.Subcategory = cat, sub }
}

// WithCity sets the listing city.
func WithCity(city string) ListingOption {
	return func(l *models.Listing) {
		l.Location.City = normalize.City(city)
		l.CityCI = normalize.CityCI(city)
	}
}

// WithStatus sets the status (active, sold, deleted).
func WithStatus(s string) ListingOption { return func(l *models.Listing) { l.Status = s } }

// Featured marks the listing featured.
func Featured() ListingOption { return func(l *models.Listing) { l.IsFeatured = true } }

// Urgent marks the listing urgent.
func Urgent() ListingOption { return func(l *models.Listing) { l.IsUrgent = true } }

// CreatedAt overrides the creation time.
func CreatedAt(ts time.Time) ListingOption {
	return func(l *models.Listing) { l.CreatedAt, l.UpdatedAt = ts, ts }
}

// WithImages sets the images, marking the first one primary.
func WithImages(urls ...string) ListingOption {
	return func(l *models.Listing) {
		imgs := make([]models.Image, 0, len(urls))
		for _, u := range urls {
			imgs = append(imgs, models.Image{URL: u})
		}
		models.NormalizeImages(imgs)
		l.Images = imgs
	}
}

// CreateListing inserts an active listing sold by seller.
func (f *Fixtures) CreateListing(ctx context.Context, seller primitive.ObjectID, title string, opts ...ListingOption) models.Listing {
	f.t.Helper()

	now := time.Now().UTC()
	l := models.Listing{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: "Test description for " + title,
		Price:       1000,
		Category:    "electronics",
		Condition:   "used",
		Location:    models.ListingLocation{City: "Test City"},
		CityCI:      normalize.CityCI("Test City"),
		Images:      []models.Image{},
		Seller:      seller,
		Status:      models.ListingActive,
		Favorites:   []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(&l)
	}

	if _, err := f.db.Collection("listings").InsertOne(ctx, l); err != nil {
		f.t.Fatalf("failed to create test listing: %v", err)
	}
	return l
}

// CreateCategory inserts a category with one "brand" text attribute and a
// "phones" subcategory that requires a "storage" select attribute.
func (f *Fixtures) CreateCategory(ctx context.Context, name, slug string, sortOrder int) models.Category {
	f.t.Helper()

	c := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Slug:      slug,
		SortOrder: sortOrder,
		Attributes: []models.AttributeDef{
			{Name: "brand", Label: "Brand", Type: models.AttrText},
		},
		Subcategories: []models.Subcategory{
			{
				Name: "Phones",
				Slug: "phones",
				Attributes: []models.AttributeDef{
					{Name: "storage", Label: "Storage", Type: models.AttrSelect, Options: []string{"64GB", "128GB"}, Required: true},
				},
			},
		},
	}

	if _, err := f.db.Collection("categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

// CreateMessage inserts a message about listing from sender to receiver.
func (f *Fixtures) CreateMessage(ctx context.Context, listing, sender, receiver primitive.ObjectID, content string) models.Message {
	f.t.Helper()

	m := models.Message{
		ID:        primitive.NewObjectID(),
		Listing:   listing,
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}
