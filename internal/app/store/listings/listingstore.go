// internal/app/store/listings/listingstore.go
package listingstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tradehub/internal/app/system/normalize"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no listing matches.
	ErrNotFound = errors.New("listing not found")
	// ErrNotOwner is returned when a mutation is attempted by someone other
	// than the seller.
	ErrNotOwner = errors.New("not the seller of this listing")
	// ErrDeleted is returned when updating a soft-deleted listing.
	ErrDeleted = errors.New("listing has been deleted")
)

// notDeleted matches listings that can still be changed.
var notDeleted = bson.M{"$ne": models.ListingDeleted}

// Store persists listings in the "listings" collection.
type Store struct {
	c *mongo.Collection
}

// New returns a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("listings")}
}

// prepare applies the stored-form rules shared by Create and Update.
func prepare(l *models.Listing) {
	l.Location.City = normalize.City(l.Location.City)
	l.CityCI = normalize.CityCI(l.Location.City)
	models.NormalizeImages(l.Images)
	l.Tags = normalize.Tags(l.Tags)
	if l.Images == nil {
		l.Images = []models.Image{}
	}
}

// Create inserts a new active listing owned by l.Seller. Views and
// favorites start empty regardless of what the caller passed.
func (s *Store) Create(ctx context.Context, l models.Listing) (models.Listing, error) {
	if l.Seller.IsZero() {
		return models.Listing{}, errors.New("listing seller is required")
	}
	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	l.Status = models.ListingActive
	l.Views = 0
	l.Favorites = []primitive.ObjectID{}
	l.CreatedAt = now
	l.UpdatedAt = now
	prepare(&l)

	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	return l, nil
}

// GetByID loads a listing in any status.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Listing, error) {
	var l models.Listing
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Listing{}, ErrNotFound
		}
		return models.Listing{}, fmt.Errorf("find listing: %w", err)
	}
	return l, nil
}

// Search returns one page of listings matching filter in sort order.
func (s *Store) Search(ctx context.Context, filter bson.M, sort bson.D, skip, limit int64) ([]models.Listing, error) {
	opts := options.Find().SetSort(sort).SetSkip(skip).SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// Count returns the number of listings matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

// Featured returns up to limit active featured listings, newest first.
func (s *Store) Featured(ctx context.Context, limit int64) ([]models.Listing, error) {
	filter := bson.M{"status": models.ListingActive, "is_featured": true}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// BySeller returns the seller's listings that are not deleted, newest first.
func (s *Store) BySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Listing, error) {
	filter := bson.M{"seller": seller, "status": notDeleted}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, filter, opts)
}

// FavoritedBy returns the non-deleted listings userID has favorited.
func (s *Store) FavoritedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Listing, error) {
	filter := bson.M{"favorites": userID, "status": notDeleted}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Listing, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Listing{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return out, nil
}

// IncrementViews atomically adds one view and returns the listing as it is
// after the increment. Deleted listings are counted too.
func (s *Store) IncrementViews(ctx context.Context, id primitive.ObjectID) (models.Listing, error) {
	var l models.Listing
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Listing{}, ErrNotFound
		}
		return models.Listing{}, fmt.Errorf("increment views: %w", err)
	}
	return l, nil
}

// Field names a caller may pass to Update.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldCondition   = "condition"
	FieldLocation    = "location"
	FieldAttributes  = "attributes"
	FieldTags        = "tags"
	FieldIsUrgent    = "isUrgent"
	FieldImages      = "images"
	FieldStatus      = "status"
)

// updateSet builds the $set document for the named fields of mut. Fields
// not named are left as stored. A category change rewrites attributes too,
// since they are validated against the category.
func updateSet(mut models.Listing, fields []string) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	for _, f := range fields {
		switch f {
		case FieldTitle:
			set["title"] = mut.Title
		case FieldDescription:
			set["description"] = mut.Description
		case FieldPrice:
			set["price"] = mut.Price
		case FieldCategory, FieldSubcategory, FieldAttributes:
			set["category"] = mut.Category
			set["subcategory"] = mut.Subcategory
			set["attributes"] = mut.Attributes
		case FieldCondition:
			set["condition"] = mut.Condition
		case FieldLocation:
			set["location"] = mut.Location
			set["city_ci"] = mut.CityCI
		case FieldTags:
			set["tags"] = mut.Tags
		case FieldIsUrgent:
			set["is_urgent"] = mut.IsUrgent
		case FieldImages:
			set["images"] = mut.Images
		case FieldStatus:
			if mut.Status == models.ListingActive || mut.Status == models.ListingSold {
				set["status"] = mut.Status
			}
		}
	}
	return set
}

// Update writes the named fields of mut to listing id and returns the
// stored result. The write only happens if seller owns the listing and it
// is not deleted. Seller, views, favorites, featured flag and created_at
// are never touched.
func (s *Store) Update(ctx context.Context, id, seller primitive.ObjectID, mut models.Listing, fields []string) (models.Listing, error) {
	prepare(&mut)

	var l models.Listing
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "seller": seller, "status": notDeleted},
		bson.M{"$set": updateSet(mut, fields)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&l)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Listing{}, fmt.Errorf("update listing: %w", err)
	}
	return models.Listing{}, s.explainMiss(ctx, id, seller)
}

// SoftDelete marks the listing deleted. Deleting an already deleted listing
// succeeds without changing it.
func (s *Store) SoftDelete(ctx context.Context, id, seller primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "seller": seller, "status": notDeleted},
		bson.M{"$set": bson.M{"status": models.ListingDeleted, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if err := s.explainMiss(ctx, id, seller); !errors.Is(err, ErrDeleted) {
		return err
	}
	return nil
}

// explainMiss works out why a guarded write on id matched nothing.
func (s *Store) explainMiss(ctx context.Context, id, seller primitive.ObjectID) error {
	var cur struct {
		Seller primitive.ObjectID `bson:"seller"`
		Status string             `bson:"status"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"seller": 1, "status": 1})).Decode(&cur)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("find listing: %w", err)
	case cur.Seller != seller:
		return ErrNotOwner
	case cur.Status == models.ListingDeleted:
		return ErrDeleted
	}
	// unreachable unless the document changed between the write and this read
	return ErrNotFound
}

// ToggleFavorite flips userID's membership in the listing's favorites and
// returns the new membership and the resulting favorites count. Deleted
// listings report ErrNotFound.
func (s *Store) ToggleFavorite(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error) {
	var doc struct {
		Favorites []primitive.ObjectID `bson:"favorites"`
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"favorites": 1})

	// Remove only if present; a miss means the user was not a member.
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": notDeleted, "favorites": userID},
		bson.M{"$pull": bson.M{"favorites": userID}},
		opts,
	).Decode(&doc)
	if err == nil {
		return false, len(doc.Favorites), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, fmt.Errorf("unfavorite listing: %w", err)
	}

	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": notDeleted},
		bson.M{"$addToSet": bson.M{"favorites": userID}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, 0, ErrNotFound
		}
		return false, 0, fmt.Errorf("favorite listing: %w", err)
	}
	return true, len(doc.Favorites), nil
}

// ImageInUse reports whether any listing, in any status, still references
// the image url.
func (s *Store) ImageInUse(ctx context.Context, url string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"images.url": url}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count image references: %w", err)
	}
	return n > 0, nil
}
