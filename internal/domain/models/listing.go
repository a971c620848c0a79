// internal/domain/models/listing.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing statuses. "deleted" is a soft delete and is terminal.
const (
	ListingActive  = "active"
	ListingSold    = "sold"
	ListingDeleted = "deleted"
)

// Listing conditions accepted on create/update. Empty means unspecified.
var ListingConditions = []string{"new", "used", "refurbished"}

// Coordinates is an optional map position for a listing.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// ListingLocation extends Location with optional coordinates.
type ListingLocation struct {
	City        string       `bson:"city" json:"city"`
	State       string       `bson:"state,omitempty" json:"state,omitempty"`
	Country     string       `bson:"country,omitempty" json:"country,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// Image is one picture attached to a listing. At most one image per listing
// has IsPrimary set.
type Image struct {
	URL       string `bson:"url" json:"url"`
	Alt       string `bson:"alt,omitempty" json:"alt,omitempty"`
	IsPrimary bool   `bson:"is_primary" json:"isPrimary"`
}

// Listing is a single classified ad.
//
// Attributes is the category-specific attribute bag (brand, year, kmDriven...).
// Its expected keys are described by the Category's AttributeDefs and are
// checked by catalog.Validate before writes.
type Listing struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Price       int64                `bson:"price" json:"price"` // smallest currency unit
	Category    string               `bson:"category" json:"category"`
	Subcategory string               `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Condition   string               `bson:"condition,omitempty" json:"condition,omitempty"`
	Location    ListingLocation      `bson:"location" json:"location"`
	CityCI      string               `bson:"city_ci" json:"-"`
	Images      []Image              `bson:"images" json:"images"`
	Attributes  map[string]any       `bson:"attributes,omitempty" json:"attributes,omitempty"`
	Seller      primitive.ObjectID   `bson:"seller" json:"seller"`
	IsFeatured  bool                 `bson:"is_featured" json:"isFeatured"`
	IsUrgent    bool                 `bson:"is_urgent" json:"isUrgent"`
	Status      string               `bson:"status" json:"status"`
	Views       int64                `bson:"views" json:"views"`
	Favorites   []primitive.ObjectID `bson:"favorites" json:"favorites"`
	Tags        []string             `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsFavoritedBy reports whether userID is in the listing's favorites set.
func (l Listing) IsFavoritedBy(userID primitive.ObjectID) bool {
	for _, id := range l.Favorites {
		if id == userID {
			return true
		}
	}
	return false
}

// PrimaryImage returns the image flagged primary, or the first image, or nil.
func (l Listing) PrimaryImage() *Image {
	for i := range l.Images {
		if l.Images[i].IsPrimary {
			return &l.Images[i]
		}
	}
	if len(l.Images) > 0 {
		return &l.Images[0]
	}
	return nil
}

// NormalizeImages enforces the single-primary rule in place: the first image
// flagged primary wins, and if none is flagged the first image becomes primary.
func NormalizeImages(images []Image) {
	primary := -1
	for i := range images {
		if images[i].IsPrimary && primary < 0 {
			primary = i
			continue
		}
		images[i].IsPrimary = false
	}
	if primary < 0 && len(images) > 0 {
		images[0].IsPrimary = true
	}
}
