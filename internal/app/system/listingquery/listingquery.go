// Package listingquery turns listing search parameters into a MongoDB filter,
// sort and page window.
//
// Parsing never fails. Unknown sort fields fall back to createdAt, and
// numeric parameters that are malformed or negative are ignored as if they
// had not been sent. User-supplied strings only ever appear as filter values
// (the city is regexp-quoted), never as operators or field names.
package listingquery

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dalemusser/tradehub/internal/app/system/normalize"
	"github.com/dalemusser/tradehub/internal/app/system/paging"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSort is the sortBy value used when none (or an unknown one) is sent.
const DefaultSort = "createdAt"

// maxSearchLen bounds the $text search string.
const maxSearchLen = 200

// sortFields maps the public sortBy names to stored field names.
var sortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"price":     "price",
	"views":     "views",
	"title":     "title",
}

// Query is a parsed listing search.
type Query struct {
	Category    string
	Subcategory string
	City        string
	Condition   string
	Search      string
	MinPrice    *int64
	MaxPrice    *int64
	UrgentOnly  bool
	Seller      *primitive.ObjectID

	SortBy  string // public name, always a key of sortFields
	SortDir int    // 1 or -1

	Page paging.Params
}

// Parse builds a Query from URL parameters.
func Parse(q url.Values) Query {
	out := Query{
		Category:    normalize.Slug(q.Get("category")),
		Subcategory: normalize.Slug(q.Get("subcategory")),
		City:        normalize.City(q.Get("city")),
		Condition:   strings.ToLower(normalize.QueryParam(q.Get("condition"))),
		Search:      normalize.QueryParam(q.Get("search")),
		MinPrice:    nonNegative(q.Get("minPrice")),
		MaxPrice:    nonNegative(q.Get("maxPrice")),
		UrgentOnly:  strings.EqualFold(strings.TrimSpace(q.Get("isUrgent")), "true"),
		SortBy:      DefaultSort,
		SortDir:     -1,
		Page:        paging.Parse(q),
	}
	if r := []rune(out.Search); len(r) > maxSearchLen {
		out.Search = string(r[:maxSearchLen])
	}
	if s := strings.TrimSpace(q.Get("sortBy")); s != "" {
		if _, ok := sortFields[s]; ok {
			out.SortBy = s
		}
	}
	if strings.EqualFold(strings.TrimSpace(q.Get("sortOrder")), "asc") {
		out.SortDir = 1
	}
	if oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(q.Get("seller"))); err == nil {
		out.Seller = &oid
	}
	return out
}

func nonNegative(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// Filter returns the Mongo filter for q. Only active listings match.
func (q Query) Filter() bson.M {
	f := bson.M{"status": models.ListingActive}
	if q.Category != "" {
		f["category"] = q.Category
	}
	if q.Subcategory != "" {
		f["subcategory"] = q.Subcategory
	}
	if q.Condition != "" {
		f["condition"] = q.Condition
	}
	if q.City != "" {
		// city_ci is folded, so the match ignores case and diacritics
		f["city_ci"] = bson.M{"$regex": regexp.QuoteMeta(normalize.CityCI(q.City))}
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		f["price"] = price
	}
	if q.Search != "" {
		f["$text"] = bson.M{"$search": q.Search}
	}
	if q.UrgentOnly {
		f["is_urgent"] = true
	}
	if q.Seller != nil {
		f["seller"] = *q.Seller
	}
	return f
}

// Sort returns the sort document: the chosen field, then _id in the same
// direction so that equal keys page deterministically.
func (q Query) Sort() bson.D {
	field, ok := sortFields[q.SortBy]
	if !ok {
		field = sortFields[DefaultSort]
	}
	dir := q.SortDir
	if dir != 1 {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}
