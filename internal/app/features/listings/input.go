// internal/app/features/listings/input.go
package listings

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tradehub/internal/app/system/inputval"
	"github.com/dalemusser/tradehub/internal/app/system/normalize"
	"github.com/dalemusser/tradehub/internal/domain/models"
)

// listingBody is the writable part of a listing as a client sends it. Nil
// fields were not sent; on update they leave the stored value alone.
type listingBody struct {
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Price       *int64                  `json:"price"`
	Category    *string                 `json:"category"`
	Subcategory *string                 `json:"subcategory"`
	Condition   *string                 `json:"condition"`
	Location    *models.ListingLocation `json:"location"`
	Attributes  map[string]any          `json:"attributes"`
	Tags        tagList                 `json:"tags"`
	IsUrgent    *bool                   `json:"isUrgent"`
	Images      *[]models.Image         `json:"images"`
	Status      *string                 `json:"status"`
}

// tagList accepts either a JSON array of strings or one comma-separated
// string.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*t = tagList{one}
		if one == "" {
			*t = tagList{}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*t = many
	if *t == nil {
		*t = tagList{}
	}
	return nil
}

// apply copies the sent fields of b onto l.
func (b listingBody) apply(l *models.Listing) {
	if b.Title != nil {
		l.Title = htmlsanitize.StripTags(*b.Title)
	}
	if b.Description != nil {
		l.Description = htmlsanitize.StripTags(*b.Description)
	}
	if b.Price != nil {
		l.Price = *b.Price
	}
	if b.Category != nil {
		l.Category = strings.ToLower(strings.TrimSpace(*b.Category))
	}
	if b.Subcategory != nil {
		l.Subcategory = strings.ToLower(strings.TrimSpace(*b.Subcategory))
	}
	if b.Condition != nil {
		l.Condition = strings.ToLower(strings.TrimSpace(*b.Condition))
	}
	if b.Location != nil {
		loc := *b.Location
		loc.City = htmlsanitize.StripTags(loc.City)
		loc.State = htmlsanitize.StripTags(loc.State)
		loc.Country = htmlsanitize.StripTags(loc.Country)
		l.Location = loc
	}
	if b.Attributes != nil {
		l.Attributes = b.Attributes
	}
	if b.Tags != nil {
		tags := make([]string, len(b.Tags))
		for i, t := range b.Tags {
			tags[i] = htmlsanitize.StripTags(t)
		}
		l.Tags = tags
	}
	if b.IsUrgent != nil {
		l.IsUrgent = *b.IsUrgent
	}
	if b.Images != nil {
		imgs := make([]models.Image, len(*b.Images))
		for i, img := range *b.Images {
			img.URL = strings.TrimSpace(img.URL)
			img.Alt = htmlsanitize.StripTags(img.Alt)
			imgs[i] = img
		}
		l.Images = imgs
	}
	if b.Status != nil {
		l.Status = strings.ToLower(strings.TrimSpace(*b.Status))
	}
}

// listingRules are the field checks every stored listing must pass.
type listingRules struct {
	Title       string `json:"title" validate:"required,max=100" label:"Title"`
	Description string `json:"description" validate:"max=5000" label:"Description"`
	Price       int64  `json:"price" validate:"gt=0" label:"Price"`
	Category    string `json:"category" validate:"required" label:"Category"`
	Condition   string `json:"condition" validate:"omitempty,oneof=new used refurbished" label:"Condition"`
	Status      string `json:"status" validate:"omitempty,oneof=active sold" label:"Status"`
	Tags        int    `json:"tags" validate:"max=20" label:"Number of tags"`
}

// check validates the scalar fields of l. Category attributes are checked
// separately against the category definition.
func check(l models.Listing) inputval.Result {
	res := inputval.Validate(listingRules{
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Condition:   l.Condition,
		Status:      l.Status,
		Tags:        len(normalize.Tags(l.Tags)),
	})
	if strings.TrimSpace(l.Location.City) == "" {
		res.Add("location.city", "City is required.")
	}
	return res
}

// badFields turns a field→message map into a 400, leading with the message
// of the alphabetically first field so the summary is stable.
func badFields(fields map[string]string) *apierr.Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return apierr.BadRequest(fields[keys[0]], fields)
}

// isWebURL reports whether s is an absolute http(s) URL.
func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// decodeForm reads a multipart create request. Text fields map onto
// listingBody; files under "images" are returned unsaved.
func decodeForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (listingBody, []*multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return listingBody{}, nil, apierr.TooLarge("request body too large")
		}
		return listingBody{}, nil, apierr.BadRequest("invalid multipart form", nil)
	}
	form := r.MultipartForm

	var b listingBody
	str := func(key string) *string {
		vs, ok := form.Value[key]
		if !ok || len(vs) == 0 {
			return nil
		}
		s := vs[0]
		return &s
	}
	fields := map[string]string{}

	b.Title = str("title")
	b.Description = str("description")
	b.Category = str("category")
	b.Subcategory = str("subcategory")
	b.Condition = str("condition")

	if s := str("price"); s != nil {
		n, err := strconv.ParseInt(strings.TrimSpace(*s), 10, 64)
		if err != nil {
			fields["price"] = "Price must be a whole number."
		} else {
			b.Price = &n
		}
	}

	if s := str("location"); s != nil && strings.TrimSpace(*s) != "" {
		var loc models.ListingLocation
		if err := json.Unmarshal([]byte(*s), &loc); err != nil {
			fields["location"] = "Location must be a JSON object."
		} else {
			b.Location = &loc
		}
	} else if city := str("city"); city != nil {
		loc := models.ListingLocation{City: *city}
		if s := str("state"); s != nil {
			loc.State = *s
		}
		if s := str("country"); s != nil {
			loc.Country = *s
		}
		b.Location = &loc
	}

	if s := str("attributes"); s != nil && strings.TrimSpace(*s) != "" {
		var attrs map[string]any
		if err := json.Unmarshal([]byte(*s), &attrs); err != nil {
			fields["attributes"] = "Attributes must be a JSON object."
		} else {
			b.Attributes = attrs
		}
	}

	if vs, ok := form.Value["tags"]; ok {
		b.Tags = tagList(vs)
	}

	if s := str("isUrgent"); s != nil && strings.TrimSpace(*s) != "" {
		v, err := strconv.ParseBool(strings.TrimSpace(*s))
		if err != nil {
			fields["isUrgent"] = "isUrgent must be true or false."
		} else {
			b.IsUrgent = &v
		}
	}

	if len(fields) > 0 {
		return listingBody{}, nil, badFields(fields)
	}
	return b, form.File["images"], nil
}
