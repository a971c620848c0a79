// internal/domain/models/category.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attribute types understood by catalog validation.
const (
	AttrText    = "text"
	AttrNumber  = "number"
	AttrSelect  = "select"
	AttrBoolean = "boolean"
)

// AttributeDef describes one key a listing's attribute bag may carry.
type AttributeDef struct {
	Name     string   `bson:"name" json:"name" yaml:"name"`
	Label    string   `bson:"label,omitempty" json:"label,omitempty" yaml:"label"`
	Type     string   `bson:"type" json:"type" yaml:"type"`
	Options  []string `bson:"options,omitempty" json:"options,omitempty" yaml:"options"`
	Required bool     `bson:"required" json:"required" yaml:"required"`
}

// Subcategory narrows a category and may add its own attributes.
type Subcategory struct {
	Name       string         `bson:"name" json:"name" yaml:"name"`
	Slug       string         `bson:"slug" json:"slug" yaml:"slug"`
	Attributes []AttributeDef `bson:"attributes,omitempty" json:"attributes,omitempty" yaml:"attributes"`
}

// Category is a schema-of-schemas: it says which attributes listings filed
// under it are expected to carry.
type Category struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id" yaml:"-"`
	Name          string             `bson:"name" json:"name" yaml:"name"`
	Slug          string             `bson:"slug" json:"slug" yaml:"slug"`
	Icon          string             `bson:"icon,omitempty" json:"icon,omitempty" yaml:"icon"`
	SortOrder     int                `bson:"sort_order" json:"sortOrder" yaml:"sort_order"`
	Attributes    []AttributeDef     `bson:"attributes,omitempty" json:"attributes,omitempty" yaml:"attributes"`
	Subcategories []Subcategory      `bson:"subcategories,omitempty" json:"subcategories,omitempty" yaml:"subcategories"`
}

// Subcategory looks up a subcategory by slug.
func (c Category) Subcategory(slug string) (Subcategory, bool) {
	for _, s := range c.Subcategories {
		if s.Slug == slug {
			return s, true
		}
	}
	return Subcategory{}, false
}
