// internal/app/resources/resources.go
package resources

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/dalemusser/tradehub/internal/domain/models"
	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// DefaultCategories returns the embedded category catalog.
func DefaultCategories() ([]models.Category, error) {
	return ParseCategories(categoriesYAML)
}

// ParseCategories decodes a YAML category list. Unknown keys are rejected so
// that typos in a catalog do not silently drop attributes.
func ParseCategories(data []byte) ([]models.Category, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cats []models.Category
	if err := dec.Decode(&cats); err != nil {
		return nil, fmt.Errorf("parse category catalog: %w", err)
	}
	if err := check(cats); err != nil {
		return nil, err
	}
	return cats, nil
}

var attrTypes = map[string]bool{
	models.AttrText:    true,
	models.AttrNumber:  true,
	models.AttrSelect:  true,
	models.AttrBoolean: true,
}

func check(cats []models.Category) error {
	slugs := map[string]bool{}
	for _, c := range cats {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
			return fmt.Errorf("category catalog: category %q needs a name and slug", c.Name)
		}
		if slugs[c.Slug] {
			return fmt.Errorf("category catalog: duplicate slug %q", c.Slug)
		}
		slugs[c.Slug] = true

		if err := checkAttrs(c.Slug, c.Attributes); err != nil {
			return err
		}
		subs := map[string]bool{}
		for _, s := range c.Subcategories {
			if s.Slug == "" || subs[s.Slug] {
				return fmt.Errorf("category catalog: %s has an empty or duplicate subcategory slug %q", c.Slug, s.Slug)
			}
			subs[s.Slug] = true
			if err := checkAttrs(c.Slug+"/"+s.Slug, s.Attributes); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkAttrs(where string, defs []models.AttributeDef) error {
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("category catalog: %s has an attribute without a name", where)
		}
		if !attrTypes[d.Type] {
			return fmt.Errorf("category catalog: %s.%s has unknown type %q", where, d.Name, d.Type)
		}
		if d.Type == models.AttrSelect && len(d.Options) == 0 {
			return fmt.Errorf("category catalog: %s.%s is a select without options", where, d.Name)
		}
	}
	return nil
}
