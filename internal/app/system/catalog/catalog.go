// Package catalog checks a listing's attribute bag against the attribute
// definitions of its category and subcategory.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dalemusser/tradehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tradehub/internal/domain/models"
)

// maxTextLen bounds free-text attribute values.
const maxTextLen = 200

// Options controls validation strictness.
type Options struct {
	// EnforceRequired rejects listings missing a required attribute.
	EnforceRequired bool
}

// Definitions returns the attribute definitions that apply to a listing in
// cat and (optionally) subcategory sub. ok is false if sub is set but unknown.
func Definitions(cat models.Category, sub string) (defs []models.AttributeDef, ok bool) {
	defs = append(defs, cat.Attributes...)
	if sub == "" {
		return defs, true
	}
	s, found := cat.Subcategory(sub)
	if !found {
		return nil, false
	}
	return append(defs, s.Attributes...), true
}

// Validate checks attrs against the definitions for cat/sub and returns a
// cleaned copy. Values are coerced to their declared type (multipart forms
// deliver everything as strings). Keys without a definition are kept, with
// string values stripped of markup.
//
// fields maps an attribute name (or "subcategory") to a message. A non-empty
// fields means the input is rejected.
func Validate(cat models.Category, sub string, attrs map[string]any, opts Options) (clean map[string]any, fields map[string]string) {
	fields = map[string]string{}
	clean = make(map[string]any, len(attrs))

	defs, ok := Definitions(cat, sub)
	if !ok {
		fields["subcategory"] = fmt.Sprintf("Unknown subcategory %q for category %q.", sub, cat.Slug)
		return nil, fields
	}

	known := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		known[d.Name] = struct{}{}
		raw, present := attrs[d.Name]
		if !present || isBlank(raw) {
			if d.Required && opts.EnforceRequired {
				fields[d.Name] = label(d) + " is required."
			}
			continue
		}
		v, msg := coerce(d, raw)
		if msg != "" {
			fields[d.Name] = msg
			continue
		}
		clean[d.Name] = v
	}

	for k, raw := range attrs {
		if _, ok := known[k]; ok {
			continue
		}
		if s, isStr := raw.(string); isStr {
			clean[k] = htmlsanitize.StripTags(s)
			continue
		}
		clean[k] = raw
	}

	if len(fields) > 0 {
		return nil, fields
	}
	return clean, nil
}

func label(d models.AttributeDef) string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func coerce(d models.AttributeDef, raw any) (any, string) {
	switch d.Type {
	case models.AttrNumber:
		f, ok := toFloat(raw)
		if !ok {
			return nil, label(d) + " must be a number."
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), ""
		}
		return f, ""

	case models.AttrBoolean:
		switch v := raw.(type) {
		case bool:
			return v, ""
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err == nil {
				return b, ""
			}
		}
		return nil, label(d) + " must be true or false."

	case models.AttrSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, label(d) + " must be one of: " + strings.Join(d.Options, ", ") + "."
		}
		s = strings.TrimSpace(s)
		for _, opt := range d.Options {
			if strings.EqualFold(opt, s) {
				return opt, ""
			}
		}
		return nil, label(d) + " must be one of: " + strings.Join(d.Options, ", ") + "."

	default: // text
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case float64, int, int64, bool, json.Number:
			s = fmt.Sprint(v)
		default:
			return nil, label(d) + " must be text."
		}
		s = htmlsanitize.StripTags(s)
		if len([]rune(s)) > maxTextLen {
			return nil, fmt.Sprintf("%s must be at most %d characters.", label(d), maxTextLen)
		}
		return s, ""
	}
}

func toFloat(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
