// Package inputval validates user input: struct-level validation through
// `validate` tags plus a few standalone checks.
//
// Struct fields are reported under their json name and described with their
// `label` tag:
//
//	type registerInput struct {
//	    Username string `json:"username" validate:"required,username" label:"Username"`
//	    Password string `json:"password" validate:"required,min=6" label:"Password"`
//	}
package inputval

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 6

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return IsValidUsername(fl.Field().String())
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || IsValidObjectID(s)
		})
	})
	return v
}

// FieldError is one failed field.
type FieldError struct {
	Field   string // json name
	Message string
}

// Result collects validation failures in field order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any field failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure message, or "".
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every failure message with "; ".
func (r Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each failed field to its first message.
func (r Result) Fields() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	m := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

// Add appends a failure. Used for checks that do not fit a tag.
func (r *Result) Add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// Validate runs the `validate` tags on s, which must be a struct or pointer
// to struct.
func Validate(s any) Result {
	var res Result
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Add("", "Invalid input.")
		return res
	}
	for _, fe := range verrs {
		res.Add(fe.Field(), message(s, fe))
	}
	return res
}

func message(s any, fe validator.FieldError) string {
	label := labelFor(s, fe.StructField())
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "A valid email address is required."
	case "username":
		return label + " must be 3-30 letters, digits, '_', '.' or '-'."
	case "objectid":
		return label + " is not a valid id."
	default:
		return label + " is invalid."
	}
}

func labelFor(s any, field string) string {
	t := reflect.TypeOf(s)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(field); ok {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
		}
	}
	return field
}

// IsValidUsername reports whether s is 3-30 characters of letters, digits,
// underscore, dot or hyphen.
func IsValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// IsValidEmail performs a structural check of a bare address (no display
// name). Single-label domains are accepted.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return validDotAtoms(s[:at]) && validDotAtoms(s[at+1:])
}

func validDotAtoms(s string) bool {
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return !strings.Contains(s, "@")
}

// IsValidObjectID reports whether s (trimmed) is a 24-char hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
