// Package validation checks user input before it is sent to the backend.
//
// Struct fields are described with `validate` tags understood by
// go-playground/validator. Besides the built-in rules, two shop-specific
// rules are registered: "phone" for Thai phone numbers and "tracking" for
// carrier tracking numbers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/storefront/internal/domain"
)

const (
	TrackingMinLength = 8
	TrackingMaxLength = 30
)

//nolint:gochecknoglobals
var (
	phonePattern    = regexp.MustCompile(`^0[0-9]{8,9}$`)
	trackingPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

	instance *validator.Validate
	once     sync.Once
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

func (e FieldError) Error() string {
	switch e.Rule {
	case "required":
		return e.Field + " is required"
	case "phone":
		return e.Field + " must be a 9 or 10 digit phone number starting with 0"
	case "tracking":
		return fmt.Sprintf("%s must be %d-%d letters, digits or hyphens", e.Field, TrackingMinLength, TrackingMaxLength)
	case "email":
		return e.Field + " must be a valid email address"
	case "min", "max", "len":
		return fmt.Sprintf("%s violates %s=%s", e.Field, e.Rule, e.Param)
	default:
		return fmt.Sprintf("%s failed %s", e.Field, e.Rule)
	}
}

// Error collects every field that failed validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}

	return strings.Join(msgs, "; ")
}

// Is makes every validation error match domain.ErrValidation.
func (e *Error) Is(target error) bool {
	return target == domain.ErrValidation
}

// Validator returns the shared validator with the shop rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(jsonFieldName)

		// registration only fails for empty tags or nil funcs
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("tracking", func(fl validator.FieldLevel) bool {
			return IsTrackingNumber(fl.Field().String())
		})

		instance = v
	})

	return instance
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return convert(Validator().Struct(s), "")
}

// Var validates a single value against tag, reporting it as field.
func Var(field string, value any, tag string) error {
	return convert(Validator().Var(value, tag), field)
}

// IsTrackingNumber reports whether s is an acceptable tracking number.
func IsTrackingNumber(s string) bool {
	return len(s) >= TrackingMinLength && len(s) <= TrackingMaxLength && trackingPattern.MatchString(s)
}

// IsPhone reports whether s is an acceptable phone number.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func convert(err error, field string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}

	for _, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}

		out.Fields = append(out.Fields, FieldError{Field: name, Rule: fe.Tag(), Param: fe.Param()})
	}

	return out
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	if name == "" {
		return f.Name
	}

	return name
}
