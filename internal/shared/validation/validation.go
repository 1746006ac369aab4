// Package validation turns validator/v10 failures into form-field messages.
// Handlers use it for gin binding errors and services use Struct for input
// they validate themselves.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type FieldErrors map[string]string

var (
	once sync.Once
	std  *validator.Validate
)

// Validator returns the shared instance with the custom rules registered.
// Struct tags use the `validate` key.
func Validator() *validator.Validate {
	once.Do(func() {
		std = validator.New(validator.WithRequiredStructEnabled())
		_ = Register(std)
	})
	return std
}

// Register adds the custom rules to v. gin's binding engine is passed here
// at startup so `binding:"phone"` works too.
func Register(v *validator.Validate) error {
	return v.RegisterValidation("phone", isPhone)
}

// Struct validates dst and returns nil when it is valid.
func Struct(dst any) FieldErrors {
	err := Validator().Struct(dst)
	if err == nil {
		return nil
	}
	return FromBindError(err, dst)
}

// FromBindError maps a bind or validation error to field -> message, keyed
// by the form tag of dst's fields.
func FromBindError(err error, dst any) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			key := fieldKey(dst, fe.StructField())
			out[key] = messageForTag(fe.Tag(), fe.Param())
		}
		return out
	}

	// type mismatch, malformed body
	out["_"] = "The submitted form is invalid."
	return out
}

func fieldKey(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	f, ok := t.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	tag := f.Tag.Get("form")
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return strings.ToLower(structField)
	}
	return tag
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this value has at least " + param + " characters."
	case "max":
		return "Ensure this value has at most " + param + " characters."
	case "gte":
		return "Ensure this value is at least " + param + "."
	case "lte":
		return "Ensure this value is at most " + param + "."
	case "phone":
		return "Enter a valid phone number."
	default:
		return "Enter a valid value."
	}
}

// isPhone accepts up to 15 characters of digits, '+', '-' and spaces with
// at least one digit.
func isPhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	if len(s) > 15 {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ':
		default:
			return false
		}
	}
	return digits > 0
}
