// Package serializers validates request payloads and shapes responses.
// Inputs are decoded field by field so that type errors, missing fields and
// rule violations are all reported against the JSON name of the offending
// field.
package serializers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	msgRequired      = "This field is required."
	msgBlank         = "This field may not be blank."
	msgInvalidEmail  = "Enter a valid email address."
	msgInvalidInt    = "A valid integer is required."
	msgInvalidString = "Not a valid string."
	msgInvalidTime   = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm:ss[.uuuuuu](Z|+HH:MM|-HH:MM)."
)

// ErrMalformedJSON is returned by Decode when the body is not a JSON object.
var ErrMalformedJSON = errors.New("JSON parse error")

var validate = validator.New()

// ValidationError lists every rejected field with its reasons.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an error carrying a single field message.
func NewValidationError(field, message string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// FieldErrors exposes the per-field messages to the HTTP error writer.
func (e *ValidationError) FieldErrors() map[string][]string { return e.Fields }

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Present records which JSON keys a request body actually carried.
type Present map[string]bool

// Decode reads a JSON object into dst, a pointer to an input struct.
// Keys without a matching field are ignored, which is how read-only
// attributes such as duration or user are discarded.
func Decode(body io.Reader, dst any) (Present, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedJSON)
	}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	present := Present{}
	verr := &ValidationError{}
	for i := 0; i < t.NumField(); i++ {
		name := jsonName(t.Field(i))
		msg, ok := raw[name]
		if name == "" || !ok {
			continue
		}
		present[name] = true
		if err := json.Unmarshal(msg, v.Field(i).Addr().Interface()); err != nil {
			verr.Add(name, typeErrorMessage(t.Field(i).Type))
		}
	}
	if !verr.empty() {
		return present, verr
	}
	return present, nil
}

// Validate applies the `validate` tags of input. When partial is set only
// fields listed in present are checked, which gives PATCH its semantics.
func Validate(input any, present Present, partial bool) error {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	verr := &ValidationError{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		name := jsonName(field)
		if tag == "" || name == "" || (partial && !present[name]) {
			continue
		}

		err := validate.Var(v.Field(i).Interface(), tag)
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				verr.Add(name, messageFor(fe))
			}
		} else if err != nil {
			return fmt.Errorf("failed to validate %s: %w", name, err)
		}
	}
	if !verr.empty() {
		return verr
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "min":
		if fe.Param() == "1" {
			return msgBlank
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed the %q rule.", fe.Tag())
	}
}

var timeType = reflect.TypeOf(time.Time{})

func typeErrorMessage(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return msgInvalidTime
	case t.Kind() == reflect.String:
		return msgInvalidString
	case t.Kind() == reflect.Int64, t.Kind() == reflect.Int:
		return msgInvalidInt
	default:
		return "Incorrect type."
	}
}

func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
