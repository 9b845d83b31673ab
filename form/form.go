// Package form maps submitted form data onto Go structs and validates it.
//
// A form is a struct whose exported fields receive the submitted values by
// name. The `form` tag renames a field; keys without a matching field are
// ignored:
//
//	type Signup struct {
//	    Email string `form:"email"`
//	    Age   int    `form:"age"`
//	    Terms bool   `form:"terms"`
//	}
//
//	func (s *Signup) Validate() form.Errors {
//	    errs := form.Errors{}
//	    if s.Email == "" {
//	        errs.Add("email", "is required")
//	    }
//	    return errs
//	}
//
// Bind parses the request, decodes it and runs Validate when the form
// implements Validator.
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// TagName is the struct tag that renames a form field.
const TagName = "form"

// DefaultMaxMemory is the memory used to parse multipart bodies before
// spilling file parts to disk.
const DefaultMaxMemory = 32 << 20

var (
	// ErrDecode is wrapped by every error returned when submitted values
	// cannot be stored in the destination.
	ErrDecode = errors.New("form: cannot decode values")

	// ErrTrailingData is returned when a JSON body holds more than one value.
	ErrTrailingData = errors.New("form: unexpected trailing data after JSON value")
)

// Errors maps a field name to the message describing why its value is
// invalid.
type Errors map[string]string

// Add records msg for field, keeping the first message of a field.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Error lists the messages ordered by field name.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range slices.Sorted(maps.Keys(e)) {
		parts = append(parts, field+": "+e[field])
	}

	return "form: invalid " + strings.Join(parts, "; ")
}

// Validator is implemented by forms that check their own values. An empty
// result means the form is valid.
type Validator interface {
	Validate() Errors
}

// Decode stores values in the struct pointed to by dst. Single values are
// stored as strings and converted to the field type; repeated keys fill
// slice fields. "on", as sent by checkboxes, is true.
func Decode(values url.Values, dst any) error {
	input := make(map[string]any, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
		case 1:
			input[k] = v[0]
		default:
			input[k] = v
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			checkboxHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
		TagName:          TagName,
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return nil
}

func checkboxHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if s, ok := data.(string); ok && to.Kind() == reflect.Bool && strings.EqualFold(s, "on") {
		return true, nil
	}

	return data, nil
}

// DecodeJSON decodes exactly one JSON value from r into dst. Unknown
// object keys are rejected unless allowUnknownFields is true.
func DecodeJSON(r io.Reader, dst any, allowUnknownFields ...bool) error {
	dec := json.NewDecoder(r)

	if len(allowUnknownFields) == 0 || !allowUnknownFields[0] {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}

	return nil
}

// Bind decodes the request into dst and validates it.
//
// JSON bodies are decoded with DecodeJSON. Other requests are parsed with
// the standard form parser, which merges the URL query with url-encoded or
// multipart bodies, and decoded with Decode. When dst implements Validator
// and reports problems, Bind returns them as Errors.
func Bind(r *http.Request, dst any) error {
	if err := decodeRequest(r, dst); err != nil {
		return err
	}

	return Validate(dst)
}

// Validate runs dst's Validate method when it has one and returns its
// Errors, or nil when there are none.
func Validate(dst any) error {
	v, ok := dst.(Validator)
	if !ok {
		return nil
	}

	if errs := v.Validate(); len(errs) > 0 {
		return errs
	}

	return nil
}

func decodeRequest(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		return DecodeJSON(r.Body, dst)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}

	return Decode(r.Form, dst)
}
