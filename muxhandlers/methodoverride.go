package muxhandlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/vitalvas/veloz/mux"
)

// DefaultMethodOverrideField is the form field checked when
// MethodOverrideConfig.FormField is empty.
const DefaultMethodOverrideField = "_method"

// ErrInvalidOverrideMethod is returned when MethodOverrideConfig.AllowedMethods
// or MethodOverrideConfig.OriginalMethods contains an invalid HTTP method.
var ErrInvalidOverrideMethod = errors.New("method override: allowed methods must be valid HTTP methods")

// MethodOverrideConfig configures the Method Override middleware behaviour.
type MethodOverrideConfig struct {
	// HeaderNames is the list of header names checked in order.
	// The first non-empty header value is used as the override.
	// When nil, defaults to
	// ["X-HTTP-Method-Override", "X-Method-Override", "X-HTTP-Method"].
	HeaderNames []string `yaml:"headers"`

	// FormField is the form field checked when no override header is
	// present, so that HTML forms can submit PUT, PATCH or DELETE through
	// a hidden input. Defaults to DefaultMethodOverrideField.
	FormField string `yaml:"form_field"`

	// DisableFormField turns off the form field check.
	DisableFormField bool `yaml:"disable_form_field"`

	// OriginalMethods is the set of HTTP methods eligible for override.
	// When nil, defaults to [POST].
	OriginalMethods []string `yaml:"original_methods"`

	// AllowedMethods restricts which methods can be used as overrides.
	// When nil, defaults to PUT, PATCH, DELETE.
	AllowedMethods []string `yaml:"allowed_methods"`
}

// defaultOverrideHeaders is the default set of header names checked for
// method override when HeaderNames is nil.
var defaultOverrideHeaders = []string{
	"X-HTTP-Method-Override",
	"X-Method-Override",
	"X-HTTP-Method",
}

// defaultOriginalMethods is the set of HTTP methods eligible for override
// when OriginalMethods is nil.
var defaultOriginalMethods = []string{http.MethodPost}

// defaultOverrideMethods is the set of methods allowed as overrides when
// AllowedMethods is nil.
var defaultOverrideMethods = []string{
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// MethodOverrideMiddleware returns a middleware that allows clients to
// override the HTTP method before the request is routed. The first
// non-empty header value from HeaderNames, or else the form field of a
// url-encoded or multipart body, is uppercased and checked against the
// allowed set. When allowed, r.Method is set to the override value and the
// header is removed. Override is only applied when the original request
// method is in OriginalMethods (defaults to POST).
//
// It returns ErrInvalidOverrideMethod if AllowedMethods or OriginalMethods
// contains an invalid method.
func MethodOverrideMiddleware(cfg MethodOverrideConfig) (mux.MiddlewareFunc, error) {
	headers := cfg.HeaderNames
	if len(headers) == 0 {
		headers = defaultOverrideHeaders
	}

	originals := cfg.OriginalMethods
	if originals == nil {
		originals = defaultOriginalMethods
	}

	methods := cfg.AllowedMethods
	if methods == nil {
		methods = defaultOverrideMethods
	}

	if err := checkMethods(originals); err != nil {
		return nil, err
	}
	if err := checkMethods(methods); err != nil {
		return nil, err
	}

	formField := ""
	if !cfg.DisableFormField {
		formField = cfg.FormField
		if formField == "" {
			formField = DefaultMethodOverrideField
		}
	}

	headerNames := make([]string, len(headers))
	copy(headerNames, headers)

	originalSet := make(map[string]struct{}, len(originals))
	for _, m := range originals {
		originalSet[m] = struct{}{}
	}

	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := originalSet[r.Method]; ok {
				header, v := overrideFromHeaders(r, headerNames)
				if v == "" && formField != "" && isFormBody(r) {
					v = r.PostFormValue(formField)
				}

				if v != "" {
					override := strings.ToUpper(v)
					if _, ok := allowed[override]; ok {
						r.Method = override
						if header != "" {
							r.Header.Del(header)
						}
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func checkMethods(methods []string) error {
	for _, m := range methods {
		if m == "" || m != strings.ToUpper(m) {
			return fmt.Errorf("%w: %q", ErrInvalidOverrideMethod, m)
		}
	}

	return nil
}

// overrideFromHeaders returns the first override header that is set and
// its value.
func overrideFromHeaders(r *http.Request, names []string) (string, string) {
	for _, h := range names {
		if v := r.Header.Get(h); v != "" {
			return h, v
		}
	}

	return "", ""
}

func isFormBody(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}

	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}
