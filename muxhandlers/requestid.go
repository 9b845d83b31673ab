package muxhandlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vitalvas/veloz/mux"
)

// DefaultRequestIDHeader is the header used when RequestIDConfig.HeaderName
// is empty.
const DefaultRequestIDHeader = "X-Request-ID"

// ErrUnknownGenerator is returned by RequestIDGenerator for an unknown name.
var ErrUnknownGenerator = errors.New("request id: unknown generator")

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in the context by
// RequestIDMiddleware. Returns an empty string if no ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}

// RequestIDConfig configures the Request ID middleware behaviour.
type RequestIDConfig struct {
	// HeaderName overrides the header used to propagate the request ID.
	// Defaults to DefaultRequestIDHeader when empty.
	HeaderName string `yaml:"header"`

	// Generator names the ID generator: "uuid4" (default) or "uuid7".
	// Ignored when GenerateFunc is set.
	Generator string `yaml:"generator"`

	// GenerateFunc is an optional callback that returns a new unique ID.
	// It receives the current request, allowing ID generation based on
	// request context.
	GenerateFunc func(r *http.Request) string `yaml:"-"`

	// TrustIncoming, when true, reuses an existing request ID from the
	// incoming request header instead of generating a new one.
	TrustIncoming bool `yaml:"trust_incoming"`
}

// RequestIDGenerator returns the generator registered under name. An empty
// name selects GenerateUUIDv4.
func RequestIDGenerator(name string) (func(*http.Request) string, error) {
	switch name {
	case "", "uuid4":
		return GenerateUUIDv4, nil
	case "uuid7":
		return GenerateUUIDv7, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
}

// RequestIDMiddleware returns a middleware that generates or propagates a
// request ID header. The ID is set on the request (for downstream
// handlers), its context and the response (for the caller).
//
// It returns ErrUnknownGenerator if Generator names no known generator.
func RequestIDMiddleware(cfg RequestIDConfig) (mux.MiddlewareFunc, error) {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = DefaultRequestIDHeader
	}

	generate := cfg.GenerateFunc
	if generate == nil {
		g, err := RequestIDGenerator(cfg.Generator)
		if err != nil {
			return nil, err
		}
		generate = g
	}

	trustIncoming := cfg.TrustIncoming

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if trustIncoming {
				id = r.Header.Get(headerName)
			}

			if id == "" {
				id = generate(r)
			}

			if id != "" {
				r.Header.Set(headerName, id)
				w.Header().Set(headerName, id)
				r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// GenerateUUIDv4 returns a new UUID v4 string.
//
// Spec reference: https://www.rfc-editor.org/rfc/rfc9562#section-5.4
func GenerateUUIDv4(_ *http.Request) string {
	return uuid.New().String()
}

// GenerateUUIDv7 returns a new UUID v7 string. UUIDs are time-ordered:
// IDs generated later sort lexicographically after earlier ones.
//
// Spec reference: https://www.rfc-editor.org/rfc/rfc9562#section-5.7
func GenerateUUIDv7(_ *http.Request) string {
	return uuid.Must(uuid.NewV7()).String()
}
