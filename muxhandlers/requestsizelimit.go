package muxhandlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/vitalvas/veloz/mux"
)

// ErrInvalidMaxSize is returned when the request size limit is not greater
// than zero or cannot be parsed.
var ErrInvalidMaxSize = errors.New("request size limit: max size must be greater than zero")

// RequestSizeLimitConfig configures the Request Size Limit middleware behaviour.
type RequestSizeLimitConfig struct {
	// MaxBytes is the maximum allowed request body size in bytes.
	MaxBytes int64 `yaml:"-"`

	// MaxSize is a human-readable limit such as "1MB" or "512 KiB". It is
	// used when MaxBytes is zero.
	MaxSize string `yaml:"max_size"`
}

// Limit returns the configured limit in bytes.
func (cfg RequestSizeLimitConfig) Limit() (int64, error) {
	if cfg.MaxBytes != 0 || cfg.MaxSize == "" {
		if cfg.MaxBytes <= 0 {
			return 0, ErrInvalidMaxSize
		}
		return cfg.MaxBytes, nil
	}

	n, err := humanize.ParseBytes(cfg.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxSize, err)
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxSize, cfg.MaxSize)
	}

	return int64(n), nil
}

// RequestSizeLimitMiddleware returns a middleware that limits the size of
// incoming request bodies. It wraps r.Body with http.MaxBytesReader so that
// downstream handlers, such as form decoding, receive an error when reading
// beyond the limit.
//
// It returns ErrInvalidMaxSize if the limit is not greater than zero.
func RequestSizeLimitMiddleware(cfg RequestSizeLimitConfig) (mux.MiddlewareFunc, error) {
	maxBytes, err := cfg.Limit()
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}, nil
}
