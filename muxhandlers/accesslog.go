package muxhandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vitalvas/veloz/mux"
)

// AccessLogConfig configures the Access Log middleware behaviour.
type AccessLogConfig struct {
	// Logger receives one record per request. Required.
	Logger *slog.Logger

	// Level is the level of successful requests. Responses with a 5xx
	// status are logged at error level. Defaults to slog.LevelInfo.
	Level slog.Level

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// AccessLogMiddleware returns a middleware that logs every request with its
// method, path, status, size, duration and request ID. When the request has
// been routed, the controller and action are logged as well.
func AccessLogMiddleware(cfg AccessLogConfig) mux.MiddlewareFunc {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	level := cfg.Level

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Int("bytes", sw.bytes),
				slog.Duration("duration", now().Sub(start)),
			}

			if id := RequestIDFromContext(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}

			if a, ok := mux.CurrentAction(r); ok {
				attrs = append(attrs,
					slog.String("controller", a.Controller()),
					slog.String("action", a.Name()),
				)
			}

			lvl := level
			if sw.status >= http.StatusInternalServerError {
				lvl = slog.LevelError
			}

			log.LogAttrs(r.Context(), lvl, "request", attrs...)
		})
	}
}
