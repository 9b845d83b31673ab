package muxhandlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/vitalvas/veloz/mux"
)

// RecoveryConfig configures the Recovery middleware behaviour.
type RecoveryConfig struct {
	// Logger receives an error record with the recovered value and stack
	// when a panic occurs. When nil, no logging is performed.
	Logger *slog.Logger

	// LogFunc is an optional callback invoked with the request and the
	// recovered value when a panic occurs.
	LogFunc func(r *http.Request, err any)
}

// RecoveryMiddleware returns a middleware that recovers from panics in
// downstream handlers. When a panic occurs it returns 500 Internal Server
// Error to the client, logs the panic and optionally invokes LogFunc.
// http.ErrAbortHandler is re-raised so the server can abort the response.
func RecoveryMiddleware(cfg RecoveryConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler { //nolint:errorlint // sentinel passed to panic
					panic(err)
				}

				if cfg.Logger != nil {
					cfg.Logger.ErrorContext(r.Context(), "panic recovered",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.String("panic", fmt.Sprint(err)),
						slog.String("stack", string(debug.Stack())),
					)
				}

				if cfg.LogFunc != nil {
					cfg.LogFunc(r, err)
				}

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
