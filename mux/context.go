package mux

import (
	"context"
	"net/http"

	"github.com/vitalvas/veloz/controller"
)

// routeContextKey is an unexported type for the single context key.
type routeContextKey struct{}

// ctxKey is the context key used to store the routed action.
var ctxKey = routeContextKey{}

// WithAction returns a copy of ctx carrying the routed action.
func WithAction(ctx context.Context, action controller.Action) context.Context {
	return context.WithValue(ctx, ctxKey, action)
}

// ActionFromContext returns the routed action stored in ctx, if any.
func ActionFromContext(ctx context.Context) (controller.Action, bool) {
	a, ok := ctx.Value(ctxKey).(controller.Action)
	return a, ok
}

// CurrentAction returns the routed action for the current request, if any.
func CurrentAction(r *http.Request) (controller.Action, bool) {
	return ActionFromContext(r.Context())
}

// Params returns the parameters of the routed action for the current
// request, if any.
func Params(r *http.Request) controller.Params {
	if a, ok := CurrentAction(r); ok {
		return a.Params()
	}
	return nil
}

// VarGet returns the value of a single placeholder by name and a boolean
// indicating whether it exists.
func VarGet(r *http.Request, name string) (string, bool) {
	return Params(r).Get(name)
}

// SetAction stores action in the request context, returning the modified
// request. This is intended for testing middleware and handlers.
func SetAction(r *http.Request, action controller.Action) *http.Request {
	return r.WithContext(WithAction(r.Context(), action))
}

// MiddlewareFunc is a function which receives an http.Handler and returns
// another http.Handler. It can be used to wrap handlers with additional
// behavior such as logging, authentication, etc.
type MiddlewareFunc func(http.Handler) http.Handler

// Chain wraps h with middlewares so that the first one is outermost.
func Chain(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
