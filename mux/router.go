package mux

import (
	"errors"
	"fmt"

	"github.com/vitalvas/veloz/controller"
)

// Router maps a request path and method to a controller action.
//
// Routes are matched in registration order and the first matching pattern
// wins:
//
//	r := mux.NewRouter(controller.NewAction("home", "notFound"))
//	r.Path("/").Method(http.MethodGet, controller.NewAction("home", "index"))
//	r.Path("/users/<id:int>").Method(http.MethodGet, controller.NewAction("users", "show"))
//
// The route table is built during setup and must not be modified while
// requests are being routed.
type Router struct {
	notFound controller.Action
	routes   []*Route
	patterns map[string]*Route
	literals map[string]*Route
}

// NewRouter returns a router that answers unmatched paths with notFound.
func NewRouter(notFound controller.Action) *Router {
	return &Router{
		notFound: notFound,
		patterns: make(map[string]*Route),
		literals: make(map[string]*Route),
	}
}

// Path returns the route for pattern, creating it at the end of the table
// when the pattern is new.
func (r *Router) Path(pattern string) *Route {
	if route, ok := r.patterns[pattern]; ok {
		return route
	}

	route := newRoute(pattern)
	r.routes = append(r.routes, route)
	r.patterns[pattern] = route

	if route.err == nil && route.regexp.literal() {
		r.literals[pattern] = route
	}

	return route
}

// Route returns the action for path and method: the first route whose
// pattern matches the whole path decides. Placeholder captures become the
// action's parameters. A matching route without an entry for method yields
// a method-not-allowed action listing the route's methods; no match yields
// the not-found action.
func (r *Router) Route(path, method string) controller.Action {
	route, params := r.match(path)
	if route == nil {
		return r.notFound
	}

	return route.resolve(method, params)
}

// HasPath reports whether any route matches path, regardless of method.
func (r *Router) HasPath(path string) bool {
	if route, ok := r.literals[path]; ok && route.err == nil && len(route.methods) > 0 {
		return true
	}

	route, _ := r.match(path)

	return route != nil
}

func (r *Router) match(path string) (*Route, controller.Params) {
	for _, route := range r.routes {
		if route.err != nil || len(route.methods) == 0 {
			continue
		}

		if params, ok := route.regexp.match(path); ok {
			return route, params
		}
	}

	return nil, nil
}

// NotFound returns the action used for unmatched paths.
func (r *Router) NotFound() controller.Action {
	return r.notFound
}

// Err returns the setup errors of the router and its routes, joined.
func (r *Router) Err() error {
	var errs []error

	if r.notFound.Controller() == "" || r.notFound.Name() == "" {
		errs = append(errs, fmt.Errorf("%w: incomplete not-found action %q", ErrInvalidRoute, r.notFound))
	}

	for _, route := range r.routes {
		if route.err != nil {
			errs = append(errs, route.err)
		}
	}

	return errors.Join(errs...)
}

// WalkFunc is the type of the function called for each route visited by
// Walk.
type WalkFunc func(route *Route) error

// Walk calls fn for every route in registration order and stops at the
// first error.
func (r *Router) Walk(fn WalkFunc) error {
	for _, route := range r.routes {
		if err := fn(route); err != nil {
			return err
		}
	}

	return nil
}

// Actions returns every action reachable through the router: the not-found
// action followed by each route's actions in registration order.
func (r *Router) Actions() []controller.Action {
	out := []controller.Action{r.notFound}

	for _, route := range r.routes {
		for _, m := range route.methods {
			out = append(out, route.actions[m])
		}
	}

	return out
}
