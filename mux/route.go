package mux

import (
	"fmt"

	"github.com/vitalvas/veloz/controller"
)

// Route is one pattern of the route table with the actions registered for
// each method under it.
type Route struct {
	regexp  *routeRegexp
	pattern string
	methods []string
	actions map[string]controller.Action

	// err records the first setup error. A route with an error never
	// matches and is reported by Router.Err.
	err error
}

func newRoute(pattern string) *Route {
	r := &Route{
		pattern: pattern,
		actions: make(map[string]controller.Action),
	}

	r.regexp, r.err = newRouteRegexp(pattern)

	return r
}

// Method registers action for method under the route's pattern. Methods are
// compared as supplied, case-sensitively.
func (r *Route) Method(method string, action controller.Action) *Route {
	if r.err != nil {
		return r
	}

	switch {
	case method == "":
		r.err = fmt.Errorf("%w: empty method for %q", ErrInvalidRoute, r.pattern)
	case action.Controller() == "" || action.Name() == "":
		r.err = fmt.Errorf("%w: incomplete action %q for %s %q", ErrInvalidRoute, action, method, r.pattern)
	case matchInArray(r.methods, method):
		r.err = fmt.Errorf("%w: %s %q", ErrDuplicateMethod, method, r.pattern)
	default:
		r.methods = append(r.methods, method)
		r.actions[method] = action
	}

	return r
}

// Methods registers action for each of methods.
func (r *Route) Methods(action controller.Action, methods ...string) *Route {
	for _, m := range methods {
		r.Method(m, action)
	}

	return r
}

// Pattern returns the pattern the route was registered with.
func (r *Route) Pattern() string {
	return r.pattern
}

// GetMethods returns the registered methods in registration order.
func (r *Route) GetMethods() []string {
	return append([]string(nil), r.methods...)
}

// GetVarNames returns the placeholder names in pattern order.
func (r *Route) GetVarNames() []string {
	if r.regexp == nil {
		return nil
	}

	return append([]string(nil), r.regexp.varsN...)
}

// GetPathRegexp returns the compiled pattern.
func (r *Route) GetPathRegexp() (string, error) {
	if r.err != nil {
		return "", r.err
	}

	return r.regexp.regexp.String(), nil
}

// Action returns the action registered for method.
func (r *Route) Action(method string) (controller.Action, bool) {
	a, ok := r.actions[method]
	return a, ok
}

// Err returns the first setup error of the route, if any.
func (r *Route) Err() error {
	return r.err
}

// resolve returns the action for method given the captured params. A
// pattern without placeholders yields the registered action unchanged.
func (r *Route) resolve(method string, params controller.Params) controller.Action {
	action, ok := r.actions[method]
	if !ok {
		return controller.NewMethodNotAllowed(r.methods)
	}

	if r.regexp.literal() {
		return action
	}

	return action.WithParams(params)
}
