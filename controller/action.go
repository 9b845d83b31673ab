package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Identifiers and action names of the built-in controllers.
const (
	RedirectControllerID = "veloz.Redirect"
	RedirectAction       = "redirect"

	MethodNotAllowedControllerID = "veloz.MethodNotAllowed"
	MethodNotAllowedAction       = "methodNotAllowed"
)

// DefaultRedirectStatus is used by NewRedirect when no status is given.
const DefaultRedirectStatus = http.StatusFound

// Param is a single action parameter. Parameters captured from a route
// pattern carry the placeholder name; positional parameters may leave
// Name empty.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered list of action parameters.
type Params []Param

// Get returns the value of the first parameter called name.
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}

	return "", false
}

// At returns the value at position i, or "" when out of range.
func (p Params) At(i int) string {
	if i < 0 || i >= len(p) {
		return ""
	}

	return p[i].Value
}

// Values returns the parameter values in order.
func (p Params) Values() []string {
	out := make([]string, len(p))
	for i, param := range p {
		out[i] = param.Value
	}

	return out
}

// Action binds a controller identifier, an action identifier and the
// parameters to invoke the action with. Actions are values: copying one
// never shares its parameters.
type Action struct {
	controller string
	name       string
	params     Params
}

// NewAction returns an Action for the given controller and action
// identifiers.
func NewAction(controllerID, action string, params ...Param) Action {
	return Action{
		controller: controllerID,
		name:       action,
		params:     append(Params(nil), params...),
	}
}

// NewRedirect returns an Action that redirects to url with status, which
// defaults to DefaultRedirectStatus. The status is checked when the action
// runs or when it is validated by a Container.
func NewRedirect(url string, status ...int) Action {
	code := DefaultRedirectStatus
	if len(status) > 0 {
		code = status[0]
	}

	return NewAction(RedirectControllerID, RedirectAction,
		Param{Name: "url", Value: url},
		Param{Name: "status", Value: strconv.Itoa(code)},
	)
}

// NewMethodNotAllowed returns an Action that answers 405 Method Not Allowed
// with an Allow header listing methods in the given order.
func NewMethodNotAllowed(methods []string) Action {
	params := make([]Param, len(methods))
	for i, m := range methods {
		params[i] = Param{Value: m}
	}

	return NewAction(MethodNotAllowedControllerID, MethodNotAllowedAction, params...)
}

// Controller returns the controller identifier.
func (a Action) Controller() string {
	return a.controller
}

// Name returns the action identifier.
func (a Action) Name() string {
	return a.name
}

// Params returns a copy of the action parameters.
func (a Action) Params() Params {
	return append(Params(nil), a.params...)
}

// WithParams returns a copy of a with its parameters replaced.
func (a Action) WithParams(params Params) Action {
	return NewAction(a.controller, a.name, params...)
}

// IsRedirect reports whether a is a redirect action.
func (a Action) IsRedirect() bool {
	return a.controller == RedirectControllerID
}

// AllowedMethods returns the methods carried by a method-not-allowed action.
// The second result is false for any other action.
func (a Action) AllowedMethods() ([]string, bool) {
	if a.controller != MethodNotAllowedControllerID {
		return nil, false
	}

	return a.params.Values(), true
}

// String returns "controller.action".
func (a Action) String() string {
	return a.controller + "." + a.name
}

// validate checks that the action names both a controller and an action.
func (a Action) validate() error {
	if a.controller == "" || a.name == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAction, a.String())
	}

	return nil
}

// Request is what an action handler receives.
type Request struct {
	// Action is the action being invoked.
	Action Action

	// Params are the action parameters.
	Params Params

	// HTTP is the incoming request. It is nil when the action is dispatched
	// outside of an HTTP server.
	HTTP *http.Request
}

// Invoke resolves the action's controller through r, runs its BeforeAction
// hook when it has one and calls the action handler. req may be nil.
func (a Action) Invoke(ctx context.Context, r Resolver, req *http.Request) (Outcome, error) {
	if err := a.validate(); err != nil {
		return Outcome{}, err
	}

	ctrl, err := r.Resolve(a.controller)
	if err != nil {
		return Outcome{}, err
	}

	handler, ok := ctrl.Actions()[a.name]
	if !ok || handler == nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownAction, a)
	}

	if hook, ok := ctrl.(BeforeActioner); ok {
		if err := hook.BeforeAction(ctx, a.name); err != nil {
			return Outcome{}, fmt.Errorf("controller: before action %s: %w", a, err)
		}
	}

	out, err := handler(ctx, &Request{Action: a, Params: a.Params(), HTTP: req})
	if err != nil {
		return Outcome{}, fmt.Errorf("controller: action %s: %w", a, err)
	}

	return out, nil
}
