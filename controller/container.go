package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/vitalvas/veloz/view"
)

// Resolver returns a ready-to-use controller for an identifier.
type Resolver interface {
	Resolve(id string) (Controller, error)
}

// Factory returns a new, unbound controller. It is called on every
// resolution and must not have side effects.
type Factory func() Controller

type registration struct {
	factory    Factory
	decorators []Decorator
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithLogger sets the logger handed to resolved controllers.
func WithLogger(log *slog.Logger) ContainerOption {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// Container registers controllers with their decorators and resolves them
// by identifier. Registration happens during setup; once requests are being
// served the container is read-only and safe for concurrent use.
type Container struct {
	engine   *view.Engine
	log      *slog.Logger
	registry map[string]registration
}

// NewContainer returns a Container whose controllers render with engine.
// The built-in redirect and method-not-allowed controllers are registered.
func NewContainer(engine *view.Engine, opts ...ContainerOption) *Container {
	c := &Container{
		engine:   engine,
		log:      slog.New(slog.DiscardHandler),
		registry: make(map[string]registration),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.registry[RedirectControllerID] = registration{
		factory: func() Controller { return &redirectController{} },
	}
	c.registry[MethodNotAllowedControllerID] = registration{
		factory: func() Controller { return &methodNotAllowedController{} },
	}

	return c
}

// Register adds a controller under id. decorators are applied, in order, to
// the variables of every page the controller builds.
func (c *Container) Register(id string, factory Factory, decorators ...Decorator) error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidController)
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidController, id)
	}
	for i, d := range decorators {
		if d == nil {
			return fmt.Errorf("%w: decorator %d of %q is nil", ErrInvalidController, i, id)
		}
	}
	if _, ok := c.registry[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateController, id)
	}

	c.registry[id] = registration{
		factory:    factory,
		decorators: slices.Clone(decorators),
	}

	c.log.Debug("controller registered", slog.String("id", id), slog.Int("decorators", len(decorators)))

	return nil
}

// MustRegister is like Register but panics on error.
func (c *Container) MustRegister(id string, factory Factory, decorators ...Decorator) {
	if err := c.Register(id, factory, decorators...); err != nil {
		panic(err)
	}
}

// Resolve implements Resolver. Every call returns a new controller instance
// bound to the container's engine and the registered decorators.
func (c *Container) Resolve(id string) (Controller, error) {
	reg, ok := c.registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownController, id)
	}

	ctrl := reg.factory()
	if isNil(ctrl) || ctrl.base() == nil {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrInvalidController, id)
	}

	name := typeName(ctrl)
	if name == "" {
		name = id
	}

	ctrl.base().bind(name, c.engine, reg.decorators, c.log)

	return ctrl, nil
}

// Validate checks that a can be invoked: its controller is registered, the
// action exists, and a redirect carries a valid status code.
func (c *Container) Validate(a Action) error {
	if err := a.validate(); err != nil {
		return err
	}

	ctrl, err := c.Resolve(a.controller)
	if err != nil {
		return err
	}

	if h, ok := ctrl.Actions()[a.name]; !ok || h == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAction, a)
	}

	if a.IsRedirect() {
		if _, err := redirectStatus(a.params); err != nil {
			return err
		}
	}

	return nil
}

// IDs returns the registered controller identifiers, sorted.
func (c *Container) IDs() []string {
	ids := make([]string, 0, len(c.registry))
	for id := range c.registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func isNil(ctrl Controller) bool {
	if ctrl == nil {
		return true
	}

	v := reflect.ValueOf(ctrl)

	return v.Kind() == reflect.Pointer && v.IsNil()
}

// typeName returns the simple name of the concrete type behind ctrl.
func typeName(ctrl Controller) string {
	t := reflect.TypeOf(ctrl)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}

// redirectController serves redirect actions.
type redirectController struct {
	Base
}

func (c *redirectController) Actions() Actions {
	return Actions{RedirectAction: c.redirect}
}

func (c *redirectController) redirect(_ context.Context, req *Request) (Outcome, error) {
	code, err := redirectStatus(req.Params)
	if err != nil {
		return Outcome{}, err
	}

	return c.Redirect(req.Params.At(0), code)
}

func redirectStatus(params Params) (int, error) {
	raw := params.At(1)
	if raw == "" {
		return DefaultRedirectStatus, nil
	}

	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRedirectStatus, raw)
	}

	return code, checkRedirectStatus(code)
}

// methodNotAllowedController serves method-not-allowed actions.
type methodNotAllowedController struct {
	Base
}

func (c *methodNotAllowedController) Actions() Actions {
	return Actions{MethodNotAllowedAction: c.methodNotAllowed}
}

func (c *methodNotAllowedController) methodNotAllowed(_ context.Context, req *Request) (Outcome, error) {
	return Halted(Effect{
		Status: http.StatusMethodNotAllowed,
		Header: http.Header{"Allow": {strings.Join(req.Params.Values(), ", ")}},
	}), nil
}
