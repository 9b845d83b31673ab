package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/vitalvas/veloz/view"
)

// SectionsKey is the template variable that holds the rendered sections.
const SectionsKey = "sections"

// Handler is an action implementation.
type Handler func(ctx context.Context, req *Request) (Outcome, error)

// Actions maps action identifiers to their handlers.
type Actions map[string]Handler

// Controller is implemented by types that embed Base and list their actions.
type Controller interface {
	// Actions returns the controller's action table.
	Actions() Actions

	base() *Base
}

// BeforeActioner is implemented by controllers that need to run common
// setup before every action. A returned error aborts the action.
type BeforeActioner interface {
	BeforeAction(ctx context.Context, action string) error
}

// Base carries what every controller needs to build pages. It is bound by
// the Container when the controller is resolved and must be embedded by
// value.
type Base struct {
	name       string
	engine     *view.Engine
	decorators []Decorator
	log        *slog.Logger
}

func (b *Base) base() *Base { return b }

// bind prepares b for use by a resolved controller.
func (b *Base) bind(name string, engine *view.Engine, decorators []Decorator, log *slog.Logger) {
	b.name = name
	b.engine = engine
	b.decorators = decorators
	b.log = log.With(slog.String("controller", name))
}

// Name returns the controller name, which is the simple name of the
// concrete controller type. It is also the controller's template directory.
func (b *Base) Name() string {
	return b.name
}

// Engine returns the template engine.
func (b *Base) Engine() *view.Engine {
	return b.engine
}

// Logger returns a logger tagged with the controller name.
func (b *Base) Logger() *slog.Logger {
	if b.log == nil {
		return slog.New(slog.DiscardHandler)
	}

	return b.log
}

// TemplatePath returns the file of a template in the controller's
// template directory. relative is given without extension.
func (b *Base) TemplatePath(relative string) string {
	return b.engine.FilePath(path.Join(b.name, relative), "")
}

type pageOptions struct {
	layout   string
	sections []Section
	fullBody string
}

// PageOption customises Base.Page.
type PageOption func(*pageOptions)

// WithLayout selects a layout template instead of the default one.
func WithLayout(layout string) PageOption {
	return func(o *pageOptions) {
		o.layout = layout
	}
}

// WithSections renders each section with the page variables and exposes
// them to the templates under SectionsKey.
func WithSections(sections ...Section) PageOption {
	return func(o *pageOptions) {
		o.sections = append(o.sections, sections...)
	}
}

// WithFullBodyPath uses a body template path relative to the template root
// instead of the controller's template directory. It cannot be combined
// with a relative body path.
func WithFullBodyPath(p string) PageOption {
	return func(o *pageOptions) {
		o.fullBody = p
	}
}

// Page builds a page from the body template body, relative to the
// controller's template directory, composed into the layout. Decorators are
// applied to vars first, in registration order; a decorator contributing a
// variable that already exists fails with ErrDecoratorConflict.
func (b *Base) Page(ctx context.Context, body string, vars view.Vars, opts ...PageOption) (*view.Page, error) {
	if b.engine == nil {
		return nil, fmt.Errorf("%w: controller is not bound to a container", ErrInvalidController)
	}

	var o pageOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.fullBody != "" && body != "" {
		return nil, fmt.Errorf("%w: %q and %q", ErrBodyPathConflict, o.fullBody, body)
	}

	vars, err := applyDecorators(ctx, b.decorators, vars)
	if err != nil {
		return nil, err
	}

	if len(o.sections) > 0 {
		if err := b.renderSections(o.sections, vars); err != nil {
			return nil, err
		}
		vars[SectionsKey] = o.sections
	}

	bodyPath := o.fullBody
	if bodyPath == "" && body != "" {
		bodyPath = b.name + "/" + body
	}

	b.Logger().Debug("building page",
		slog.String("body", bodyPath),
		slog.String("layout", o.layout),
		slog.Int("vars", len(vars)),
	)

	return b.engine.FromLayout(bodyPath, vars, o.layout)
}

func (b *Base) renderSections(sections []Section, vars view.Vars) error {
	for _, s := range sections {
		if s == nil {
			return fmt.Errorf("controller: nil section in %s", b.name)
		}

		out, err := b.engine.LoadTemplate(s.TemplatePath(b.name), vars)
		if err != nil {
			return fmt.Errorf("controller: render section %T: %w", s, err)
		}
		s.SetHTMLContent(out)
	}

	return nil
}

// Redirect halts the request with a redirect to target. status defaults to
// 302 Found and must be within 300-399.
func (b *Base) Redirect(target string, status ...int) (Outcome, error) {
	code := DefaultRedirectStatus
	if len(status) > 0 {
		code = status[0]
	}

	if err := checkRedirectStatus(code); err != nil {
		return Outcome{}, err
	}

	return Halted(Effect{
		Status: code,
		Header: http.Header{"Location": {target}},
	}), nil
}

func checkRedirectStatus(code int) error {
	if code < 300 || code > 399 {
		return fmt.Errorf("%w: %d", ErrInvalidRedirectStatus, code)
	}

	return nil
}
