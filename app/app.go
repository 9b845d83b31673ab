// Package app serves a veloz application over HTTP.
//
// An App ties a route table to the controllers it names. For every request
// it routes the path and method to an action, resolves and invokes the
// action's controller, and writes the rendered page or applies the
// redirect or 405 effect the action halted with:
//
//	cfg := config.Default()
//	engine := view.NewEngine(cfg.ViewOptions())
//
//	controllers := controller.NewContainer(engine)
//	controllers.MustRegister("home", func() controller.Controller { return &Home{} })
//
//	router := mux.NewRouter(controller.NewAction("home", "notFound"))
//	router.Path("/").Method(http.MethodGet, controller.NewAction("home", "index"))
//
//	a, err := app.New(cfg, router, controllers)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(cfg.Listen, a.Handler())
//
// The route table is checked when the App is built: router errors and
// actions naming unknown controllers or actions fail New.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitalvas/veloz/config"
	"github.com/vitalvas/veloz/controller"
	"github.com/vitalvas/veloz/mux"
	"github.com/vitalvas/veloz/muxhandlers"
)

var (
	// ErrNotAPage is returned when an action returns neither a page nor a
	// halting effect.
	ErrNotAPage = errors.New("app: action did not return a page")

	// ErrInvalidRouteTable is wrapped by New when the route table cannot be
	// served.
	ErrInvalidRouteTable = errors.New("app: invalid route table")
)

// Controllers resolves and checks the controllers named by routed actions.
// *controller.Container implements it.
type Controllers interface {
	controller.Resolver

	// Validate reports whether the action's controller and action exist.
	Validate(a controller.Action) error
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger for dispatch errors, recovered panics and the
// access log.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// WithRegistry sets the Prometheus registerer of the metrics middleware.
// Defaults to prometheus.DefaultRegisterer.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// App is an http.Handler dispatching requests to controller actions.
type App struct {
	cfg         config.Config
	router      *mux.Router
	controllers Controllers
	log         *slog.Logger
	registry    prometheus.Registerer

	before   []mux.MiddlewareFunc
	after    []mux.MiddlewareFunc
	recovery mux.MiddlewareFunc

	routedOnce sync.Once
	routed     http.Handler
}

// New returns an App serving router's actions with controllers.
//
// cfg is validated, the router must have no setup errors and every action
// it can return, including the not-found action, must name a registered
// controller and action.
func New(cfg config.Config, router *mux.Router, controllers Controllers, opts ...Option) (*App, error) {
	if router == nil || controllers == nil {
		return nil, fmt.Errorf("%w: router and controllers are required", ErrInvalidRouteTable)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:         cfg,
		router:      router,
		controllers: controllers,
		log:         slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(a)
	}

	if err := a.checkRoutes(); err != nil {
		return nil, err
	}

	if err := a.buildMiddleware(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) checkRoutes() error {
	if err := a.router.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRouteTable, err)
	}

	var errs []error
	for _, action := range a.router.Actions() {
		if err := a.controllers.Validate(action); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRouteTable, err)
	}

	return nil
}

func (a *App) buildMiddleware() error {
	mw := a.cfg.Middleware

	if mw.Recovery {
		a.recovery = muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{Logger: a.log})
		a.before = append(a.before, a.recovery)
	}

	if mw.RequestID.Enabled {
		requestID, err := muxhandlers.RequestIDMiddleware(mw.RequestID.RequestIDConfig)
		if err != nil {
			return err
		}
		a.before = append(a.before, requestID)
	}

	if mw.RequestSizeLimit.Enabled {
		limit, err := muxhandlers.RequestSizeLimitMiddleware(mw.RequestSizeLimit.RequestSizeLimitConfig)
		if err != nil {
			return err
		}
		a.before = append(a.before, limit)
	}

	if mw.MethodOverride.Enabled {
		override, err := muxhandlers.MethodOverrideMiddleware(mw.MethodOverride.MethodOverrideConfig)
		if err != nil {
			return err
		}
		a.before = append(a.before, override)
	}

	if mw.AccessLog.Enabled {
		level, err := config.ParseLevel(mw.AccessLog.Level)
		if err != nil {
			return err
		}
		a.after = append(a.after, muxhandlers.AccessLogMiddleware(muxhandlers.AccessLogConfig{
			Logger: a.log,
			Level:  level,
		}))
	}

	if mw.Metrics.Enabled {
		metrics, err := muxhandlers.MetricsMiddleware(muxhandlers.MetricsConfig{
			Namespace: mw.Metrics.Namespace,
			Subsystem: mw.Metrics.Subsystem,
			Registry:  a.registry,
		})
		if err != nil {
			return err
		}
		a.after = append(a.after, metrics)
	}

	if mw.SecurityHeaders.Enabled {
		headers, err := muxhandlers.SecurityHeadersMiddleware(mw.SecurityHeaders.SecurityHeadersConfig)
		if err != nil {
			return err
		}
		a.after = append(a.after, headers)
	}

	if mw.CORSMethods {
		a.after = append(a.after, mux.CORSMethodMiddleware(a.router, a.cfg.SkipCleanPath))
	}

	return nil
}

// Use appends middleware that runs after routing, so mux.CurrentAction
// reports the routed action. Use must be called before the App serves its
// first request.
func (a *App) Use(mws ...mux.MiddlewareFunc) {
	a.after = append(a.after, mws...)
}

// Router returns the route table.
func (a *App) Router() *mux.Router {
	return a.router
}

// Config returns the configuration the App was built with.
func (a *App) Config() config.Config {
	return a.cfg
}

// Handler returns the App wrapped in the middleware that runs before
// routing: panic recovery, request IDs, the request size limit and method
// override, as enabled by the configuration.
func (a *App) Handler() http.Handler {
	return mux.Chain(a, a.before...)
}

// ServeHTTP routes the request and serves the routed action. When recovery
// is enabled the action itself is also guarded, so a panicking action is
// seen by the access log and metrics as a 500 response.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := mux.RequestPath(r.URL, a.cfg.SkipCleanPath)
	action := a.router.Route(path, r.Method)

	a.routedOnce.Do(func() {
		var h http.Handler = http.HandlerFunc(a.serveAction)
		if a.recovery != nil {
			h = a.recovery(h)
		}
		a.routed = mux.Chain(h, a.after...)
	})

	a.routed.ServeHTTP(w, mux.SetAction(r, action))
}

func (a *App) serveAction(w http.ResponseWriter, r *http.Request) {
	action, _ := mux.CurrentAction(r)

	out, err := a.invoke(r.Context(), action, r)
	if err != nil {
		a.log.ErrorContext(r.Context(), "dispatch failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("action", action.String()),
			slog.String("request_id", muxhandlers.RequestIDFromContext(r.Context())),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if effect, ok := out.Effect(); ok {
		effect.Apply(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.WriteString(w, out.Page().HTML()); err != nil {
		a.log.DebugContext(r.Context(), "write response", slog.Any("error", err))
	}
}

// Dispatch routes target and method and invokes the routed action without
// an HTTP request. target may carry a query string, which is ignored. It
// is used to render pages outside of a server.
func (a *App) Dispatch(ctx context.Context, target, method string) (controller.Outcome, error) {
	u, err := url.Parse(target)
	if err != nil {
		return controller.Outcome{}, fmt.Errorf("app: parse target %q: %w", target, err)
	}

	action := a.router.Route(mux.RequestPath(u, a.cfg.SkipCleanPath), method)

	return a.invoke(mux.WithAction(ctx, action), action, nil)
}

func (a *App) invoke(ctx context.Context, action controller.Action, r *http.Request) (controller.Outcome, error) {
	out, err := action.Invoke(ctx, a.controllers, r)
	if err != nil {
		return controller.Outcome{}, err
	}

	if out.IsZero() || (!out.IsHalted() && out.Page() == nil) {
		return controller.Outcome{}, fmt.Errorf("%w: %s", ErrNotAPage, action)
	}

	return out, nil
}
