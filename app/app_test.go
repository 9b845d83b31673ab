package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/veloz/config"
	"github.com/vitalvas/veloz/controller"
	"github.com/vitalvas/veloz/mux"
	"github.com/vitalvas/veloz/view"
)

type Site struct {
	controller.Base
}

func (s *Site) Actions() controller.Actions {
	return controller.Actions{
		"index":    s.index,
		"notFound": s.notFound,
		"show":     s.show,
		"update":   s.update,
		"moved":    s.moved,
		"empty":    s.empty,
		"panic":    s.panic,
	}
}

func (s *Site) index(ctx context.Context, _ *controller.Request) (controller.Outcome, error) {
	return controller.Render(s.Page(ctx, "index", view.Vars{"title": "Home"}))
}

func (s *Site) notFound(ctx context.Context, _ *controller.Request) (controller.Outcome, error) {
	return controller.Render(s.Page(ctx, "notFound", view.Vars{"title": "Not Found"}))
}

func (s *Site) show(ctx context.Context, req *controller.Request) (controller.Outcome, error) {
	id, _ := req.Params.Get("id")
	return controller.Render(s.Page(ctx, "show", view.Vars{"title": "Item", "id": id}))
}

func (s *Site) update(ctx context.Context, req *controller.Request) (controller.Outcome, error) {
	return controller.Render(s.Page(ctx, "show", view.Vars{"title": "Updated", "id": req.HTTP.Method}))
}

func (s *Site) moved(context.Context, *controller.Request) (controller.Outcome, error) {
	return s.Redirect("/", http.StatusMovedPermanently)
}

func (s *Site) empty(context.Context, *controller.Request) (controller.Outcome, error) {
	return controller.Outcome{}, nil
}

func (s *Site) panic(context.Context, *controller.Request) (controller.Outcome, error) {
	panic("controller exploded")
}

func newTestContainer(t *testing.T) *controller.Container {
	t.Helper()

	files := map[string]string{
		"templates/layout.html":        `<title>{{.title}}</title><main>{{.bodyContent}}</main>`,
		"templates/Site/index.html":    `<h1>Welcome</h1>`,
		"templates/Site/notFound.html": `<h1>Nothing here</h1>`,
		"templates/Site/show.html":     `<p>{{.id}}</p>`,
	}

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/site", name), []byte(content), 0o644))
	}

	c := controller.NewContainer(view.NewEngine(view.Options{SourceDir: "/site", Fs: fs}))
	c.MustRegister("site", func() controller.Controller { return &Site{} })

	return c
}

func newTestRouter() *mux.Router {
	r := mux.NewRouter(controller.NewAction("site", "notFound"))
	r.Path("/").Method(http.MethodGet, controller.NewAction("site", "index"))
	r.Path("/items/<id:int>").
		Method(http.MethodGet, controller.NewAction("site", "show")).
		Method(http.MethodPut, controller.NewAction("site", "update"))
	r.Path("/temporary-redirect").Method(http.MethodGet, controller.NewRedirect("https://example.com"))
	r.Path("/permanent-redirect").Method(http.MethodGet, controller.NewRedirect("https://example.com", http.StatusMovedPermanently))
	r.Path("/moved").Method(http.MethodGet, controller.NewAction("site", "moved"))
	r.Path("/empty").Method(http.MethodGet, controller.NewAction("site", "empty"))
	r.Path("/panic").Method(http.MethodGet, controller.NewAction("site", "panic"))

	return r
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Middleware.Metrics.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, opts ...Option) *App {
	t.Helper()

	a, err := New(cfg, newTestRouter(), newTestContainer(t), opts...)
	require.NoError(t, err)

	return a
}

func TestNew(t *testing.T) {
	t.Run("valid route table", func(t *testing.T) {
		a, err := New(testConfig(), newTestRouter(), newTestContainer(t))
		require.NoError(t, err)
		assert.NotNil(t, a.Router())
		assert.Equal(t, testConfig(), a.Config())
	})

	t.Run("router setup error", func(t *testing.T) {
		r := newTestRouter()
		r.Path("/<id>/<id>").Method(http.MethodGet, controller.NewAction("site", "show"))

		_, err := New(testConfig(), r, newTestContainer(t))
		assert.ErrorIs(t, err, ErrInvalidRouteTable)
		assert.ErrorIs(t, err, mux.ErrInvalidPattern)
	})

	t.Run("unknown controller", func(t *testing.T) {
		r := newTestRouter()
		r.Path("/users").Method(http.MethodGet, controller.NewAction("users", "index"))

		_, err := New(testConfig(), r, newTestContainer(t))
		assert.ErrorIs(t, err, ErrInvalidRouteTable)
		assert.ErrorIs(t, err, controller.ErrUnknownController)
	})

	t.Run("unknown action", func(t *testing.T) {
		r := newTestRouter()
		r.Path("/edit").Method(http.MethodGet, controller.NewAction("site", "edit"))

		_, err := New(testConfig(), r, newTestContainer(t))
		assert.ErrorIs(t, err, controller.ErrUnknownAction)
	})

	t.Run("unknown not-found action", func(t *testing.T) {
		r := mux.NewRouter(controller.NewAction("site", "missing"))

		_, err := New(testConfig(), r, newTestContainer(t))
		assert.ErrorIs(t, err, controller.ErrUnknownAction)
	})

	t.Run("invalid redirect status", func(t *testing.T) {
		r := newTestRouter()
		r.Path("/bad").Method(http.MethodGet, controller.NewRedirect("/", http.StatusOK))

		_, err := New(testConfig(), r, newTestContainer(t))
		assert.ErrorIs(t, err, controller.ErrInvalidRedirectStatus)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.LogFormat = "xml"

		_, err := New(cfg, newTestRouter(), newTestContainer(t))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("missing collaborators", func(t *testing.T) {
		_, err := New(testConfig(), nil, newTestContainer(t))
		assert.ErrorIs(t, err, ErrInvalidRouteTable)
	})
}

func TestServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
		wantHeader map[string]string
	}{
		{
			name:       "index",
			method:     http.MethodGet,
			target:     "/",
			wantStatus: http.StatusOK,
			wantBody:   "<title>Home</title><main><h1>Welcome</h1></main>",
			wantHeader: map[string]string{"Content-Type": "text/html; charset=utf-8"},
		},
		{
			name:       "query string is not routed",
			method:     http.MethodGet,
			target:     "/?page=2",
			wantStatus: http.StatusOK,
			wantBody:   "<title>Home</title><main><h1>Welcome</h1></main>",
		},
		{
			name:       "placeholder",
			method:     http.MethodGet,
			target:     "/items/42",
			wantStatus: http.StatusOK,
			wantBody:   "<title>Item</title><main><p>42</p></main>",
		},
		{
			name:       "path is cleaned",
			method:     http.MethodGet,
			target:     "/x/../items/7",
			wantStatus: http.StatusOK,
			wantBody:   "<title>Item</title><main><p>7</p></main>",
		},
		{
			name:       "not found",
			method:     http.MethodGet,
			target:     "/nowhere",
			wantStatus: http.StatusOK,
			wantBody:   "<title>Not Found</title><main><h1>Nothing here</h1></main>",
		},
		{
			name:       "constraint mismatch is not found",
			method:     http.MethodGet,
			target:     "/items/abc",
			wantStatus: http.StatusOK,
			wantBody:   "<title>Not Found</title><main><h1>Nothing here</h1></main>",
		},
		{
			name:       "method not allowed",
			method:     http.MethodDelete,
			target:     "/items/42",
			wantStatus: http.StatusMethodNotAllowed,
			wantHeader: map[string]string{"Allow": "GET, PUT"},
		},
		{
			name:       "temporary redirect",
			method:     http.MethodGet,
			target:     "/temporary-redirect",
			wantStatus: http.StatusFound,
			wantHeader: map[string]string{"Location": "https://example.com"},
		},
		{
			name:       "permanent redirect",
			method:     http.MethodGet,
			target:     "/permanent-redirect",
			wantStatus: http.StatusMovedPermanently,
			wantHeader: map[string]string{"Location": "https://example.com"},
		},
		{
			name:       "controller redirect",
			method:     http.MethodGet,
			target:     "/moved",
			wantStatus: http.StatusMovedPermanently,
			wantHeader: map[string]string{"Location": "/"},
		},
		{
			name:       "action without page",
			method:     http.MethodGet,
			target:     "/empty",
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal Server Error\n",
		},
	}

	a := newTestApp(t, testConfig())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()

			a.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			for k, v := range tt.wantHeader {
				assert.Equal(t, v, w.Header().Get(k), k)
			}
		})
	}

	t.Run("head has no body", func(t *testing.T) {
		r := newTestRouter()
		r.Path("/head").Method(http.MethodHead, controller.NewAction("site", "index"))
		a, err := New(testConfig(), r, newTestContainer(t))
		require.NoError(t, err)

		w := httptest.NewRecorder()
		a.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/head", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("security headers on pages and effects", func(t *testing.T) {
		for _, target := range []string{"/", "/temporary-redirect"} {
			w := httptest.NewRecorder()
			a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), target)
			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"), target)
		}
	})

	t.Run("request id is returned", func(t *testing.T) {
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})
}

func TestMethodOverride(t *testing.T) {
	a := newTestApp(t, testConfig())

	t.Run("form field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items/5", strings.NewReader("_method=put"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		a.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<title>Updated</title><main><p>PUT</p></main>", w.Body.String())
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Middleware.MethodOverride.Enabled = false
		a := newTestApp(t, cfg)

		req := httptest.NewRequest(http.MethodPost, "/items/5", strings.NewReader("_method=put"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		a.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	a := newTestApp(t, testConfig(), WithLogger(log))

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "controller exploded")
}

func TestRecoveryObserved(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	reg := prometheus.NewRegistry()

	cfg := config.Default()
	cfg.Middleware.Metrics.Namespace = "site"
	a := newTestApp(t, cfg, WithLogger(log), WithRegistry(reg))

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var recovered, requests int
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))

		switch rec["msg"] {
		case "panic recovered":
			recovered++
		case "request":
			requests++
			assert.Equal(t, "panic", rec["action"])
			assert.Equal(t, float64(http.StatusInternalServerError), rec["status"])
		}
	}
	assert.Equal(t, 1, recovered)
	assert.Equal(t, 1, requests)

	expected := `
# HELP site_http_requests_total Total number of HTTP requests by controller action and status code
# TYPE site_http_requests_total counter
site_http_requests_total{action="panic",code="500",controller="site",method="GET"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "site_http_requests_total"))

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Middleware.Recovery = false
		a := newTestApp(t, cfg)

		assert.Panics(t, func() {
			a.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
	})
}

func TestDispatchErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))
	a := newTestApp(t, testConfig(), WithLogger(log))

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/empty", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var found bool
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))

		if rec["msg"] == "dispatch failed" {
			found = true
			assert.Equal(t, "site.empty", rec["action"])
			assert.Contains(t, rec["error"], "did not return a page")
		}
	}
	assert.True(t, found)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	a := newTestApp(t, testConfig(), WithLogger(log))

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/9", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "request", rec["msg"])
	assert.Equal(t, "site", rec["controller"])
	assert.Equal(t, "show", rec["action"])
	assert.Equal(t, float64(http.StatusOK), rec["status"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), rec["request_id"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	cfg := config.Default()
	cfg.Middleware.Metrics.Namespace = "site"
	a := newTestApp(t, cfg, WithRegistry(reg))

	for _, target := range []string{"/", "/", "/items/1", "/temporary-redirect"} {
		a.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	expected := `
# HELP site_http_requests_total Total number of HTTP requests by controller action and status code
# TYPE site_http_requests_total counter
site_http_requests_total{action="index",code="200",controller="site",method="GET"} 2
site_http_requests_total{action="redirect",code="302",controller="veloz.Redirect",method="GET"} 1
site_http_requests_total{action="show",code="200",controller="site",method="GET"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "site_http_requests_total"))
}

func TestCORSMethods(t *testing.T) {
	cfg := testConfig()
	cfg.Middleware.CORSMethods = true
	a := newTestApp(t, cfg)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/3", nil))

	assert.Equal(t, "GET,PUT", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestUse(t *testing.T) {
	a := newTestApp(t, testConfig())

	var seen controller.Action
	a.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = mux.CurrentAction(r)
			w.Header().Set("X-Seen", "yes")
			next.ServeHTTP(w, r)
		})
	})

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/11", nil))

	assert.Equal(t, "yes", w.Header().Get("X-Seen"))
	assert.Equal(t, "site", seen.Controller())
	assert.Equal(t, "show", seen.Name())
	assert.Equal(t, controller.Params{{Name: "id", Value: "11"}}, seen.Params())
}

func TestDispatch(t *testing.T) {
	a := newTestApp(t, testConfig())
	ctx := context.Background()

	t.Run("rendered", func(t *testing.T) {
		out, err := a.Dispatch(ctx, "/items/8?x=1", http.MethodGet)
		require.NoError(t, err)
		require.NotNil(t, out.Page())
		assert.Equal(t, "<title>Item</title><main><p>8</p></main>", out.Page().HTML())
		assert.Equal(t, "8", out.Page().Vars()["id"])
	})

	t.Run("halted", func(t *testing.T) {
		out, err := a.Dispatch(ctx, "/permanent-redirect", http.MethodGet)
		require.NoError(t, err)

		effect, ok := out.Effect()
		require.True(t, ok)
		assert.Equal(t, http.StatusMovedPermanently, effect.Status)
		assert.Equal(t, "https://example.com", effect.Header.Get("Location"))
	})

	t.Run("method not allowed", func(t *testing.T) {
		out, err := a.Dispatch(ctx, "/", http.MethodPost)
		require.NoError(t, err)

		effect, ok := out.Effect()
		require.True(t, ok)
		assert.Equal(t, http.StatusMethodNotAllowed, effect.Status)
		assert.Equal(t, "GET", effect.Header.Get("Allow"))
	})

	t.Run("not a page", func(t *testing.T) {
		_, err := a.Dispatch(ctx, "/empty", http.MethodGet)
		assert.ErrorIs(t, err, ErrNotAPage)
		assert.Contains(t, err.Error(), "site.empty")
	})

	t.Run("invalid target", func(t *testing.T) {
		_, err := a.Dispatch(ctx, "%zz", http.MethodGet)
		assert.Error(t, err)
	})
}
