package mux

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitalvas/veloz/controller"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty path", input: "", expected: "/"},
		{name: "root path", input: "/", expected: "/"},
		{name: "simple path", input: "/foo", expected: "/foo"},
		{name: "trailing slash", input: "/foo/", expected: "/foo/"},
		{name: "double slash", input: "/foo//bar", expected: "/foo/bar"},
		{name: "dot segments", input: "/foo/./bar", expected: "/foo/bar"},
		{name: "dotdot segments", input: "/foo/bar/../baz", expected: "/foo/baz"},
		{name: "no leading slash", input: "foo", expected: "/foo"},
		{name: "trailing slash preserved", input: "/foo/bar/", expected: "/foo/bar/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanPath(tt.input))
		})
	}
}

func TestRequestPath(t *testing.T) {
	tests := []struct {
		name      string
		rawURL    string
		skipClean bool
		expected  string
	}{
		{name: "query is ignored", rawURL: "/users?id=1", expected: "/users"},
		{name: "cleaned", rawURL: "/a/../b", expected: "/b"},
		{name: "skip clean", rawURL: "/a/../b", skipClean: true, expected: "/a/../b"},
		{name: "empty path", rawURL: "?x=1", expected: "/"},
		{name: "empty path skip clean", rawURL: "?x=1", skipClean: true, expected: "/"},
		{name: "escaping kept", rawURL: "/caf%C3%A9", expected: "/caf%C3%A9"},
		{name: "encoded slash stays in segment", rawURL: "/items/4%2F2", expected: "/items/4%2F2"},
		{name: "encoded slash skip clean", rawURL: "/items/4%2F2/", skipClean: true, expected: "/items/4%2F2/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, RequestPath(u, tt.skipClean))
		})
	}
}

func TestRequestPathRouting(t *testing.T) {
	r := NewRouter(notFoundAction)
	r.Path("/files/<name>").Method(http.MethodGet, controller.NewAction("files", "show"))

	req := httptest.NewRequest(http.MethodGet, "/files/docs%2Freadme.txt", nil)
	action := r.Route(RequestPath(req.URL, false), req.Method)

	assert.Equal(t, "files.show", action.String())
	name, _ := action.Params().Get("name")
	assert.Equal(t, "docs%2Freadme.txt", name)

	req = httptest.NewRequest(http.MethodGet, "/files/docs/readme.txt", nil)
	assert.Equal(t, notFoundAction, r.Route(RequestPath(req.URL, false), req.Method))
}

func TestMatchInArray(t *testing.T) {
	arr := []string{"GET", "POST"}
	assert.True(t, matchInArray(arr, "GET"))
	assert.False(t, matchInArray(arr, "get"))
	assert.False(t, matchInArray(nil, "GET"))
}

// --- Benchmarks ---

func BenchmarkCleanPath(b *testing.B) {
	paths := []string{
		"/",
		"/foo/bar",
		"/foo/../bar",
		"/foo/./bar//baz/",
		"/a/b/c/d/e/f/g",
	}
	b.ResetTimer()
	for b.Loop() {
		for _, p := range paths {
			CleanPath(p)
		}
	}
}

// --- Fuzz ---

func FuzzCleanPath(f *testing.F) {
	f.Add("")
	f.Add("/")
	f.Add("/foo/bar")
	f.Add("/foo/../bar")
	f.Add("/foo/./bar//baz/")
	f.Add("no-leading-slash")
	f.Add("/a/b/../../../c")

	f.Fuzz(func(t *testing.T, path string) {
		if got := CleanPath(path); got == "" || got[0] != '/' {
			t.Fatalf("CleanPath(%q) = %q", path, got)
		}
	})
}
