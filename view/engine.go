package view

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"maps"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	minifyhtml "github.com/tdewolff/minify/v2/html"
)

const (
	// DefaultTemplateDir is the template root used when Options.TemplateDir
	// is empty.
	DefaultTemplateDir = "templates"

	// DefaultExtension is the template file extension used when
	// Options.Extension is empty.
	DefaultExtension = ".html"

	// DefaultLayout is the layout template used when Options.DefaultLayout
	// is empty.
	DefaultLayout = "layout"
)

// ErrInvalidWordCount is returned by GetSnippet for word counts below -1.
var ErrInvalidWordCount = errors.New("view: word count must be -1 or non-negative")

var (
	bufPool = sync.Pool{
		New: func() any { return new(bytes.Buffer) },
	}

	whitespaceRe = regexp.MustCompile(`\s+`)

	// stripPolicy removes every element and keeps text content only.
	stripPolicy = bluemonday.StrictPolicy()
)

// Vars is the variable mapping handed to a template.
type Vars map[string]any

// Clone returns a shallow copy of v. The copy of a nil mapping is empty,
// not nil.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	maps.Copy(out, v)
	return out
}

// Options configures an Engine.
type Options struct {
	// SourceDir is the directory every template path is resolved against.
	SourceDir string

	// TemplateDir is the template root below SourceDir.
	// Defaults to DefaultTemplateDir.
	TemplateDir string

	// Extension is appended to every template path.
	// Defaults to DefaultExtension.
	Extension string

	// DefaultLayout is the layout used by FromLayout when no layout is given.
	// Defaults to DefaultLayout.
	DefaultLayout string

	// Funcs are added to the template function map, overriding built-ins
	// with the same name.
	Funcs template.FuncMap

	// Fs is the filesystem templates are read from. Defaults to the OS
	// filesystem.
	Fs afero.Fs

	// Minify minifies the HTML produced by the page factories.
	Minify bool

	// Logger receives debug output about template loading. When nil,
	// nothing is logged.
	Logger *slog.Logger
}

// Engine loads and renders templates. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	fs          afero.Fs
	sourceDir   string
	templateDir string
	ext         string
	layout      string
	funcs       template.FuncMap
	minifier    *minify.M
	log         *slog.Logger
}

// NewEngine returns an Engine configured by opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		fs:          opts.Fs,
		sourceDir:   opts.SourceDir,
		templateDir: opts.TemplateDir,
		ext:         opts.Extension,
		layout:      opts.DefaultLayout,
		funcs:       builtinFuncs(),
		log:         opts.Logger,
	}

	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.templateDir == "" {
		e.templateDir = DefaultTemplateDir
	}
	if e.ext == "" {
		e.ext = DefaultExtension
	}
	if e.layout == "" {
		e.layout = DefaultLayout
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}

	maps.Copy(e.funcs, opts.Funcs)

	if opts.Minify {
		m := minify.New()
		m.Add("text/html", &minifyhtml.Minifier{KeepDocumentTags: true, KeepEndTags: true})
		e.minifier = m
	}

	return e
}

// DefaultLayoutPath returns the layout used when none is given.
func (e *Engine) DefaultLayoutPath() string {
	return e.layout
}

// FilePath returns the file a template path resolves to. When baseDir is
// empty the configured template root is used.
func (e *Engine) FilePath(path, baseDir string) string {
	if baseDir == "" {
		baseDir = e.templateDir
	}

	return filepath.Join(e.sourceDir, baseDir, path+e.ext)
}

// LoadTemplate renders the template at path with vars and returns the output.
// The optional baseDir replaces the configured template root. A missing
// template file is not an error: it renders as the empty string.
func (e *Engine) LoadTemplate(path string, vars Vars, baseDir ...string) (string, error) {
	dir := ""
	if len(baseDir) > 0 {
		dir = baseDir[0]
	}

	file := e.FilePath(path, dir)

	exists, err := afero.Exists(e.fs, file)
	if err != nil {
		return "", fmt.Errorf("view: stat template %q: %w", file, err)
	}
	if !exists {
		e.log.Debug("template not found", slog.String("path", path), slog.String("file", file))
		return "", nil
	}

	raw, err := afero.ReadFile(e.fs, file)
	if err != nil {
		return "", fmt.Errorf("view: read template %q: %w", file, err)
	}

	tpl, err := template.New(path).Funcs(e.funcs).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("view: parse template %q: %w", file, err)
	}

	out, err := render(tpl, vars)
	if err != nil {
		return "", fmt.Errorf("view: execute template %q: %w", file, err)
	}

	e.log.Debug("template rendered", slog.String("path", path), slog.Int("bytes", len(out)))

	return out, nil
}

// render executes tpl into a pooled buffer. The buffer goes back to the pool
// on every exit path and only the captured string escapes.
func render(tpl *template.Template, vars Vars) (string, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	if vars == nil {
		vars = Vars{}
	}

	if err := tpl.Execute(buf, vars); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// GetSnippet renders the template at path and returns its text without
// markup, with whitespace runs collapsed. When wordCount is -1 the whole
// text is returned. Otherwise the first wordCount words are returned
// followed by "...", which is appended even when the text has fewer words.
func (e *Engine) GetSnippet(path string, wordCount int, vars Vars) (string, error) {
	if wordCount < -1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidWordCount, wordCount)
	}

	out, err := e.LoadTemplate(path, vars)
	if err != nil {
		return "", err
	}

	text := html.UnescapeString(stripPolicy.Sanitize(out))
	squashed := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	if wordCount == -1 {
		return squashed, nil
	}

	words := strings.Split(squashed, " ")
	if wordCount < len(words) {
		words = words[:wordCount]
	}

	return strings.Join(words, " ") + "...", nil
}

// minifyHTML runs the configured minifier over rendered HTML.
func (e *Engine) minifyHTML(out string) (string, error) {
	if e.minifier == nil || out == "" {
		return out, nil
	}

	minified, err := e.minifier.String("text/html", out)
	if err != nil {
		return "", fmt.Errorf("view: minify: %w", err)
	}

	return minified, nil
}
