package view

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Component is a self-rendering piece of markup that templates can embed
// with the component function.
type Component interface {
	Render() (string, error)
}

var sanitizePolicies = map[string]*bluemonday.Policy{
	"strict": bluemonday.StrictPolicy(),
	"ugc":    bluemonday.UGCPolicy(),
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// builtinFuncs returns a fresh function map for a new Engine.
func builtinFuncs() template.FuncMap {
	funcs := sprig.HtmlFuncMap()

	funcs["markdown"] = FuncMarkdown
	funcs["sanitizeHtml"] = FuncSanitizeHTML
	funcs["humanize"] = FuncHumanize
	funcs["component"] = FuncComponent

	return funcs
}

// FuncMarkdown converts CommonMark (with GitHub extensions) to HTML.
func FuncMarkdown(input string) (template.HTML, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	if err := markdown.Convert([]byte(input), buf); err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil
}

// FuncSanitizeHTML cleans input with the named policy: "strict" removes all
// markup, "ugc" keeps markup that is safe for user generated content.
func FuncSanitizeHTML(policyName, input string) (template.HTML, error) {
	policy, ok := sanitizePolicies[policyName]
	if !ok {
		return "", fmt.Errorf("view: unknown sanitize policy %q", policyName)
	}

	return template.HTML(policy.Sanitize(input)), nil
}

// FuncHumanize formats data for people. formatType is "size" for a byte
// count or "time" for a timestamp, optionally followed by ":<layout>"
// (RFC1123Z by default).
func FuncHumanize(formatType, data string) (string, error) {
	kind, layout, _ := strings.Cut(formatType, ":")

	switch kind {
	case "size":
		n, err := strconv.ParseUint(data, 10, 64)
		if err != nil {
			return "", fmt.Errorf("humanize: size cannot be parsed: %w", err)
		}
		return humanize.Bytes(n), nil

	case "time":
		if layout == "" {
			layout = time.RFC1123Z
		}
		t, err := time.Parse(layout, data)
		if err != nil {
			return "", fmt.Errorf("humanize: time cannot be parsed: %w", err)
		}
		return humanize.Time(t), nil
	}

	return "", fmt.Errorf("humanize: unknown format type %q", kind)
}

// FuncComponent renders c. A nil component renders nothing.
func FuncComponent(c Component) (template.HTML, error) {
	if c == nil {
		return "", nil
	}

	out, err := c.Render()
	if err != nil {
		return "", fmt.Errorf("view: render component %T: %w", c, err)
	}

	return template.HTML(out), nil
}
