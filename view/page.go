package view

import (
	"fmt"
	"html/template"
)

// BodyContentKey is the variable a layout reads the rendered body from.
// It is always set by FromLayout and overrides a caller variable of the
// same name.
const BodyContentKey = "bodyContent"

// Page is a rendered page together with the variables used to render it.
// A Page is immutable once built.
type Page struct {
	html string
	vars Vars
}

// Empty returns a page with no content and no variables.
func Empty() *Page {
	return &Page{vars: Vars{}}
}

// FromHTML returns a page holding the given HTML as is.
func FromHTML(html string) *Page {
	return &Page{html: html, vars: Vars{}}
}

// HTML returns the rendered content.
func (p *Page) HTML() string {
	return p.html
}

// Vars returns a copy of the variables the page was rendered with.
func (p *Page) Vars() Vars {
	return p.vars.Clone()
}

// FromTemplate renders a single template into a page.
func (e *Engine) FromTemplate(path string, vars Vars) (*Page, error) {
	vars = vars.Clone()

	out, err := e.LoadTemplate(path, vars)
	if err != nil {
		return nil, err
	}

	out, err = e.minifyHTML(out)
	if err != nil {
		return nil, err
	}

	return &Page{html: out, vars: vars}, nil
}

// FromLayout renders the body template at bodyPath and then the layout
// template with vars plus the rendered body under BodyContentKey. An empty
// layoutPath selects the engine's default layout. A missing body template
// yields an empty body; any other body failure is returned.
func (e *Engine) FromLayout(bodyPath string, vars Vars, layoutPath string) (*Page, error) {
	if layoutPath == "" {
		layoutPath = e.layout
	}

	vars = vars.Clone()

	var body string
	if bodyPath != "" {
		var err error
		body, err = e.LoadTemplate(bodyPath, vars)
		if err != nil {
			return nil, fmt.Errorf("view: render body %q: %w", bodyPath, err)
		}
	}

	layoutVars := vars.Clone()
	layoutVars[BodyContentKey] = template.HTML(body)

	out, err := e.LoadTemplate(layoutPath, layoutVars)
	if err != nil {
		return nil, fmt.Errorf("view: render layout %q: %w", layoutPath, err)
	}

	out, err = e.minifyHTML(out)
	if err != nil {
		return nil, err
	}

	return &Page{html: out, vars: vars}, nil
}
