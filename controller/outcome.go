package controller

import (
	"maps"
	"net/http"

	"github.com/vitalvas/veloz/view"
)

// Effect is an HTTP response that ends a request without a page body.
type Effect struct {
	Status int
	Header http.Header
}

// Apply writes the effect's headers and status code to w. No body is written.
func (e Effect) Apply(w http.ResponseWriter) {
	h := w.Header()
	for k, v := range e.Header {
		h[k] = append([]string(nil), v...)
	}

	w.WriteHeader(e.Status)
}

// Outcome is the result of an action: a rendered page or a halting effect.
// The zero Outcome is neither and is rejected by the app.
type Outcome struct {
	page   *view.Page
	effect *Effect
}

// Rendered returns an Outcome carrying p.
func Rendered(p *view.Page) Outcome {
	return Outcome{page: p}
}

// Halted returns an Outcome that stops the request with e.
func Halted(e Effect) Outcome {
	e.Header = maps.Clone(e.Header)
	return Outcome{effect: &e}
}

// Render adapts a page factory result into an action result:
//
//	return controller.Render(c.Page(ctx, "index", vars))
func Render(p *view.Page, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}

	return Rendered(p), nil
}

// Page returns the rendered page, or nil when the outcome has none.
func (o Outcome) Page() *view.Page {
	return o.page
}

// Effect returns the halting effect and whether there is one.
func (o Outcome) Effect() (Effect, bool) {
	if o.effect == nil {
		return Effect{}, false
	}

	return *o.effect, true
}

// IsHalted reports whether the outcome ends the request without a page.
func (o Outcome) IsHalted() bool {
	return o.effect != nil
}

// IsZero reports whether the outcome carries neither a page nor an effect.
func (o Outcome) IsZero() bool {
	return o.page == nil && o.effect == nil
}
