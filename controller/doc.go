// Package controller binds routes to controller actions and builds pages.
//
// An Action names a controller registered in a Container, one of its
// actions and the parameters to call it with. Invoking an Action resolves
// the controller, runs its optional BeforeAction hook and calls the handler,
// which returns an Outcome: either a rendered page or a halting HTTP effect
// such as a redirect.
//
// Controllers embed Base and list their actions:
//
//	type Home struct {
//	    controller.Base
//	}
//
//	func (h *Home) Actions() controller.Actions {
//	    return controller.Actions{"index": h.Index}
//	}
//
//	func (h *Home) Index(ctx context.Context, req *controller.Request) (controller.Outcome, error) {
//	    return controller.Render(h.Page(ctx, "index", view.Vars{"title": "Home"}))
//	}
//
// Base.Page applies the controller's decorators, renders sections, resolves
// the body template as <controller name>/<body> and composes it into the
// layout.
//
// Redirect and MethodNotAllowed actions are served by built-in controllers
// that every Container registers. Both halt the request: their Outcome
// carries status and headers and no page.
package controller
