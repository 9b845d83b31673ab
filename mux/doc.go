// Package mux maps request paths and methods to controller actions.
//
// # Router
//
// Create a router with the action for unmatched paths and register
// patterns in priority order:
//
//	r := mux.NewRouter(controller.NewAction("home", "notFound"))
//	r.Path("/").Method(http.MethodGet, controller.NewAction("home", "index"))
//	r.Path("/articles/<category>/<id:int>").
//	    Methods(controller.NewAction("articles", "show"), http.MethodGet, http.MethodHead)
//	r.Path("/old").Method(http.MethodGet, controller.NewRedirect("/", http.StatusMovedPermanently))
//
//	if err := r.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Router.Route returns the action for a path and method. The first pattern
// in registration order that matches the whole path wins, so register more
// specific patterns first. When the path matches but the method is not
// registered, the result is a method-not-allowed action carrying the
// pattern's methods in registration order.
//
// # Placeholders
//
// A <name> placeholder matches one or more characters other than "/". The
// captured values become the action parameters, named after their
// placeholders, in pattern order:
//
//	a := r.Route("/articles/go/42", http.MethodGet)
//	id, _ := a.Params().Get("id") // "42"
//
// A placeholder may be narrowed with a macro or a regular expression after
// a colon:
//
//	r.Path("/users/<id:uuid>")
//	r.Path("/pages/<page:int>")
//	r.Path("/posts/<slug:slug>")
//	r.Path("/items/<code:[A-Z]{3}>")
//
// Available macros:
//
//	uuid     - RFC 4122 UUID (e.g. 550e8400-e29b-41d4-a716-446655440000)
//	int      - unsigned integer (e.g. 42)
//	float    - decimal number (e.g. 3.14, 42, .5)
//	slug     - URL-safe slug (e.g. my-post-title)
//	alpha    - alphabetic characters (e.g. hello)
//	alphanum - alphanumeric characters (e.g. abc123)
//	date     - ISO 8601 date (e.g. 2024-01-15)
//	hex      - hexadecimal string (e.g. deadBEEF)
//	domain   - domain name per RFC 1123 (e.g. example.com, sub.example.co.uk)
//	locale   - language tag prefix (e.g. en, pt-BR)
//
// Text outside placeholders is matched literally.
//
// # Setup Errors
//
// Invalid patterns and method entries are recorded on their route and
// reported together by Router.Err. A route with an error never matches.
//
// # Context Functions
//
// The dispatcher stores the routed action in the request context:
//
//	a, ok := mux.CurrentAction(r)
//	id, ok := mux.VarGet(r, "id")
//
// SetAction stores an action for testing middleware.
//
// # Path Cleaning
//
// CleanPath removes dot segments per RFC 3986 Section 5.2.4. RequestPath
// applies it to a request URL unless cleaning is disabled.
//
// # Walking Routes
//
// Walk calls a function for each route in registration order:
//
//	r.Walk(func(route *mux.Route) error {
//	    fmt.Println(route.Pattern(), route.GetMethods())
//	    return nil
//	})
package mux
