package mux

import (
	"net/http"
	"strings"
)

// CORSMethodMiddleware sets the Access-Control-Allow-Methods response header
// (Fetch Standard, CORS protocol) to the methods registered for the route
// whose pattern matches the request path. Unmatched paths are left alone.
func CORSMethodMiddleware(r *Router, skipClean bool) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if methods := getAllMethodsForRoute(r, RequestPath(req.URL, skipClean)); len(methods) > 0 {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
			}
			next.ServeHTTP(w, req)
		})
	}
}

// getAllMethodsForRoute returns the methods of the first route matching
// path, in registration order.
func getAllMethodsForRoute(router *Router, path string) []string {
	route, _ := router.match(path)
	if route == nil {
		return nil
	}

	return route.GetMethods()
}
