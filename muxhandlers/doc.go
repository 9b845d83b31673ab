// Package muxhandlers provides HTTP middleware for veloz applications.
//
// Every middleware is a mux.MiddlewareFunc. Constructors that validate
// their configuration return an error instead of panicking:
//
//	mw, err := muxhandlers.SecurityHeadersMiddleware(muxhandlers.SecurityHeadersConfig{
//	    FrameOption: "SAMEORIGIN",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Use(mw)
//
// # Before Routing
//
// RecoveryMiddleware, RequestIDMiddleware, MethodOverrideMiddleware and
// RequestSizeLimitMiddleware act on the raw request and are meant to wrap
// the whole application. MethodOverrideMiddleware must run before routing so
// that an HTML form posting a hidden _method field reaches the route
// registered for that method.
//
// # After Routing
//
// AccessLogMiddleware and MetricsMiddleware read the routed action from the
// request context (mux.CurrentAction) and label their output with its
// controller and action. Requests that never reached the router are
// labelled "none".
//
//	mw, err := muxhandlers.MetricsMiddleware(muxhandlers.MetricsConfig{
//	    Namespace: "shop",
//	    Registry:  registry,
//	})
package muxhandlers
