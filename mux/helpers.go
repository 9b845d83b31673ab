package mux

import (
	"net/url"
	"path"
)

// CleanPath returns the canonical path for p, eliminating . and .. elements
// per RFC 3986 Section 5.2.4 (remove dot segments).
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	// path.Clean removes trailing slash except for root;
	// put the trailing slash back if necessary.
	if p[len(p)-1] == '/' && np != "/" {
		np += "/"
	}
	return np
}

// RequestPath returns the path of u to route on: the escaped path as sent,
// cleaned unless skipClean is set. Percent-encoded slashes stay inside their
// segment and placeholder values keep their escaping. The query string never
// takes part in routing.
func RequestPath(u *url.URL, skipClean bool) string {
	p := u.EscapedPath()
	if skipClean {
		if p == "" {
			return "/"
		}
		return p
	}
	return CleanPath(p)
}

// matchInArray returns true if the given string value is in the array.
func matchInArray(arr []string, value string) bool {
	for _, v := range arr {
		if v == value {
			return true
		}
	}
	return false
}
