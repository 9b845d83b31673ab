package mux

import (
	"regexp"
	"sync"
)

// regexpCache holds every expression compiled by the package, keyed by its
// source. Routers built from the same route table share the compiled
// patterns and placeholder constraints.
var regexpCache sync.Map

// compileRegexp returns the cached *regexp.Regexp for expr, compiling it on
// first use.
func compileRegexp(expr string) (*regexp.Regexp, error) {
	if v, ok := regexpCache.Load(expr); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	actual, _ := regexpCache.LoadOrStore(expr, re)

	return actual.(*regexp.Regexp), nil
}

// compileConstraint returns the cached matcher for a placeholder constraint.
// The constraint must match the whole captured value.
func compileConstraint(expr string) (*regexp.Regexp, error) {
	return compileRegexp(anchor(expr))
}

// mustCompileConstraint is compileConstraint for the built-in macro table.
func mustCompileConstraint(expr string) *regexp.Regexp {
	re, err := compileConstraint(expr)
	if err != nil {
		panic("mux: invalid built-in constraint " + expr + ": " + err.Error())
	}
	return re
}

func anchor(expr string) string {
	return "^(?:" + expr + ")$"
}
