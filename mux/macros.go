package mux

import (
	"maps"
	"regexp"
	"slices"
)

// varMatcher validates a single placeholder value.
// *regexp.Regexp satisfies this interface.
type varMatcher interface {
	MatchString(string) bool
	String() string
}

// lengthMatcher wraps a regexp with an additional maximum length constraint.
type lengthMatcher struct {
	re     *regexp.Regexp
	maxLen int
}

func (m *lengthMatcher) MatchString(s string) bool {
	return len(s) <= m.maxLen && m.re.MatchString(s)
}

func (m *lengthMatcher) String() string {
	return m.re.String()
}

// macro holds a pattern string and its pre-compiled validation matcher.
type macro struct {
	pattern string
	matcher varMatcher
}

// patternMacros maps macro names to their compiled patterns.
// Used in placeholders: <name:macro>.
var patternMacros = func() map[string]macro {
	raw := map[string]struct {
		pattern string
		maxLen  int
	}{
		"uuid":     {pattern: `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`},
		"int":      {pattern: `[0-9]+`},
		"float":    {pattern: `[0-9]*\.?[0-9]+`},
		"slug":     {pattern: `[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`},
		"alpha":    {pattern: `[a-zA-Z]+`},
		"alphanum": {pattern: `[a-zA-Z0-9]+`},
		"date":     {pattern: `[0-9]{4}-[0-9]{2}-[0-9]{2}`},
		"hex":      {pattern: `[0-9a-fA-F]+`},
		// Language tag prefix used for localized pages: en, pt-BR.
		"locale": {pattern: `[a-z]{2}(?:-[A-Z]{2})?`},
		// RFC 1035/1123: labels 1-63 chars, total up to 253 chars.
		"domain": {
			pattern: `(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`,
			maxLen:  253,
		},
	}

	m := make(map[string]macro, len(raw))
	for name, def := range raw {
		re := mustCompileConstraint(def.pattern)

		var matcher varMatcher = re
		if def.maxLen > 0 {
			matcher = &lengthMatcher{re: re, maxLen: def.maxLen}
		}

		m[name] = macro{pattern: def.pattern, matcher: matcher}
	}

	return m
}()

// expandMacro returns the regexp for a placeholder constraint and a
// pre-compiled validation matcher. If the name is not a known macro, it
// returns the input unchanged with a nil matcher (caller must compile).
func expandMacro(pattern string) (string, varMatcher) {
	if m, ok := patternMacros[pattern]; ok {
		return m.pattern, m.matcher
	}

	return pattern, nil
}

// Macros returns the names of the built-in placeholder constraints, sorted.
func Macros() []string {
	return slices.Sorted(maps.Keys(patternMacros))
}
