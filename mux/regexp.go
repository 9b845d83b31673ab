package mux

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vitalvas/veloz/controller"
)

// defaultPattern matches one placeholder value: one or more non-slash
// characters.
const defaultPattern = "[^/]+"

var placeholderNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// routeRegexp stores a compiled route pattern and its placeholders.
type routeRegexp struct {
	// template is the pattern as registered.
	template string
	// regexp is the compiled pattern, anchored at both ends.
	regexp *regexp.Regexp
	// varsN are the placeholder names in pattern order.
	varsN []string
	// varsG are the capture group indexes of each placeholder.
	varsG []int
	// varsR validate each captured value.
	varsR []varMatcher
}

// newRouteRegexp parses a route pattern. Each <name> placeholder matches one
// or more non-slash characters; <name:macro> and <name:regexp> narrow it.
// Literal text is matched as is.
func newRouteRegexp(tpl string) (*routeRegexp, error) {
	idxs, err := angleIndices(tpl)
	if err != nil {
		return nil, err
	}

	var (
		pattern bytes.Buffer
		varsN   []string
		varsG   []int
		varsR   []varMatcher
		end     int
	)

	pattern.WriteByte('^')

	for i := 0; i < len(idxs); i += 2 {
		raw := tpl[end:idxs[i]]
		end = idxs[i+1]

		name, patt, _ := strings.Cut(tpl[idxs[i]+1:end-1], ":")
		if !placeholderNameRe.MatchString(name) {
			return nil, fmt.Errorf("%w: invalid placeholder name in %q from %q", ErrInvalidPattern, tpl[idxs[i]:end], tpl)
		}

		var matcher varMatcher
		if patt == "" {
			patt = defaultPattern
		} else {
			patt, matcher = expandMacro(patt)
		}

		if matcher == nil {
			re, err := compileConstraint(patt)
			if err != nil {
				return nil, fmt.Errorf("%w: placeholder %q in %q: %w", ErrInvalidPattern, name, tpl, err)
			}
			matcher = re
		}

		group := "v" + strconv.Itoa(len(varsN))
		fmt.Fprintf(&pattern, "%s(?P<%s>%s)", regexp.QuoteMeta(raw), group, patt)

		varsN = append(varsN, name)
		varsR = append(varsR, matcher)
	}

	pattern.WriteString(regexp.QuoteMeta(tpl[end:]))
	pattern.WriteByte('$')

	if err := checkDuplicateVars(varsN); err != nil {
		return nil, err
	}

	reg, err := compileRegexp(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, tpl, err)
	}

	for i := range varsN {
		varsG = append(varsG, reg.SubexpIndex("v"+strconv.Itoa(i)))
	}

	return &routeRegexp{
		template: tpl,
		regexp:   reg,
		varsN:    varsN,
		varsG:    varsG,
		varsR:    varsR,
	}, nil
}

// literal reports whether the pattern has no placeholders.
func (r *routeRegexp) literal() bool {
	return len(r.varsN) == 0
}

// match tests the whole path against the pattern and returns the captured
// placeholder values in pattern order.
func (r *routeRegexp) match(path string) (controller.Params, bool) {
	if r.literal() {
		return nil, r.template == path
	}

	matches := r.regexp.FindStringSubmatch(path)
	if matches == nil {
		return nil, false
	}

	params := make(controller.Params, len(r.varsN))
	for i, name := range r.varsN {
		v := matches[r.varsG[i]]
		if !r.varsR[i].MatchString(v) {
			return nil, false
		}
		params[i] = controller.Param{Name: name, Value: v}
	}

	return params, true
}

// angleIndices returns the start and end+1 indices of each top-level
// <...> pair in s. Returns an error if the brackets are unbalanced.
func angleIndices(s string) ([]int, error) {
	var (
		idxs  []int
		level int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			if level++; level == 1 {
				idxs = append(idxs, i)
			}
		case '>':
			if level--; level == 0 {
				idxs = append(idxs, i+1)
			} else if level < 0 {
				return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrInvalidPattern, s)
			}
		}
	}
	if level != 0 {
		return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrInvalidPattern, s)
	}
	return idxs, nil
}

// checkDuplicateVars returns an error if any placeholder name is repeated.
func checkDuplicateVars(vars []string) error {
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return fmt.Errorf("%w: duplicated placeholder %q", ErrInvalidPattern, v)
		}
		seen[v] = true
	}
	return nil
}
