package controller

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vitalvas/veloz/view"
)

// Decorator contributes template variables to every page of the
// controllers it is registered for.
type Decorator interface {
	// TemplateVars returns the variables to add, computed from a copy of
	// the variables accumulated so far. It must not return any key that
	// already exists.
	TemplateVars(ctx context.Context, vars view.Vars) (view.Vars, error)
}

// DecoratorFunc adapts a function to the Decorator interface.
type DecoratorFunc func(ctx context.Context, vars view.Vars) (view.Vars, error)

// TemplateVars implements Decorator.
func (f DecoratorFunc) TemplateVars(ctx context.Context, vars view.Vars) (view.Vars, error) {
	return f(ctx, vars)
}

// applyDecorators merges each decorator's contribution into a copy of vars,
// in order. Decorators may only add variables.
func applyDecorators(ctx context.Context, decorators []Decorator, vars view.Vars) (view.Vars, error) {
	merged := vars.Clone()

	for _, d := range decorators {
		added, err := d.TemplateVars(ctx, merged.Clone())
		if err != nil {
			return nil, fmt.Errorf("controller: decorator %T: %w", d, err)
		}

		keys := slices.Sorted(maps.Keys(added))
		for _, k := range keys {
			if _, exists := merged[k]; exists {
				return nil, fmt.Errorf("%w: %q from %T", ErrDecoratorConflict, k, d)
			}
		}

		for _, k := range keys {
			merged[k] = added[k]
		}
	}

	return merged, nil
}
