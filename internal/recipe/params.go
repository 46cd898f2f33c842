package recipe

import (
	"fmt"
	"strings"
)

// ResolveParams merges supplied parameter values with declared defaults
// and validates the result against the recipe's parameter definitions.
//
// Rules:
//   - Supplied keys must be declared; an unknown key is almost always a
//     typo and is rejected rather than silently ignored.
//   - Missing or blank required parameters are an error.
//   - Missing optional parameters take their default (possibly "").
func ResolveParams(r *Recipe, supplied map[string]string) (map[string]string, error) {
	for key := range supplied {
		if _, ok := r.Param(key); !ok {
			return nil, fmt.Errorf("recipe %s: unknown parameter %q", r.ID, key)
		}
	}

	resolved := make(map[string]string, len(r.Params))
	for _, p := range r.Params {
		value, ok := supplied[p.Name]
		if !ok || value == "" {
			value = p.Default
		}
		if p.Required && strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("recipe %s: required parameter %q is missing", r.ID, p.Name)
		}
		resolved[p.Name] = value
	}
	return resolved, nil
}

// Resolve renders a recipe against supplied parameters: validates and
// defaults the parameters, then substitutes them into every step.
func (r *Recipe) Resolve(supplied map[string]string) ([]ResolvedStep, error) {
	params, err := ResolveParams(r, supplied)
	if err != nil {
		return nil, err
	}
	return ResolveSteps(r.Steps, params)
}

// Commands expands resolved steps into the flat queueable command list,
// dropping steps marked skippable.
func Commands(steps []ResolvedStep, ec ExecContext) ([]Command, error) {
	var cmds []Command
	for _, step := range steps {
		if step.Skippable {
			continue
		}
		stepCmds, err := step.Commands(ec)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", step.Index, step.ActionName, err)
		}
		cmds = append(cmds, stepCmds...)
	}
	return cmds, nil
}
