package recipe

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe matches {{param}} tokens, tolerating inner whitespace.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// ResolvedStep is a Step after parameter substitution.
//
// Skippable is true when any of the step's originally placeholder-
// bearing args referenced a parameter that resolved to an empty or
// whitespace-only string - the policy for optional wizard fields left
// blank. Skippable steps are excluded from the apply run by default.
type ResolvedStep struct {
	Index       int            `json:"index"`
	Action      ActionKind     `json:"-"`
	ActionName  string         `json:"action"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Args        map[string]any `json:"args"`
	Skippable   bool           `json:"skippable"`
}

// ResolveSteps renders recipe steps against a concrete parameter map.
//
// Pure function: no I/O, no registry lookups beyond the action-name
// parse. Unknown action names fail the whole resolution - a recipe
// with an unrecognized step must not partially resolve.
//
// Substitution rules:
//   - An arg that is exactly one placeholder whose value is the literal
//     string "true" or "false" is coerced to a real boolean.
//   - Everything else is plain textual substitution, including
//     mixed-text args ("Hello {{name}}!").
//   - Skippability is judged on the ORIGINAL template: a step whose
//     template references a parameter that resolved empty is skipped
//     whole, even if its other placeholders resolved fine.
func ResolveSteps(steps []Step, params map[string]string) ([]ResolvedStep, error) {
	resolved := make([]ResolvedStep, 0, len(steps))

	for i, step := range steps {
		kind, err := parseActionKind(step.Action)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Label, err)
		}

		rs := ResolvedStep{
			Index:       i,
			Action:      kind,
			ActionName:  step.Action,
			Label:       substitute(step.Label, params),
			Description: substitute(step.Description, params),
			Args:        make(map[string]any, len(step.Args)),
		}

		for key, tmpl := range step.Args {
			if referencesBlankParam(tmpl, params) {
				rs.Skippable = true
			}
			rs.Args[key] = substituteArg(tmpl, params)
		}

		resolved = append(resolved, rs)
	}

	return resolved, nil
}

// substituteArg renders one arg template, applying the lone-placeholder
// boolean coercion.
func substituteArg(tmpl string, params map[string]string) any {
	if name, ok := lonePlaceholder(tmpl); ok {
		value := params[name]
		switch value {
		case "true":
			return true
		case "false":
			return false
		}
		return value
	}
	return substitute(tmpl, params)
}

// substitute performs plain textual placeholder replacement.
// Placeholders with no matching parameter render as empty strings.
func substitute(tmpl string, params map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		return params[name]
	})
}

// lonePlaceholder reports whether tmpl is exactly one placeholder
// (ignoring surrounding whitespace) and returns its parameter name.
func lonePlaceholder(tmpl string) (string, bool) {
	trimmed := strings.TrimSpace(tmpl)
	m := placeholderRe.FindStringSubmatch(trimmed)
	if m == nil || m[0] != trimmed {
		return "", false
	}
	return m[1], true
}

// referencesBlankParam reports whether the template references any
// parameter whose value is empty or whitespace-only.
func referencesBlankParam(tmpl string, params map[string]string) bool {
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if strings.TrimSpace(params[m[1]]) == "" {
			return true
		}
	}
	return false
}
