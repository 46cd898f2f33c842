package recipe

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileRecipe parses a CUE value into a Recipe.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the recipe struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`recipes: onboard: { ... }`)
//	r, err := CompileRecipe(v.LookupPath(cue.ParsePath("recipes.onboard")))
func CompileRecipe(v cue.Value) (*Recipe, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	r := &Recipe{}

	// Recipe ID comes from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		r.ID = labels[len(labels)-1].String()
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	r.Name = name

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		r.Description = desc
	}

	r.Params, err = parseParams(v)
	if err != nil {
		return nil, err
	}

	r.Steps, err = parseSteps(v)
	if err != nil {
		return nil, err
	}
	if len(r.Steps) == 0 {
		return nil, &CompileError{
			Field:   "steps",
			Message: "at least one step is required",
			Pos:     v.Pos(),
		}
	}

	if err := checkPlaceholders(r, v.Pos()); err != nil {
		return nil, err
	}

	return r, nil
}

// parseParams extracts parameter definitions. Params are optional; a
// recipe with none is a fixed sequence.
func parseParams(v cue.Value) ([]ParamDef, error) {
	var params []ParamDef

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return params, nil
	}

	iter, err := paramsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		p := ParamDef{Name: iter.Label()}
		pv := iter.Value()

		if labelVal := pv.LookupPath(cue.ParsePath("label")); labelVal.Exists() {
			if p.Label, err = labelVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if descVal := pv.LookupPath(cue.ParsePath("description")); descVal.Exists() {
			if p.Description, err = descVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if reqVal := pv.LookupPath(cue.ParsePath("required")); reqVal.Exists() {
			if p.Required, err = reqVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if defVal := pv.LookupPath(cue.ParsePath("default")); defVal.Exists() {
			if p.Default, err = defVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		params = append(params, p)
	}

	return params, nil
}

// parseSteps extracts the step list. Action names are validated here so
// a bad recipe fails at load time, not mid-run.
func parseSteps(v cue.Value) ([]Step, error) {
	var steps []Step

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return steps, nil
	}

	iter, err := stepsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		sv := iter.Value()
		step := Step{Args: make(map[string]string)}

		actionVal := sv.LookupPath(cue.ParsePath("action"))
		if !actionVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("steps[%d].action", i),
				Message: "action is required",
				Pos:     sv.Pos(),
			}
		}
		if step.Action, err = actionVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
		if _, err := parseActionKind(step.Action); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("steps[%d].action", i),
				Message: err.Error(),
				Pos:     actionVal.Pos(),
			}
		}

		if labelVal := sv.LookupPath(cue.ParsePath("label")); labelVal.Exists() {
			if step.Label, err = labelVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if descVal := sv.LookupPath(cue.ParsePath("description")); descVal.Exists() {
			if step.Description, err = descVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		if argsVal := sv.LookupPath(cue.ParsePath("args")); argsVal.Exists() {
			argsIter, err := argsVal.Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for argsIter.Next() {
				argStr, err := argsIter.Value().String()
				if err != nil {
					return nil, &CompileError{
						Field:   fmt.Sprintf("steps[%d].args.%s", i, argsIter.Label()),
						Message: "arg values must be strings (placeholders render other types)",
						Pos:     argsIter.Value().Pos(),
					}
				}
				step.Args[argsIter.Label()] = argStr
			}
		}

		steps = append(steps, step)
	}

	return steps, nil
}

// checkPlaceholders verifies every {{param}} reference in labels and
// args names a declared parameter. A typo'd placeholder would otherwise
// silently render as an empty string and mark the step skippable.
func checkPlaceholders(r *Recipe, pos token.Pos) error {
	check := func(where, tmpl string) error {
		for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
			if _, ok := r.Param(m[1]); !ok {
				return &CompileError{
					Field:   where,
					Message: fmt.Sprintf("placeholder {{%s}} references an undeclared parameter", m[1]),
					Pos:     pos,
				}
			}
		}
		return nil
	}

	for i, step := range r.Steps {
		if err := check(fmt.Sprintf("steps[%d].label", i), step.Label); err != nil {
			return err
		}
		for key, tmpl := range step.Args {
			if err := check(fmt.Sprintf("steps[%d].args.%s", i, key), tmpl); err != nil {
				return err
			}
		}
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
