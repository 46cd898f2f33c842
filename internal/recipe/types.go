package recipe

// ParamDef declares one recipe parameter, rendered as a wizard field.
type ParamDef struct {
	Name        string
	Label       string
	Description string
	Required    bool
	Default     string
}

// Step is one declared recipe step. Arg values (and the label) may
// carry {{param}} placeholders.
type Step struct {
	Action      string
	Label       string
	Description string
	Args        map[string]string
}

// Recipe is a parameterized, reusable sequence of configuration steps.
type Recipe struct {
	ID          string
	Name        string
	Description string
	Params      []ParamDef
	Steps       []Step
}

// Param returns the named parameter definition, if declared.
func (r *Recipe) Param(name string) (ParamDef, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamDef{}, false
}
