package recipe

import "fmt"

// ActionKind enumerates the step actions recipes may use.
//
// Closed set: adding an action means adding a constant here, a name in
// parseActionKind, and a case in ResolvedStep.Commands. The compiler's
// exhaustive switch makes a missed case a compile-time decision rather
// than a runtime lookup miss.
type ActionKind int

const (
	// ActionCreateAgent creates an agent entry (optionally with a model).
	ActionCreateAgent ActionKind = iota + 1
	// ActionDeleteAgent removes an agent entry.
	ActionDeleteAgent
	// ActionBindChannel routes a messaging channel to an agent.
	ActionBindChannel
	// ActionConfigPatch applies a JSON patch template leaf by leaf.
	ActionConfigPatch
	// ActionSetGlobalModel sets the default model for all agents.
	ActionSetGlobalModel
	// ActionSetupIdentity sets the gateway's identity fields.
	ActionSetupIdentity
	// ActionRawCLI runs an arbitrary gateway CLI command.
	ActionRawCLI
)

var actionNames = map[ActionKind]string{
	ActionCreateAgent:    "create_agent",
	ActionDeleteAgent:    "delete_agent",
	ActionBindChannel:    "bind_channel",
	ActionConfigPatch:    "config_patch",
	ActionSetGlobalModel: "set_global_model",
	ActionSetupIdentity:  "setup_identity",
	ActionRawCLI:         "raw_cli",
}

// String returns the action's recipe-file name.
func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// UnknownActionError reports a step action no registry entry matches.
// Always a hard error: silently skipping an unrecognized step would
// silently drop part of the recipe's intended effect.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action type %q", e.Name)
}

// parseActionKind maps a recipe-file action name to its kind.
func parseActionKind(name string) (ActionKind, error) {
	for kind, n := range actionNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, &UnknownActionError{Name: name}
}
