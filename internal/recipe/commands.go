package recipe

import (
	"fmt"
	"strings"

	"github.com/openclaw/clawctl/internal/backend"
	"github.com/openclaw/clawctl/internal/configdoc"
	"github.com/openclaw/clawctl/internal/engine"
)

// ExecContext carries the execution target a step expands against.
type ExecContext struct {
	Instance string
	Remote   bool
}

// Command is one queueable (label, argv) pair produced by a step.
type Command struct {
	Label  string
	Tokens []string
}

// Commands expands a resolved step into gateway CLI commands.
//
// The switch over ActionKind is exhaustive; an unhandled kind can only
// mean a constant was added without a case here, which fails loudly.
func (s ResolvedStep) Commands(ec ExecContext) ([]Command, error) {
	switch s.Action {
	case ActionCreateAgent:
		return s.createAgentCommands()
	case ActionDeleteAgent:
		name, err := s.argString("name")
		if err != nil {
			return nil, err
		}
		return []Command{{
			Label:  fmt.Sprintf("Delete agent %s", name),
			Tokens: []string{backend.CLIName, "agent", "delete", name},
		}}, nil
	case ActionBindChannel:
		return s.bindChannelCommands()
	case ActionConfigPatch:
		patch, err := s.argString("patch")
		if err != nil {
			return nil, err
		}
		return patchCommands(patch)
	case ActionSetGlobalModel:
		model, err := s.argString("model")
		if err != nil {
			return nil, err
		}
		return []Command{{
			Label:  fmt.Sprintf("Set global model to %s", model),
			Tokens: backend.ConfigSetTokens("agents.defaults.model.primary", jsonString(model)),
		}}, nil
	case ActionSetupIdentity:
		return s.setupIdentityCommands()
	case ActionRawCLI:
		return s.rawCLICommands()
	default:
		return nil, fmt.Errorf("unhandled action kind %v", s.Action)
	}
}

func (s ResolvedStep) createAgentCommands() ([]Command, error) {
	name, err := s.argString("name")
	if err != nil {
		return nil, err
	}

	cmds := []Command{{
		Label:  fmt.Sprintf("Create agent %s", name),
		Tokens: []string{backend.CLIName, "agent", "add", name},
	}}

	if model := s.optionalString("model"); model != "" {
		cmds = append(cmds, Command{
			Label:  fmt.Sprintf("Set model for agent %s", name),
			Tokens: backend.ConfigSetTokens(engine.AgentRosterPrefix+name+".model", jsonString(model)),
		})
	}
	return cmds, nil
}

func (s ResolvedStep) bindChannelCommands() ([]Command, error) {
	agent, err := s.argString("agent")
	if err != nil {
		return nil, err
	}
	channel, err := s.argString("channel")
	if err != nil {
		return nil, err
	}

	return []Command{{
		Label:  fmt.Sprintf("Bind channel %s to agent %s", channel, agent),
		Tokens: backend.ConfigSetTokens("channels."+channel+".agent", jsonString(agent)),
	}}, nil
}

func (s ResolvedStep) setupIdentityCommands() ([]Command, error) {
	name, err := s.argString("name")
	if err != nil {
		return nil, err
	}

	cmds := []Command{{
		Label:  "Set identity name",
		Tokens: backend.ConfigSetTokens("identity.name", jsonString(name)),
	}}

	// Bio is an optional wizard field; blank means leave it alone.
	if bio := s.optionalString("bio"); bio != "" {
		cmds = append(cmds, Command{
			Label:  "Set identity bio",
			Tokens: backend.ConfigSetTokens("identity.bio", jsonString(bio)),
		})
	}
	return cmds, nil
}

func (s ResolvedStep) rawCLICommands() ([]Command, error) {
	raw, err := s.argString("command")
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("raw_cli: empty command")
	}
	if tokens[0] != backend.CLIName {
		// Recipes only drive the gateway CLI; anything else is a recipe
		// authoring mistake.
		return nil, fmt.Errorf("raw_cli: command must start with %q, got %q", backend.CLIName, tokens[0])
	}

	label := s.Label
	if label == "" {
		label = "Run " + raw
	}
	return []Command{{Label: label, Tokens: tokens}}, nil
}

// argString fetches a required string arg.
func (s ResolvedStep) argString(key string) (string, error) {
	v, ok := s.Args[key]
	if !ok {
		return "", fmt.Errorf("%s: missing required arg %q", s.ActionName, key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: arg %q must be a string, got %T", s.ActionName, key, v)
	}
	if strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("%s: arg %q is empty", s.ActionName, key)
	}
	return str, nil
}

// optionalString fetches an optional string arg, "" when absent.
func (s ResolvedStep) optionalString(key string) string {
	if v, ok := s.Args[key]; ok {
		if str, ok := v.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}

// jsonString JSON-encodes a string value for a config set token.
func jsonString(s string) string {
	encoded, err := configdoc.EncodeJSONValue(s)
	if err != nil {
		// Strings always encode; reaching this is a bug.
		panic(fmt.Sprintf("encode JSON string: %v", err))
	}
	return encoded
}
