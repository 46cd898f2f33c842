package engine

import (
	"fmt"

	"github.com/openclaw/clawctl/internal/backend"
	"github.com/openclaw/clawctl/internal/configdoc"
)

// AgentRosterPrefix is the config subtree holding agent definitions.
// "agent add"/"agent delete" verbs are modeled as set/unset under it so
// preview replay matches what the gateway CLI does to the file.
const AgentRosterPrefix = "agents.roster."

// OpKind identifies the interpretation of a queued command.
type OpKind int

const (
	// OpConfigSet sets a dotted config path to a JSON value.
	OpConfigSet OpKind = iota + 1
	// OpConfigUnset removes a dotted config path.
	OpConfigUnset
	// OpAgentAdd creates an agent entry.
	OpAgentAdd
	// OpAgentDelete removes an agent entry.
	OpAgentDelete
	// OpCLI is any other gateway verb, passed through verbatim. These
	// do not modify the config document, so preview replay treats them
	// as no-ops.
	OpCLI
)

// Op is a parsed queued command.
type Op struct {
	Kind   OpKind
	Path   string   // dotted config path (set/unset/agent ops)
	Value  any      // parsed JSON value (set only)
	Tokens []string // original argv, always preserved
}

// ParseCommand interprets a queued token list against the gateway CLI
// vocabulary. The engine does not implement shell semantics; only this
// constrained vocabulary is supported, deterministically.
func ParseCommand(tokens []string) (Op, error) {
	if len(tokens) < 2 {
		return Op{}, fmt.Errorf("command too short: %v", tokens)
	}
	if tokens[0] != backend.CLIName {
		return Op{}, fmt.Errorf("unknown program %q, want %q", tokens[0], backend.CLIName)
	}

	switch tokens[1] {
	case "config":
		return parseConfigOp(tokens)
	case "agent":
		return parseAgentOp(tokens)
	default:
		// Domain verbs (channels, models, ...) pass through verbatim.
		return Op{Kind: OpCLI, Tokens: tokens}, nil
	}
}

func parseConfigOp(tokens []string) (Op, error) {
	if len(tokens) < 3 {
		return Op{}, fmt.Errorf("config command too short: %v", tokens)
	}

	switch tokens[2] {
	case "set":
		if len(tokens) < 5 {
			return Op{}, fmt.Errorf("config set needs <path> <json-value>: %v", tokens)
		}
		path := tokens[3]
		// The root sentinel replaces the whole document; a malformed
		// value there (the config_patch fallback) fails on the value
		// parse below, quoting the offending text.
		if path != configdoc.RootPath {
			if _, err := configdoc.SplitPath(path); err != nil {
				return Op{}, err
			}
		}
		value, err := configdoc.ParseJSONValue(tokens[4])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpConfigSet, Path: path, Value: value, Tokens: tokens}, nil

	case "unset":
		if len(tokens) < 4 {
			return Op{}, fmt.Errorf("config unset needs <path>: %v", tokens)
		}
		path := tokens[3]
		if _, err := configdoc.SplitPath(path); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpConfigUnset, Path: path, Tokens: tokens}, nil

	case "get":
		// Read-only; harmless in a queue but pointless.
		return Op{Kind: OpCLI, Tokens: tokens}, nil

	default:
		return Op{}, fmt.Errorf("unknown config subverb %q", tokens[2])
	}
}

func parseAgentOp(tokens []string) (Op, error) {
	if len(tokens) < 4 {
		return Op{}, fmt.Errorf("agent command needs <add|delete> <name>: %v", tokens)
	}

	name := tokens[3]
	if name == "" {
		return Op{}, fmt.Errorf("empty agent name")
	}
	path := AgentRosterPrefix + name
	if _, err := configdoc.SplitPath(path); err != nil {
		return Op{}, err
	}

	switch tokens[2] {
	case "add":
		return Op{Kind: OpAgentAdd, Path: path, Tokens: tokens}, nil
	case "delete":
		return Op{Kind: OpAgentDelete, Path: path, Tokens: tokens}, nil
	default:
		return Op{}, fmt.Errorf("unknown agent subverb %q", tokens[2])
	}
}

// replay applies an op to a scratch document. Used by preview; never
// touches the live configuration.
func (op Op) replay(doc *configdoc.Document) error {
	switch op.Kind {
	case OpConfigSet:
		return doc.Set(op.Path, op.Value)
	case OpConfigUnset:
		return doc.Unset(op.Path)
	case OpAgentAdd:
		return doc.Set(op.Path, map[string]any{})
	case OpAgentDelete:
		return doc.Unset(op.Path)
	case OpCLI:
		// No config-document effect.
		return nil
	default:
		return fmt.Errorf("unhandled op kind %d", op.Kind)
	}
}
