// Package backend abstracts command execution against a gateway instance.
//
// Every operation the rest of clawctl performs - reading the raw config,
// running gateway CLI verbs, restarting the daemon - goes through the
// Backend interface. Local and Remote provide the two implementations;
// callers select one per instance and never care which they hold.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CLIName is the gateway's command-line program name. All emitted command
// token lists start with this token; the backend process dispatches on it.
const CLIName = "openclaw"

// ErrNotConnected reports that a remote backend has no live SSH
// connection. Connectivity failures are deliberately distinct from command
// failures: the operator response differs (reconnect vs. fix the change).
var ErrNotConnected = errors.New("backend: not connected")

// CommandError is a gateway CLI command that ran and failed.
type CommandError struct {
	Tokens []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed", strings.Join(e.Tokens, " "))
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Backend executes gateway CLI commands and reads/writes the raw
// configuration file for one instance.
//
// All methods take a context; remote implementations bound each round
// trip with a timeout derived from it.
type Backend interface {
	// ReadRawConfig returns the serialized ConfigDocument as stored on
	// the instance.
	ReadRawConfig(ctx context.Context) (string, error)

	// WriteRawConfig replaces the configuration file wholesale. Used only
	// by rollback and apply-failure restore paths; normal mutations go
	// through RunConfigSet/RunConfigUnset.
	WriteRawConfig(ctx context.Context, raw string) error

	// RunConfigSet sets a dotted config path to a JSON-encoded value.
	RunConfigSet(ctx context.Context, path, jsonValue string) error

	// RunConfigUnset removes a dotted config path.
	RunConfigUnset(ctx context.Context, path string) error

	// RunCLI executes an arbitrary gateway CLI command (agent add,
	// channel bind, ...) and returns its stdout.
	RunCLI(ctx context.Context, tokens []string) (string, error)

	// RestartGateway restarts the gateway daemon so an applied
	// configuration takes effect.
	RestartGateway(ctx context.Context) error

	// Connected reports whether the backend can currently reach the
	// instance. Local backends always return true.
	Connected() bool
}

// ConfigSetTokens builds the canonical "config set" command.
// The token shape is load-bearing: the gateway CLI parses exactly
// ["openclaw","config","set",<dotted.path>,<json-value>,"--json"].
func ConfigSetTokens(path, jsonValue string) []string {
	return []string{CLIName, "config", "set", path, jsonValue, "--json"}
}

// ConfigUnsetTokens builds the canonical "config unset" command.
func ConfigUnsetTokens(path string) []string {
	return []string{CLIName, "config", "unset", path}
}

// RestartTokens builds the gateway restart command.
func RestartTokens() []string {
	return []string{CLIName, "gateway", "restart"}
}
