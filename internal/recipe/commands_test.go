package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(action string, args map[string]any) ResolvedStep {
	return ResolvedStep{Action: mustKind(action), ActionName: action, Args: args}
}

func mustKind(name string) ActionKind {
	kind, err := parseActionKind(name)
	if err != nil {
		panic(err)
	}
	return kind
}

func TestCreateAgentCommands(t *testing.T) {
	cmds, err := step("create_agent", map[string]any{
		"name":  "helper",
		"model": "claude-sonnet",
	}).Commands(ExecContext{Instance: "default"})
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	assert.Equal(t, []string{"openclaw", "agent", "add", "helper"}, cmds[0].Tokens)
	assert.Equal(t, []string{
		"openclaw", "config", "set", "agents.roster.helper.model", `"claude-sonnet"`, "--json",
	}, cmds[1].Tokens)
}

func TestCreateAgentWithoutModel(t *testing.T) {
	cmds, err := step("create_agent", map[string]any{"name": "helper"}).
		Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"openclaw", "agent", "add", "helper"}, cmds[0].Tokens)
}

func TestBindChannelCommands(t *testing.T) {
	cmds, err := step("bind_channel", map[string]any{
		"agent":   "helper",
		"channel": "telegram",
	}).Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{
		"openclaw", "config", "set", "channels.telegram.agent", `"helper"`, "--json",
	}, cmds[0].Tokens)
}

func TestConfigPatchExpandsPerLeaf(t *testing.T) {
	cmds, err := step("config_patch", map[string]any{
		"patch": `{"a":{"b":"v","c":1}}`,
	}).Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	// One set command per leaf, in sorted path order.
	assert.Equal(t, []string{"openclaw", "config", "set", "a.b", `"v"`, "--json"}, cmds[0].Tokens)
	assert.Equal(t, []string{"openclaw", "config", "set", "a.c", "1", "--json"}, cmds[1].Tokens)
}

func TestConfigPatchArraysAndEmptyObjectsAreLeaves(t *testing.T) {
	cmds, err := step("config_patch", map[string]any{
		"patch": `{"list":[1,2],"empty":{}}`,
	}).Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, []string{"openclaw", "config", "set", "empty", "{}", "--json"}, cmds[0].Tokens)
	assert.Equal(t, []string{"openclaw", "config", "set", "list", "[1,2]", "--json"}, cmds[1].Tokens)
}

func TestConfigPatchMalformedFallsBackToRootSet(t *testing.T) {
	cmds, err := step("config_patch", map[string]any{
		"patch": `{"a": not json`,
	}).Commands(ExecContext{})
	require.NoError(t, err)

	// The malformed template becomes a single visible command that will
	// fail at preview, instead of aborting resolution.
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"openclaw", "config", "set", ".", `{"a": not json`, "--json"}, cmds[0].Tokens)
}

func TestConfigPatchNonObjectRejected(t *testing.T) {
	_, err := step("config_patch", map[string]any{"patch": `[1,2,3]`}).
		Commands(ExecContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a JSON object")
}

func TestSetGlobalModelCommands(t *testing.T) {
	cmds, err := step("set_global_model", map[string]any{"model": "claude-opus"}).
		Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{
		"openclaw", "config", "set", "agents.defaults.model.primary", `"claude-opus"`, "--json",
	}, cmds[0].Tokens)
}

func TestSetupIdentityOptionalBio(t *testing.T) {
	cmds, err := step("setup_identity", map[string]any{
		"name": "Claw",
		"bio":  "",
	}).Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{
		"openclaw", "config", "set", "identity.name", `"Claw"`, "--json",
	}, cmds[0].Tokens)

	cmds, err = step("setup_identity", map[string]any{
		"name": "Claw",
		"bio":  "friendly",
	}).Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 2)
}

func TestRawCLICommands(t *testing.T) {
	cmds, err := step("raw_cli", map[string]any{
		"command": "openclaw channels restart telegram",
	}).Commands(ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"openclaw", "channels", "restart", "telegram"}, cmds[0].Tokens)
}

func TestRawCLIRejectsForeignBinaries(t *testing.T) {
	_, err := step("raw_cli", map[string]any{"command": "rm -rf /"}).
		Commands(ExecContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `must start with "openclaw"`)
}

func TestMissingRequiredArg(t *testing.T) {
	_, err := step("delete_agent", map[string]any{}).Commands(ExecContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required arg "name"`)
}

func TestCommandsSkipsSkippableSteps(t *testing.T) {
	steps := []ResolvedStep{
		{Index: 0, Action: ActionCreateAgent, ActionName: "create_agent",
			Args: map[string]any{"name": "helper"}},
		{Index: 1, Action: ActionBindChannel, ActionName: "bind_channel",
			Args: map[string]any{"agent": "helper", "channel": ""}, Skippable: true},
	}

	cmds, err := Commands(steps, ExecContext{})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"openclaw", "agent", "add", "helper"}, cmds[0].Tokens)
}
