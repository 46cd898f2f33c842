package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is a throwaway state directory plus a local instance whose
// gateway binary is a stub that accepts every command. Config mutations
// therefore only show up via preview/snapshot paths, which is exactly
// what the CLI-level tests exercise.
type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	configPath := filepath.Join(dir, "gateway-config.json")
	require.NoError(t, os.WriteFile(configPath,
		[]byte(`{"identity":{"name":"Claw"},"agents":{"defaults":{"model":{"primary":"claude-opus"}}}}`), 0644))

	stub := filepath.Join(dir, "openclaw-stub")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0755))

	instances := fmt.Sprintf(`
default: test
instances:
  - name: test
    local: true
    config_path: %s
    cli_path: %s
`, configPath, stub)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "instances.yaml"), []byte(instances), 0644))

	return &testEnv{dir: dir, configPath: configPath}
}

// run executes one clawctl invocation and returns its combined output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--dir", e.dir}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestInvalidFormatRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "--format", "xml", "queue", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestQueueLifecycle(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "queue", "set", "identity.name", `"Pinchy"`)
	require.NoError(t, err)
	assert.Contains(t, out, "Queued")

	// The queue persists across invocations.
	out, err = env.run(t, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Set identity.name")

	out, err = env.run(t, "queue", "discard")
	require.NoError(t, err)
	assert.Contains(t, out, "Discarded 1")

	out, err = env.run(t, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue is empty")
}

func TestQueueAddRejectsMalformedCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "queue", "add", "--", "rm", "-rf", "/")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = env.run(t, "queue", "set", "a..b", `"x"`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueueRemoveByID(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "--format", "json", "queue", "set", "identity.bio", `"hi"`)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	id := resp.Data.(map[string]any)["id"].(string)

	_, err = env.run(t, "queue", "remove", id)
	require.NoError(t, err)

	_, err = env.run(t, "queue", "remove", id)
	require.Error(t, err, "second removal finds nothing")
}

func TestPreviewShowsDiffWithoutApplying(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "queue", "set", "identity.name", `"Pinchy"`)
	require.NoError(t, err)

	out, err := env.run(t, "preview")
	require.NoError(t, err)
	assert.Contains(t, out, `+`)
	assert.Contains(t, out, "Pinchy")

	// Preview touched nothing on disk.
	data, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Pinchy")

	// And it is repeatable.
	out2, err := env.run(t, "preview")
	require.NoError(t, err)
	assert.Equal(t, out, out2)
}

func TestPreviewReportsBadCommands(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "queue", "set", "identity.name.x", `"deep"`)
	require.NoError(t, err)

	out, err := env.run(t, "preview")
	require.NoError(t, err)
	// identity.name is a string; setting below it cannot work.
	assert.Contains(t, out, "problems")
}

func TestApplyRecordsSnapshotAndDrainsQueue(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "queue", "set", "identity.name", `"Pinchy"`)
	require.NoError(t, err)

	out, err := env.run(t, "apply", "--label", "rename")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 command(s)")

	out, err = env.run(t, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue is empty")

	out, err = env.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "rename")
	assert.Contains(t, out, "manual")
}

func TestApplyEmptyQueueRefused(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "apply")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "EMPTY_QUEUE")
}

func TestStatusCleanAfterActivation(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "matches the baseline")
}

func TestStatusDetectsExternalDrift(t *testing.T) {
	env := newTestEnv(t)

	// First invocation captures the baseline.
	_, err := env.run(t, "status")
	require.NoError(t, err)

	// Someone edits the config behind clawctl's back.
	require.NoError(t, os.WriteFile(env.configPath,
		[]byte(`{"identity":{"name":"Impostor"},"agents":{"defaults":{"model":{"primary":"claude-opus"}}}}`), 0644))

	out, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "drifted")
	assert.Contains(t, out, "Impostor")
}

func TestRollbackRestoresSnapshotState(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "queue", "set", "identity.name", `"Pinchy"`)
	require.NoError(t, err)
	_, err = env.run(t, "apply")
	require.NoError(t, err)

	// Find the snapshot id.
	out, err := env.run(t, "--format", "json", "history", "list")
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	items := resp.Data.([]any)
	require.Len(t, items, 1)
	id := items[0].(map[string]any)["id"].(string)

	out, err = env.run(t, "rollback", id, "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, err = env.run(t, "rollback", id)
	require.NoError(t, err)

	// The snapshot captured pre-apply state; the restore puts the
	// original name back on disk.
	data, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Claw")

	// The rollback appended a forward entry.
	out, err = env.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "rollback")
}

func TestRollbackUnknownSnapshot(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "rollback", "no-such-id")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRecipeListAndShow(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "recipe", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "new-agent")

	out, err = env.run(t, "recipe", "show", "new-agent")
	require.NoError(t, err)
	assert.Contains(t, out, "create_agent")
	assert.Contains(t, out, "required")
}

func TestRecipeRunQueuesCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "recipe", "run", "new-agent",
		"--param", "name=helper", "--param", "channel=telegram")
	require.NoError(t, err)
	assert.Contains(t, out, "Queued")

	out, err = env.run(t, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "agent add helper")
	assert.Contains(t, out, "channels.telegram.agent")
}

func TestRecipeRunMissingRequiredParam(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "recipe", "run", "new-agent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name"`)
}

func TestHistoryFilterBySource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "queue", "set", "identity.name", `"A"`)
	require.NoError(t, err)
	_, err = env.run(t, "apply")
	require.NoError(t, err)

	out, err := env.run(t, "history", "list", "--source", "rollback")
	require.NoError(t, err)
	assert.Contains(t, out, "No history entries")

	_, err = env.run(t, "history", "list", "--source", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}
