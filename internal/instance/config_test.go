package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInstances(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instances.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigBasic(t *testing.T) {
	path := writeInstances(t, `
default: pi
instances:
  - name: local
    local: true
    config_path: /home/user/.openclaw/config.json
  - name: pi
    host: 192.168.1.20
    port: "2222"
    user: claw
    key_path: /home/user/.ssh/id_ed25519
    config_path: /home/claw/.openclaw/config.json
    poll_interval: 30s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "pi", cfg.Default)
	require.Len(t, cfg.Instances, 2)

	pi, err := cfg.Lookup("pi")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", pi.Host)
	assert.Equal(t, "2222", pi.Port)

	d, err := pi.pollInterval()
	require.NoError(t, err)
	assert.Equal(t, "30s", d.String())

	// Empty name resolves to the default.
	def, err := cfg.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "pi", def.Name)
}

func TestLoadConfigMissingFileFallsBack(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	require.Len(t, cfg.Instances, 1)
	assert.True(t, cfg.Instances[0].Local)
	assert.Equal(t, cfg.Instances[0].Name, cfg.Default)
}

func TestLoadConfigDefaultsToFirstInstance(t *testing.T) {
	path := writeInstances(t, `
instances:
  - name: only
    local: true
    config_path: /tmp/config.json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "only", cfg.Default)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no instances",
			content: "instances: []\n",
			wantErr: "no instances",
		},
		{
			name: "duplicate names",
			content: `
instances:
  - name: a
    local: true
    config_path: /tmp/c.json
  - name: a
    local: true
    config_path: /tmp/c.json
`,
			wantErr: "duplicate instance name",
		},
		{
			name: "missing config path",
			content: `
instances:
  - name: a
    local: true
`,
			wantErr: "config_path is required",
		},
		{
			name: "remote without host",
			content: `
instances:
  - name: a
    config_path: /tmp/c.json
`,
			wantErr: "host is required",
		},
		{
			name: "remote without user",
			content: `
instances:
  - name: a
    host: example.com
    config_path: /tmp/c.json
`,
			wantErr: "user is required",
		},
		{
			name: "local with host",
			content: `
instances:
  - name: a
    local: true
    host: example.com
    config_path: /tmp/c.json
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "unknown default",
			content: `
default: ghost
instances:
  - name: a
    local: true
    config_path: /tmp/c.json
`,
			wantErr: "not declared",
		},
		{
			name: "bad poll interval",
			content: `
instances:
  - name: a
    local: true
    config_path: /tmp/c.json
    poll_interval: soon
`,
			wantErr: "invalid poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeInstances(t, tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
