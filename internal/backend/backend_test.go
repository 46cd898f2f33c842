package backend

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfigSetTokens_Shape(t *testing.T) {
	got := ConfigSetTokens("agents.defaults.model.primary", `"gpt-5"`)
	want := []string{"openclaw", "config", "set", "agents.defaults.model.primary", `"gpt-5"`, "--json"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConfigSetTokens() = %v, want %v", got, want)
	}
}

func TestConfigUnsetTokens_Shape(t *testing.T) {
	got := ConfigUnsetTokens("agents.defaults.model.primary")
	want := []string{"openclaw", "config", "unset", "agents.defaults.model.primary"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConfigUnsetTokens() = %v, want %v", got, want)
	}
}

func TestLocal_ReadWriteRawConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openclaw.json")
	if err := os.WriteFile(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	b := NewLocal(path, "", nil)
	ctx := context.Background()

	raw, err := b.ReadRawConfig(ctx)
	if err != nil {
		t.Fatalf("ReadRawConfig() failed: %v", err)
	}
	if raw != `{"a":1}` {
		t.Errorf("ReadRawConfig() = %s, want {\"a\":1}", raw)
	}

	if err := b.WriteRawConfig(ctx, `{"a":2}`); err != nil {
		t.Fatalf("WriteRawConfig() failed: %v", err)
	}

	raw, err = b.ReadRawConfig(ctx)
	if err != nil {
		t.Fatalf("ReadRawConfig() after write failed: %v", err)
	}
	if raw != `{"a":2}` {
		t.Errorf("ReadRawConfig() = %s, want {\"a\":2}", raw)
	}

	// Temp files from the atomic write must not linger.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("config dir has %d entries after write, want 1", len(entries))
	}
}

func TestLocal_ReadMissingConfig(t *testing.T) {
	b := NewLocal(filepath.Join(t.TempDir(), "missing.json"), "", nil)
	if _, err := b.ReadRawConfig(context.Background()); err == nil {
		t.Error("ReadRawConfig() of missing file succeeded, want error")
	}
}

func TestLocal_Connected(t *testing.T) {
	b := NewLocal("unused", "", nil)
	if !b.Connected() {
		t.Error("local backend reports not connected")
	}
}

func TestShellEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "'plain'"},
		{"has space", "'has space'"},
		{"it's", `'it'\''s'`},
		{`{"k":"v"}`, `'{"k":"v"}'`},
	}
	for _, tt := range tests {
		if got := shellEscape(tt.in); got != tt.want {
			t.Errorf("shellEscape(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewRemote_RequiresAuth(t *testing.T) {
	_, err := NewRemote(RemoteConfig{Host: "example.com", User: "ops"}, nil)
	if err == nil {
		t.Error("NewRemote() without auth succeeded, want error")
	}
}

func TestRemote_NotConnected(t *testing.T) {
	b, err := NewRemote(RemoteConfig{Host: "example.com", User: "ops", Password: "x", ConfigPath: "/etc/openclaw.json"}, nil)
	if err != nil {
		t.Fatalf("NewRemote() failed: %v", err)
	}

	if b.Connected() {
		t.Error("fresh remote backend reports connected")
	}
	if _, err := b.ReadRawConfig(context.Background()); err == nil {
		t.Error("ReadRawConfig() without connection succeeded, want ErrNotConnected")
	}
}
