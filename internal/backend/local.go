package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Local executes gateway CLI commands on this machine and accesses the
// configuration file directly on disk.
type Local struct {
	configPath string
	cliPath    string // resolved gateway binary; defaults to CLIName on PATH
	log        *slog.Logger
}

// NewLocal creates a backend for the local gateway instance.
// cliPath may be empty, in which case the gateway CLI is resolved from
// PATH under its standard name.
func NewLocal(configPath, cliPath string, log *slog.Logger) *Local {
	if cliPath == "" {
		cliPath = CLIName
	}
	if log == nil {
		log = slog.Default()
	}
	return &Local{configPath: configPath, cliPath: cliPath, log: log}
}

// ReadRawConfig reads the configuration file from disk.
func (b *Local) ReadRawConfig(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(b.configPath)
	if err != nil {
		return "", fmt.Errorf("read config %s: %w", b.configPath, err)
	}
	return string(data), nil
}

// WriteRawConfig atomically replaces the configuration file.
// Writes to a temp file in the same directory, then renames, so a crash
// mid-write never leaves a truncated config for the gateway to load.
func (b *Local) WriteRawConfig(ctx context.Context, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(b.configPath)
	tmp, err := os.CreateTemp(dir, ".clawctl-config-*")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := os.Rename(tmpName, b.configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// RunConfigSet invokes the gateway CLI's config set verb.
func (b *Local) RunConfigSet(ctx context.Context, path, jsonValue string) error {
	_, err := b.RunCLI(ctx, ConfigSetTokens(path, jsonValue))
	return err
}

// RunConfigUnset invokes the gateway CLI's config unset verb.
func (b *Local) RunConfigUnset(ctx context.Context, path string) error {
	_, err := b.RunCLI(ctx, ConfigUnsetTokens(path))
	return err
}

// RunCLI executes a gateway CLI command as a subprocess.
func (b *Local) RunCLI(ctx context.Context, tokens []string) (string, error) {
	if len(tokens) == 0 {
		return "", fmt.Errorf("empty command")
	}

	// tokens[0] is the fixed program name; the configured binary path
	// takes precedence so tests and non-PATH installs work.
	cmd := exec.CommandContext(ctx, b.cliPath, tokens[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.log.Debug("running gateway command", "tokens", tokens)
	if err := cmd.Run(); err != nil {
		return "", &CommandError{Tokens: tokens, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// RestartGateway restarts the local gateway daemon.
func (b *Local) RestartGateway(ctx context.Context) error {
	_, err := b.RunCLI(ctx, RestartTokens())
	return err
}

// Connected always reports true: the local instance has no transport to
// lose.
func (b *Local) Connected() bool {
	return true
}
