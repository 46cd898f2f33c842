// Package instance routes operations to independent gateway instances.
//
// Each declared instance gets its own backend, queue, baseline tracker,
// engine, and poller. Sessions never share locks: an apply on one
// instance cannot block a dirty check on another.
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Spec declares one gateway instance in the instances file.
type Spec struct {
	Name       string `yaml:"name"`
	Local      bool   `yaml:"local,omitempty"`
	ConfigPath string `yaml:"config_path"`
	CLIPath    string `yaml:"cli_path,omitempty"`

	// Remote-only fields.
	Host     string `yaml:"host,omitempty"`
	Port     string `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
	Password string `yaml:"password,omitempty"`

	// PollInterval overrides the default dirty-poll cadence,
	// as a Go duration string ("5s", "1m").
	PollInterval string `yaml:"poll_interval,omitempty"`
}

// pollInterval parses the override, returning 0 when unset.
func (s Spec) pollInterval() (time.Duration, error) {
	if s.PollInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("instance %q: invalid poll_interval: %w", s.Name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("instance %q: poll_interval must be positive", s.Name)
	}
	return d, nil
}

// Config is the parsed instances file.
//
// Example:
//
//	default: local
//	instances:
//	  - name: local
//	    local: true
//	    config_path: /home/user/.openclaw/config.json
//	  - name: pi
//	    host: 192.168.1.20
//	    user: claw
//	    key_path: /home/user/.ssh/id_ed25519
//	    config_path: /home/claw/.openclaw/config.json
type Config struct {
	Default   string `yaml:"default,omitempty"`
	Instances []Spec `yaml:"instances"`
}

// DefaultConfigDir returns the clawctl state directory
// (~/.config/clawctl unless overridden via CLAWCTL_DIR).
func DefaultConfigDir() string {
	if dir := os.Getenv("CLAWCTL_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clawctl"
	}
	return filepath.Join(home, ".config", "clawctl")
}

// LoadConfig reads and validates the instances file. A missing file
// yields a single local instance pointed at the default gateway config
// path, so first runs work without any setup.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fallbackConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read instances file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse instances file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("instances file %s: %w", path, err)
	}
	return &cfg, nil
}

func fallbackConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Default: "local",
		Instances: []Spec{{
			Name:       "local",
			Local:      true,
			ConfigPath: filepath.Join(home, ".openclaw", "config.json"),
		}},
	}
}

func (c *Config) validate() error {
	if len(c.Instances) == 0 {
		return fmt.Errorf("no instances declared")
	}

	seen := make(map[string]bool, len(c.Instances))
	for i, spec := range c.Instances {
		if spec.Name == "" {
			return fmt.Errorf("instance %d: name is required", i)
		}
		if seen[spec.Name] {
			return fmt.Errorf("duplicate instance name %q", spec.Name)
		}
		seen[spec.Name] = true

		if spec.ConfigPath == "" {
			return fmt.Errorf("instance %q: config_path is required", spec.Name)
		}
		if spec.Local && spec.Host != "" {
			return fmt.Errorf("instance %q: local and host are mutually exclusive", spec.Name)
		}
		if !spec.Local {
			if spec.Host == "" {
				return fmt.Errorf("instance %q: host is required for remote instances", spec.Name)
			}
			if spec.User == "" {
				return fmt.Errorf("instance %q: user is required for remote instances", spec.Name)
			}
		}
		if _, err := spec.pollInterval(); err != nil {
			return err
		}
	}

	if c.Default == "" {
		c.Default = c.Instances[0].Name
	}
	if !seen[c.Default] {
		return fmt.Errorf("default instance %q is not declared", c.Default)
	}
	return nil
}

// Lookup returns the spec for the named instance; empty name means the
// configured default.
func (c *Config) Lookup(name string) (Spec, error) {
	if name == "" {
		name = c.Default
	}
	for _, spec := range c.Instances {
		if spec.Name == name {
			return spec, nil
		}
	}
	return Spec{}, fmt.Errorf("unknown instance %q", name)
}
