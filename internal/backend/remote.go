package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// DefaultRemoteTimeout bounds a single SSH round trip. Remote operations
// that exceed it are reported as connectivity errors, not command errors.
const DefaultRemoteTimeout = 30 * time.Second

// RemoteConfig describes how to reach a remote gateway host.
type RemoteConfig struct {
	Host       string
	Port       string
	User       string
	KeyPath    string
	Password   string
	ConfigPath string // gateway config file path on the remote host
	CLIPath    string // gateway binary on the remote host; defaults to CLIName
	Timeout    time.Duration
}

// Remote executes gateway CLI commands on a remote host over SSH.
//
// One SSH connection is shared across operations; each command runs in
// its own session. The connection is established lazily by Connect and
// survives until Close or a transport failure.
type Remote struct {
	cfg    RemoteConfig
	sshCfg *ssh.ClientConfig
	log    *slog.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewRemote creates a backend for an SSH-reachable gateway instance.
// If a password is provided it is tried first; a private key (if
// readable) is added as an additional auth method. At least one auth
// method must be available.
func NewRemote(cfg RemoteConfig, log *slog.Logger) (*Remote, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Port == "" {
		cfg.Port = "22"
	}
	if cfg.CLIPath == "" {
		cfg.CLIPath = CLIName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRemoteTimeout
	}

	var authMethods []ssh.AuthMethod
	if cfg.Password != "" {
		authMethods = append(authMethods, ssh.Password(cfg.Password))
	}
	if cfg.KeyPath != "" {
		key, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			if len(authMethods) == 0 {
				return nil, fmt.Errorf("unable to read private key: %w", err)
			}
			log.Warn("private key unreadable, continuing with password auth", "path", cfg.KeyPath, "error", err)
		} else {
			signer, err := ssh.ParsePrivateKey(key)
			if err != nil {
				if len(authMethods) == 0 {
					return nil, fmt.Errorf("unable to parse private key: %w", err)
				}
				log.Warn("private key unparseable, continuing with password auth", "path", cfg.KeyPath, "error", err)
			} else {
				authMethods = append(authMethods, ssh.PublicKeys(signer))
			}
		}
	}
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no authentication method configured (provide password or key path)")
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: known_hosts verification
		Timeout:         cfg.Timeout,
	}

	return &Remote{cfg: cfg, sshCfg: sshCfg, log: log}, nil
}

// Connect establishes the SSH connection. Idempotent: reconnecting while
// already connected is a no-op.
func (b *Remote) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", b.cfg.Host, b.cfg.Port)
	client, err := ssh.Dial("tcp", addr, b.sshCfg)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrNotConnected, addr, err)
	}
	b.client = client
	b.log.Info("connected to remote instance", "host", b.cfg.Host)
	return nil
}

// Close tears down the SSH connection.
func (b *Remote) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// Connected reports whether an SSH connection is currently held.
func (b *Remote) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}

// shellEscape wraps s in single quotes, escaping embedded single quotes,
// for safe inclusion in a remote shell command line.
func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// runShell executes a shell command on the remote host in a fresh
// session, feeding stdin if non-nil. The context (capped by the
// configured timeout) bounds the whole round trip; on expiry the session
// is closed and a connectivity error returned.
func (b *Remote) runShell(ctx context.Context, shellCmd string, stdin *strings.Reader, tokens []string) (string, error) {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()
	if client == nil {
		return "", ErrNotConnected
	}

	sess, err := client.NewSession()
	if err != nil {
		// Session creation failing usually means the transport died.
		b.dropConnection()
		return "", fmt.Errorf("%w: new session: %v", ErrNotConnected, err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr
	if stdin != nil {
		sess.Stdin = stdin
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(shellCmd)
	}()

	select {
	case err := <-done:
		if err != nil {
			if tokens == nil {
				tokens = []string{shellCmd}
			}
			return "", &CommandError{Tokens: tokens, Stderr: stderr.String(), Err: err}
		}
		return stdout.String(), nil
	case <-ctx.Done():
		// ssh sessions do not take a context; closing the session
		// unblocks the Run goroutine.
		sess.Close()
		return "", fmt.Errorf("%w: %v", ErrNotConnected, ctx.Err())
	}
}

func (b *Remote) dropConnection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
}

// ReadRawConfig reads the remote configuration file.
func (b *Remote) ReadRawConfig(ctx context.Context) (string, error) {
	return b.runShell(ctx, "cat "+shellEscape(b.cfg.ConfigPath), nil, nil)
}

// WriteRawConfig atomically replaces the remote configuration file via a
// temp-file-and-rename on the remote side.
func (b *Remote) WriteRawConfig(ctx context.Context, raw string) error {
	target := shellEscape(b.cfg.ConfigPath)
	tmp := shellEscape(b.cfg.ConfigPath + ".clawctl-tmp")
	cmd := fmt.Sprintf("cat > %s && mv %s %s", tmp, tmp, target)
	_, err := b.runShell(ctx, cmd, strings.NewReader(raw), nil)
	return err
}

// RunConfigSet invokes the gateway CLI's config set verb on the remote.
func (b *Remote) RunConfigSet(ctx context.Context, path, jsonValue string) error {
	_, err := b.RunCLI(ctx, ConfigSetTokens(path, jsonValue))
	return err
}

// RunConfigUnset invokes the gateway CLI's config unset verb on the remote.
func (b *Remote) RunConfigUnset(ctx context.Context, path string) error {
	_, err := b.RunCLI(ctx, ConfigUnsetTokens(path))
	return err
}

// RunCLI executes a gateway CLI command on the remote host.
func (b *Remote) RunCLI(ctx context.Context, tokens []string) (string, error) {
	if len(tokens) == 0 {
		return "", fmt.Errorf("empty command")
	}

	parts := make([]string, 0, len(tokens))
	parts = append(parts, shellEscape(b.cfg.CLIPath))
	for _, tok := range tokens[1:] {
		parts = append(parts, shellEscape(tok))
	}

	b.log.Debug("running remote gateway command", "host", b.cfg.Host, "tokens", tokens)
	return b.runShell(ctx, strings.Join(parts, " "), nil, tokens)
}

// RestartGateway restarts the remote gateway daemon.
func (b *Remote) RestartGateway(ctx context.Context) error {
	_, err := b.RunCLI(ctx, RestartTokens())
	return err
}
