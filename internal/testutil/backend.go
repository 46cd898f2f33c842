// Package testutil provides in-memory test doubles shared across
// packages. Nothing here ships in the binary.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openclaw/clawctl/internal/configdoc"
)

// FakeBackend is an in-memory execution backend. It holds a config
// document as serialized text and applies set/unset commands
// structurally, so engine tests can verify before/after states without
// a gateway process.
//
// Failure injection: map a dotted path to an error in FailSetPaths /
// FailUnsetPaths and the corresponding command fails without mutating
// the stored config.
type FakeBackend struct {
	mu sync.Mutex

	Raw string // serialized config document

	ReadErr        error
	WriteErr       error
	RestartErr     error
	FailSetPaths   map[string]error
	FailUnsetPaths map[string]error

	// CLIHandler overrides RunCLI. When nil, agent add/delete mutate the
	// stored config under agents.roster.<name> (mirroring the gateway's
	// behavior) and other verbs are no-ops.
	CLIHandler func(tokens []string) (string, error)

	Restarts int      // number of RestartGateway calls
	Ops      []string // log of mutating operations, in order

	Disconnected bool
}

// NewFakeBackend seeds a backend with raw config text.
func NewFakeBackend(raw string) *FakeBackend {
	return &FakeBackend{Raw: raw}
}

func (b *FakeBackend) ReadRawConfig(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ReadErr != nil {
		return "", b.ReadErr
	}
	return b.Raw, nil
}

func (b *FakeBackend) WriteRawConfig(ctx context.Context, raw string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	b.Raw = raw
	b.Ops = append(b.Ops, "write-raw")
	return nil
}

func (b *FakeBackend) RunConfigSet(ctx context.Context, path, jsonValue string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.FailSetPaths[path]; err != nil {
		return err
	}

	value, err := configdoc.ParseJSONValue(jsonValue)
	if err != nil {
		return err
	}
	if err := b.mutate(func(doc *configdoc.Document) error {
		return doc.Set(path, value)
	}); err != nil {
		return err
	}
	b.Ops = append(b.Ops, "set "+path)
	return nil
}

func (b *FakeBackend) RunConfigUnset(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.FailUnsetPaths[path]; err != nil {
		return err
	}

	if err := b.mutate(func(doc *configdoc.Document) error {
		return doc.Unset(path)
	}); err != nil {
		return err
	}
	b.Ops = append(b.Ops, "unset "+path)
	return nil
}

func (b *FakeBackend) RunCLI(ctx context.Context, tokens []string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.CLIHandler != nil {
		return b.CLIHandler(tokens)
	}

	// Default emulation of the gateway's agent verbs.
	if len(tokens) >= 4 && tokens[1] == "agent" {
		name := tokens[3]
		switch tokens[2] {
		case "add":
			err := b.mutate(func(doc *configdoc.Document) error {
				return doc.Set("agents.roster."+name, map[string]any{})
			})
			if err != nil {
				return "", err
			}
			b.Ops = append(b.Ops, "agent add "+name)
			return "", nil
		case "delete":
			err := b.mutate(func(doc *configdoc.Document) error {
				return doc.Unset("agents.roster." + name)
			})
			if err != nil {
				return "", err
			}
			b.Ops = append(b.Ops, "agent delete "+name)
			return "", nil
		}
	}

	b.Ops = append(b.Ops, "cli "+strings.Join(tokens[1:], " "))
	return "", nil
}

func (b *FakeBackend) RestartGateway(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.RestartErr != nil {
		return b.RestartErr
	}
	b.Restarts++
	return nil
}

func (b *FakeBackend) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.Disconnected
}

// mutate parses the stored config, applies fn, and stores the canonical
// re-serialization. Caller must hold b.mu.
func (b *FakeBackend) mutate(fn func(*configdoc.Document) error) error {
	doc, err := configdoc.ParseString(b.Raw)
	if err != nil {
		return fmt.Errorf("fake backend: corrupt stored config: %w", err)
	}
	if err := fn(doc); err != nil {
		return err
	}
	canonical, err := doc.Canonical()
	if err != nil {
		return err
	}
	b.Raw = canonical
	return nil
}
