// Package queue holds pending configuration commands for one instance.
//
// Wizard flows and direct actions enqueue discrete CLI-style mutations
// here instead of executing them immediately; the engine later replays
// the whole queue as one atomic batch. Order is strictly insertion order
// and identical commands are never deduplicated - at apply time the
// later command simply wins, which is the expected semantics for a
// declarative path-set model.
package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
)

// PendingCommand is one queued, not-yet-applied configuration mutation.
type PendingCommand struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Command   []string  `json:"command"` // argv-style gateway CLI tokens
	CreatedAt time.Time `json:"createdAt"`
}

// IDGenerator produces opaque identifiers for queued commands.
type IDGenerator interface {
	Generate() string
}

// Queue is a thread-safe, insertion-ordered list of pending commands.
//
// Thread-safety matters because the dirty poller reads Len from its own
// goroutine while CLI handlers mutate the queue.
type Queue struct {
	mu          sync.Mutex
	commands    []PendingCommand
	ids         IDGenerator
	now         func() time.Time
	persistPath string // "" = in-memory only
}

// New creates an empty queue using the given ID generator.
func New(ids IDGenerator) *Queue {
	return &Queue{ids: ids, now: time.Now}
}

// SetPersistPath enables queue persistence across processes. Any queue
// persisted at path is loaded immediately; every mutation rewrites the
// file. A corrupt file is an error - silently dropping queued intent
// would be worse than failing.
func (q *Queue) SetPersistPath(path string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.persistPath = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var commands []PendingCommand
	if err := json.Unmarshal(data, &commands); err != nil {
		return fmt.Errorf("load queue %s: %w", path, err)
	}
	q.commands = commands
	return nil
}

// persist rewrites the queue file. Called with the lock held. Write
// failures are logged, not returned: the in-memory queue is still
// correct for this process.
func (q *Queue) persist() {
	if q.persistPath == "" {
		return
	}
	data, err := json.Marshal(q.commands)
	if err != nil {
		slog.Error("queue not persisted", "error", err)
		return
	}
	if err := os.WriteFile(q.persistPath, data, 0644); err != nil {
		slog.Error("queue not persisted", "path", q.persistPath, "error", err)
	}
}

// SetNowFunc overrides the timestamp source. Test hook only.
func (q *Queue) SetNowFunc(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Add appends a command to the tail of the queue and returns it.
func (q *Queue) Add(label string, tokens []string) PendingCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	cmd := PendingCommand{
		ID:        q.ids.Generate(),
		Label:     label,
		Command:   slices.Clone(tokens),
		CreatedAt: q.now().UTC(),
	}
	q.commands = append(q.commands, cmd)
	q.persist()
	return cmd
}

// List returns a snapshot of the queue in insertion order.
func (q *Queue) List() []PendingCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]PendingCommand, len(q.commands))
	copy(out, q.commands)
	return out
}

// Remove deletes one command by ID. Returns false if the ID is not
// present (already applied or discarded concurrently).
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, cmd := range q.commands {
		if cmd.ID == id {
			q.commands = append(q.commands[:i], q.commands[i+1:]...)
			q.persist()
			return true
		}
	}
	return false
}

// Len returns the number of queued commands. Cheap poll target: UI
// refresh loops check this to pause while unsaved intent exists.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// DrainAll removes and returns every queued command.
// Used by apply (after a successful commit) and discard.
func (q *Queue) DrainAll() []PendingCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.commands
	q.commands = nil
	q.persist()
	return out
}
