package history

import (
	"context"
	"fmt"
	"time"
)

// Append inserts a snapshot record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - re-appending the same
// snapshot (e.g., a retried apply that already committed) is silently
// ignored. Other constraint violations still return errors.
func (s *Store) Append(ctx context.Context, item Item) error {
	if item.ID == "" {
		return fmt.Errorf("append snapshot: empty id")
	}
	if !item.Source.Valid() {
		return fmt.Errorf("append snapshot: invalid source %q", item.Source)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, instance, label, recipe_id, source, can_rollback, rollback_of, config, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		item.ID,
		item.Instance,
		item.Label,
		nullable(item.RecipeID),
		string(item.Source),
		boolToInt(item.CanRollback),
		nullable(item.RollbackOf),
		item.Config,
		item.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return nil
}

// MarkNotRollbackable clears a snapshot's can_rollback flag.
// Called when structural drift since capture makes a safe reversal
// impossible. Marking an already-unmarked or missing snapshot is not an
// error.
func (s *Store) MarkNotRollbackable(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE snapshots SET can_rollback = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark snapshot %s: %w", id, err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
