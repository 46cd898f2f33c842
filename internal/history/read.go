package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = `id, instance, label, recipe_id, source, can_rollback, rollback_of, config, created_at`

// Get returns one snapshot by id, including its full config text.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM snapshots WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return item, nil
}

// List returns snapshots for an instance, newest first.
// limit <= 0 means no limit. The optional filter narrows by source,
// recipe, or time range.
func (s *Store) List(ctx context.Context, instance string, limit, offset int, filter *Filter) ([]Item, error) {
	where, args := buildWhere(instance, filter)

	query := `SELECT ` + itemColumns + ` FROM snapshots ` + where +
		` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, offset)
	}

	rows, err := s.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return items, nil
}

// ResolveRollbackOf resolves a rollback entry's target for display.
// Returns the target item, or nil if the reference dangles - the caller
// renders that as "unknown" rather than failing (history entries are
// never deleted by normal operation, but the contract tolerates it).
func (s *Store) ResolveRollbackOf(ctx context.Context, item Item) (*Item, error) {
	if item.RollbackOf == "" {
		return nil, nil
	}
	target, err := s.Get(ctx, item.RollbackOf)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*Item, error) {
	var (
		item       Item
		recipeID   sql.NullString
		rollbackOf sql.NullString
		source     string
		canRB      int
		createdAt  string
	)

	err := sc.Scan(
		&item.ID, &item.Instance, &item.Label, &recipeID,
		&source, &canRB, &rollbackOf, &item.Config, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	item.RecipeID = recipeID.String
	item.RollbackOf = rollbackOf.String
	item.Source = Source(source)
	item.CanRollback = canRB != 0

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	item.CreatedAt = ts

	return &item, nil
}
