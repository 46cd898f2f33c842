package history

import (
	"strings"
	"time"
)

// timeLayout is a fixed-width UTC timestamp format. Unlike RFC3339Nano
// it never trims trailing zeros, so stored timestamps sort
// lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Filter narrows a history listing. Zero-value fields are ignored.
type Filter struct {
	Source   Source    // only entries from this source
	RecipeID string    // only entries originating from this recipe
	Since    time.Time // only entries at or after this time
	Until    time.Time // only entries before this time
}

// buildWhere compiles the instance scope and filter into a SQL WHERE
// clause with positional args. Filters compose with AND; an empty filter
// yields just the instance predicate.
func buildWhere(instance string, filter *Filter) (string, []any) {
	conds := []string{"instance = ?"}
	args := []any{instance}

	if filter != nil {
		if filter.Source != "" {
			conds = append(conds, "source = ?")
			args = append(args, string(filter.Source))
		}
		if filter.RecipeID != "" {
			conds = append(conds, "recipe_id = ?")
			args = append(args, filter.RecipeID)
		}
		if !filter.Since.IsZero() {
			conds = append(conds, "created_at >= ?")
			args = append(args, filter.Since.UTC().Format(timeLayout))
		}
		if !filter.Until.IsZero() {
			conds = append(conds, "created_at < ?")
			args = append(args, filter.Until.UTC().Format(timeLayout))
		}
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}
