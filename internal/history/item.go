package history

import "time"

// Source identifies what produced a snapshot.
type Source string

const (
	// SourceRecipe marks a snapshot created by applying a recipe.
	SourceRecipe Source = "recipe"
	// SourceManual marks a snapshot created by manually queued changes.
	SourceManual Source = "manual"
	// SourceRollback marks a snapshot created by rolling back a prior one.
	SourceRollback Source = "rollback"
)

// Valid reports whether s is a known source value.
func (s Source) Valid() bool {
	switch s {
	case SourceRecipe, SourceManual, SourceRollback:
		return true
	}
	return false
}

// Item is one entry in the snapshot history.
//
// Config holds the canonical serialization of the ConfigDocument as it
// was BEFORE the change this entry records - rolling back to this
// snapshot undoes that change.
type Item struct {
	ID          string    `json:"id"`
	Instance    string    `json:"instance"`
	Label       string    `json:"label"`
	RecipeID    string    `json:"recipeId,omitempty"`
	Source      Source    `json:"source"`
	CanRollback bool      `json:"canRollback"`
	RollbackOf  string    `json:"rollbackOf,omitempty"`
	Config      string    `json:"-"` // full config text; omitted from listings
	CreatedAt   time.Time `json:"createdAt"`
}
