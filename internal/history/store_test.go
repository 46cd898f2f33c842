package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	s2.Close()
}

func TestAppendAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := Item{
		ID:          "snap-1",
		Instance:    "local",
		Label:       "Set model",
		RecipeID:    "setup_identity",
		Source:      SourceRecipe,
		CanRollback: true,
		Config:      `{"agents":{}}`,
		CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.Append(ctx, item); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	got, err := s.Get(ctx, "snap-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Label != item.Label || got.RecipeID != item.RecipeID || got.Source != SourceRecipe {
		t.Errorf("Get() = %+v, want %+v", got, item)
	}
	if !got.CanRollback {
		t.Error("CanRollback lost in round trip")
	}
	if got.Config != item.Config {
		t.Errorf("Config = %s, want %s", got.Config, item.Config)
	}
	if !got.CreatedAt.Equal(item.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, item.CreatedAt)
	}
}

func TestAppend_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := Item{ID: "snap-1", Instance: "local", Source: SourceManual, CanRollback: true, Config: "{}"}
	if err := s.Append(ctx, item); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	// Second append with the same id is silently ignored.
	item.Label = "changed"
	if err := s.Append(ctx, item); err != nil {
		t.Fatalf("duplicate Append() failed: %v", err)
	}

	got, err := s.Get(ctx, "snap-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Label != "" {
		t.Errorf("duplicate append overwrote label: %q", got.Label)
	}
}

func TestAppend_RejectsInvalidSource(t *testing.T) {
	s := openTestStore(t)

	err := s.Append(context.Background(), Item{ID: "x", Instance: "local", Source: "bogus", Config: "{}"})
	if err == nil {
		t.Error("Append() with invalid source succeeded, want error")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("Get(missing) succeeded, want ErrNotFound")
	}
}

func TestList_NewestFirstWithPaging(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		item := Item{
			ID:          string(rune('a' + i)),
			Instance:    "local",
			Source:      SourceManual,
			CanRollback: true,
			Config:      "{}",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Append(ctx, item); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	items, err := s.List(ctx, "local", 2, 0, nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "e" || items[1].ID != "d" {
		t.Errorf("List(limit=2) = %v, want [e d]", ids(items))
	}

	items, err = s.List(ctx, "local", 2, 2, nil)
	if err != nil {
		t.Fatalf("List() with offset failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "c" || items[1].ID != "b" {
		t.Errorf("List(limit=2, offset=2) = %v, want [c b]", ids(items))
	}
}

func TestList_ScopedToInstance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Append(ctx, Item{ID: "l1", Instance: "local", Source: SourceManual, Config: "{}"})
	s.Append(ctx, Item{ID: "r1", Instance: "staging", Source: SourceManual, Config: "{}"})

	items, err := s.List(ctx, "local", 0, 0, nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "l1" {
		t.Errorf("List(local) = %v, want [l1]", ids(items))
	}
}

func TestList_Filter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s.Append(ctx, Item{ID: "m1", Instance: "local", Source: SourceManual, Config: "{}", CreatedAt: base})
	s.Append(ctx, Item{ID: "rc1", Instance: "local", Source: SourceRecipe, RecipeID: "bind_channel", Config: "{}", CreatedAt: base.Add(time.Hour)})
	s.Append(ctx, Item{ID: "rb1", Instance: "local", Source: SourceRollback, RollbackOf: "m1", Config: "{}", CreatedAt: base.Add(2 * time.Hour)})

	items, err := s.List(ctx, "local", 0, 0, &Filter{Source: SourceRecipe})
	if err != nil {
		t.Fatalf("List(source filter) failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "rc1" {
		t.Errorf("List(source=recipe) = %v, want [rc1]", ids(items))
	}

	items, err = s.List(ctx, "local", 0, 0, &Filter{Since: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("List(since filter) failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("List(since) = %v, want 2 entries", ids(items))
	}

	items, err = s.List(ctx, "local", 0, 0, &Filter{RecipeID: "bind_channel"})
	if err != nil {
		t.Fatalf("List(recipe filter) failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "rc1" {
		t.Errorf("List(recipeID) = %v, want [rc1]", ids(items))
	}
}

func TestMarkNotRollbackable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Append(ctx, Item{ID: "snap-1", Instance: "local", Source: SourceManual, CanRollback: true, Config: "{}"})

	if err := s.MarkNotRollbackable(ctx, "snap-1"); err != nil {
		t.Fatalf("MarkNotRollbackable() failed: %v", err)
	}

	got, err := s.Get(ctx, "snap-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.CanRollback {
		t.Error("CanRollback still true after MarkNotRollbackable")
	}

	// Missing ids are tolerated.
	if err := s.MarkNotRollbackable(ctx, "missing"); err != nil {
		t.Errorf("MarkNotRollbackable(missing) failed: %v", err)
	}
}

func TestResolveRollbackOf(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Append(ctx, Item{ID: "orig", Instance: "local", Source: SourceManual, Config: "{}"})
	s.Append(ctx, Item{ID: "rb", Instance: "local", Source: SourceRollback, RollbackOf: "orig", Config: "{}"})
	s.Append(ctx, Item{ID: "dangling", Instance: "local", Source: SourceRollback, RollbackOf: "gone", Config: "{}"})

	rb, _ := s.Get(ctx, "rb")
	target, err := s.ResolveRollbackOf(ctx, *rb)
	if err != nil {
		t.Fatalf("ResolveRollbackOf() failed: %v", err)
	}
	if target == nil || target.ID != "orig" {
		t.Errorf("ResolveRollbackOf() = %v, want orig", target)
	}

	// A dangling reference resolves to nil, never an error.
	d, _ := s.Get(ctx, "dangling")
	target, err = s.ResolveRollbackOf(ctx, *d)
	if err != nil {
		t.Fatalf("ResolveRollbackOf(dangling) failed: %v", err)
	}
	if target != nil {
		t.Errorf("ResolveRollbackOf(dangling) = %v, want nil", target)
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
