package baseline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/openclaw/clawctl/internal/testutil"
)

func TestSave_CapturesCanonicalBaseline(t *testing.T) {
	fake := testutil.NewFakeBackend(`{"b":2,"a":1}`)
	tr := NewTracker(fake, nil)

	if err := tr.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	base, ok := tr.Baseline()
	if !ok {
		t.Fatal("no baseline after Save")
	}
	if base != `{"a":1,"b":2}` {
		t.Errorf("baseline = %s, want canonical {\"a\":1,\"b\":2}", base)
	}
}

func TestSave_KeepsPreviousBaselineOnFailure(t *testing.T) {
	fake := testutil.NewFakeBackend(`{"a":1}`)
	tr := NewTracker(fake, nil)
	ctx := context.Background()

	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	fake.ReadErr = errors.New("remote unreachable")
	if err := tr.Save(ctx); err == nil {
		t.Error("Save() with unreadable config succeeded, want error")
	}

	base, ok := tr.Baseline()
	if !ok || base != `{"a":1}` {
		t.Errorf("previous baseline lost on failed capture: %q, %v", base, ok)
	}
}

func TestCheckDirty_ReflectsBaselineNotHistory(t *testing.T) {
	fake := testutil.NewFakeBackend(`{"model":"gpt-4"}`)
	tr := NewTracker(fake, nil)
	ctx := context.Background()

	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	state, err := tr.CheckDirty(ctx)
	if err != nil {
		t.Fatalf("CheckDirty() failed: %v", err)
	}
	if state.Dirty {
		t.Error("fresh baseline reports dirty")
	}

	// Mutate the live config out from under the tracker.
	if err := fake.RunConfigSet(ctx, "model", `"gpt-5"`); err != nil {
		t.Fatalf("RunConfigSet() failed: %v", err)
	}

	state, err = tr.CheckDirty(ctx)
	if err != nil {
		t.Fatalf("CheckDirty() failed: %v", err)
	}
	if !state.Dirty {
		t.Error("changed config reports clean")
	}
	if state.Baseline == state.Current {
		t.Error("dirty state has identical baseline and current")
	}
	if state.Diff == "" {
		t.Error("dirty state missing diff")
	}

	// Re-baselining swallows the difference.
	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	state, err = tr.CheckDirty(ctx)
	if err != nil {
		t.Fatalf("CheckDirty() failed: %v", err)
	}
	if state.Dirty {
		t.Error("dirty after re-baseline")
	}
}

func TestCheckDirty_FormattingOnlyChangeIsClean(t *testing.T) {
	fake := testutil.NewFakeBackend(`{"a": 1}`)
	tr := NewTracker(fake, nil)
	ctx := context.Background()

	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	// Re-serialize with different whitespace; semantically identical.
	fake.Raw = `{ "a"  : 1 }`

	state, err := tr.CheckDirty(ctx)
	if err != nil {
		t.Fatalf("CheckDirty() failed: %v", err)
	}
	if state.Dirty {
		t.Error("whitespace-only change reported dirty")
	}
}

func TestSetPersistPath_BaselineSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	ctx := context.Background()

	fake := testutil.NewFakeBackend(`{"a":1}`)
	tr1 := NewTracker(fake, nil)
	tr1.SetPersistPath(path)
	if err := tr1.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	// A later process edits nothing in memory but loads the file.
	tr2 := NewTracker(fake, nil)
	tr2.SetPersistPath(path)

	base, ok := tr2.Baseline()
	if !ok {
		t.Fatal("no baseline after reload")
	}
	if base != `{"a":1}` {
		t.Errorf("reloaded baseline = %s, want {\"a\":1}", base)
	}

	// The reloaded baseline drives dirty detection as usual.
	if err := fake.RunConfigSet(ctx, "a", "2"); err != nil {
		t.Fatalf("RunConfigSet() failed: %v", err)
	}
	state, err := tr2.CheckDirty(ctx)
	if err != nil {
		t.Fatalf("CheckDirty() failed: %v", err)
	}
	if !state.Dirty {
		t.Error("external change invisible after baseline reload")
	}
}

func TestSetPersistPath_KeepsCapturedBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	ctx := context.Background()

	stale := NewTracker(testutil.NewFakeBackend(`{"old":true}`), nil)
	stale.SetPersistPath(path)
	if err := stale.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	// A tracker that already captured in-process wins over the file.
	fake := testutil.NewFakeBackend(`{"new":true}`)
	tr := NewTracker(fake, nil)
	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	tr.SetPersistPath(path)

	base, _ := tr.Baseline()
	if base != `{"new":true}` {
		t.Errorf("persisted file overrode a live capture: %s", base)
	}
}

func TestCheckDirty_BeforeAnyBaseline(t *testing.T) {
	fake := testutil.NewFakeBackend(`{"a":1}`)
	tr := NewTracker(fake, nil)

	state, err := tr.CheckDirty(context.Background())
	if err != nil {
		t.Fatalf("CheckDirty() failed: %v", err)
	}
	if state.Dirty {
		t.Error("dirty before any baseline capture")
	}
}
