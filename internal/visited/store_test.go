package visited

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRecordAndTargets(t *testing.T) {
	store := openTestStore(t)

	for _, target := range []string{"a", "b", "a"} {
		if err := store.Record(target); err != nil {
			t.Fatalf("record %q: %v", target, err)
		}
	}

	targets, err := store.Targets()
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2: %v", len(targets), targets)
	}

	count, err := store.VisitCount("a")
	if err != nil {
		t.Fatalf("visit count: %v", err)
	}
	if count != 2 {
		t.Fatalf("visit count for a = %d, want 2", count)
	}
}

func TestStoreVisitCountUnknownTarget(t *testing.T) {
	store := openTestStore(t)
	count, err := store.VisitCount("never-seen")
	if err != nil {
		t.Fatalf("visit count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}
