package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupDiskv(t *testing.T) *DiskvStore {
	t.Helper()
	store, err := OpenDiskv(filepath.Join(t.TempDir(), "trf.d"))
	if err != nil {
		t.Fatalf("open diskv: %v", err)
	}
	return store
}

func TestDiskvSeedsAndPersists(t *testing.T) {
	store := setupDiskv(t)
	ctx := context.Background()
	state, err := store.Load(ctx, map[string]float64{"η": 1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.NextID != 1 || state.Settings["η"] != 1 {
		t.Fatalf("unexpected seeded state: %#v", state)
	}

	commit(t, store, func(tx Tx) error {
		if err := tx.PutTracker(sampleTracker(t, 1)); err != nil {
			return err
		}
		return tx.PutNextID(2)
	})

	reopened, err := OpenDiskv(store.d.BasePath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	state, err = reopened.Load(ctx, map[string]float64{"η": 4})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := state.Trackers[1]
	if got.Name != "water plants" || len(got.History) != 2 || got.History[1].Adjustment != -30*time.Minute {
		t.Fatalf("unexpected tracker: %#v", got)
	}
	if state.NextID != 2 || state.Settings["η"] != 1 {
		t.Fatalf("unexpected meta: %#v", state)
	}
}

func TestDiskvAbortAndDelete(t *testing.T) {
	store := setupDiskv(t)
	ctx := context.Background()
	if _, err := store.Load(ctx, nil); err != nil {
		t.Fatalf("load: %v", err)
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	_ = tx.PutTracker(sampleTracker(t, 3))
	if err := tx.Abort(); err != nil {
		t.Fatalf("abort: %v", err)
	}
	state, err := store.Load(ctx, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(state.Trackers) != 0 {
		t.Fatalf("aborted write leaked: %#v", state.Trackers)
	}

	commit(t, store, func(tx Tx) error { return tx.PutTracker(sampleTracker(t, 3)) })
	commit(t, store, func(tx Tx) error { return tx.DeleteTracker(3) })
	state, err = store.Load(ctx, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(state.Trackers) != 0 {
		t.Fatalf("unexpected state after delete: %#v", state)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("bolt", t.TempDir()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
