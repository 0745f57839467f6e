package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// DiskvStore keeps each top-level key as one JSON file under BasePath.
type DiskvStore struct {
	mu sync.Mutex
	d  *diskv.Diskv
}

func OpenDiskv(basePath string) (*DiskvStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create diskv dir: %w", err)
	}
	return &DiskvStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		TempDir:      filepath.Join(basePath, ".tmp"),
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024,
	})}, nil
}

func (s *DiskvStore) Close() error {
	return nil
}

func (s *DiskvStore) Load(_ context.Context, defaults map[string]float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.d.Has(KeySettings) {
		if err := s.writeJSON(KeySettings, defaults); err != nil {
			return State{}, err
		}
	}
	if !s.d.Has(KeyTrackers) {
		if err := s.writeJSON(KeyTrackers, map[string]Tracker{}); err != nil {
			return State{}, err
		}
		if err := s.d.Write(KeyNextID, []byte("1")); err != nil {
			return State{}, fmt.Errorf("seed next_id: %w", err)
		}
	}

	out := State{}
	if err := s.readJSON(KeySettings, &out.Settings); err != nil {
		return State{}, err
	}
	trackers, err := s.readTrackers()
	if err != nil {
		return State{}, err
	}
	out.Trackers = trackers
	next, err := s.readNextID()
	if err != nil {
		return State{}, err
	}
	out.NextID = next
	if out.Settings == nil {
		out.Settings = map[string]float64{}
	}
	out.reconcile()
	return out, nil
}

func (s *DiskvStore) Begin(_ context.Context) (Tx, error) {
	return &diskvTx{store: s}, nil
}

func (s *DiskvStore) readJSON(key string, dst any) error {
	raw, err := s.d.Read(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *DiskvStore) writeJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.d.Write(key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// JSON object keys are strings, so trackers are keyed by decimal id on disk.
func (s *DiskvStore) readTrackers() (map[int64]Tracker, error) {
	raw := map[string]Tracker{}
	if s.d.Has(KeyTrackers) {
		if err := s.readJSON(KeyTrackers, &raw); err != nil {
			return nil, err
		}
	}
	out := make(map[int64]Tracker, len(raw))
	for _, t := range raw {
		if t.History == nil {
			t.History = []Completion{}
		}
		out[t.ID] = t
	}
	return out, nil
}

func (s *DiskvStore) readNextID() (int64, error) {
	if !s.d.Has(KeyNextID) {
		return 1, nil
	}
	raw, err := s.d.Read(KeyNextID)
	if err != nil {
		return 0, fmt.Errorf("read next_id: %w", err)
	}
	next, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode next_id: %w", err)
	}
	return next, nil
}

// diskvTx stages writes in memory. Commit rewrites each touched key through
// diskv's temp-file rename.
type diskvTx struct {
	store    *DiskvStore
	puts     map[int64]Tracker
	deletes  map[int64]bool
	settings map[string]float64
	nextID   *int64
	done     bool
}

func (t *diskvTx) PutTracker(in Tracker) error {
	if t.done {
		return ErrTxDone
	}
	if t.puts == nil {
		t.puts = map[int64]Tracker{}
	}
	t.puts[in.ID] = in
	delete(t.deletes, in.ID)
	return nil
}

func (t *diskvTx) DeleteTracker(id int64) error {
	if t.done {
		return ErrTxDone
	}
	if t.deletes == nil {
		t.deletes = map[int64]bool{}
	}
	t.deletes[id] = true
	delete(t.puts, id)
	return nil
}

func (t *diskvTx) PutSettings(settings map[string]float64) error {
	if t.done {
		return ErrTxDone
	}
	t.settings = copySettings(settings)
	return nil
}

func (t *diskvTx) PutNextID(next int64) error {
	if t.done {
		return ErrTxDone
	}
	t.nextID = &next
	return nil
}

func (t *diskvTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(t.puts) > 0 || len(t.deletes) > 0 {
		current, err := s.readTrackers()
		if err != nil {
			return err
		}
		for id := range t.deletes {
			if _, ok := current[id]; !ok {
				return fmt.Errorf("delete tracker %d: %w", id, ErrNotFound)
			}
			delete(current, id)
		}
		for id, tr := range t.puts {
			current[id] = tr
		}
		encoded := make(map[string]Tracker, len(current))
		for id, tr := range current {
			encoded[strconv.FormatInt(id, 10)] = tr
		}
		if err := s.writeJSON(KeyTrackers, encoded); err != nil {
			return err
		}
	}
	if t.settings != nil {
		if err := s.writeJSON(KeySettings, t.settings); err != nil {
			return err
		}
	}
	if t.nextID != nil {
		if err := s.d.Write(KeyNextID, []byte(strconv.FormatInt(*t.nextID, 10))); err != nil {
			return fmt.Errorf("write next_id: %w", err)
		}
	}
	return nil
}

func (t *diskvTx) Abort() error {
	t.done = true
	t.puts = nil
	t.deletes = nil
	t.settings = nil
	t.nextID = nil
	return nil
}
