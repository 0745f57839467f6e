package manager

import (
	"context"
	"errors"

	"github.com/sandeepkv93/trf/internal/storage"
)

var errInjected = errors.New("injected failure")

type memStore struct {
	state     storage.State
	loadErr   error
	commitErr error
	commits   int
	aborts    int
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) Load(_ context.Context, defaults map[string]float64) (storage.State, error) {
	if s.loadErr != nil {
		return storage.State{}, s.loadErr
	}
	if s.state.Settings == nil {
		s.state.Settings = map[string]float64{}
		for k, v := range defaults {
			s.state.Settings[k] = v
		}
	}
	if s.state.Trackers == nil {
		s.state.Trackers = map[int64]storage.Tracker{}
		s.state.NextID = 1
	}
	out := storage.State{
		Trackers: map[int64]storage.Tracker{},
		Settings: map[string]float64{},
		NextID:   s.state.NextID,
	}
	for k, v := range s.state.Trackers {
		out.Trackers[k] = v
	}
	for k, v := range s.state.Settings {
		out.Settings[k] = v
	}
	return out, nil
}

func (s *memStore) Begin(_ context.Context) (storage.Tx, error) {
	return &memTx{store: s}, nil
}

func (s *memStore) Close() error { return nil }

type memTx struct {
	store *memStore
	ops   []func(*storage.State)
}

func (t *memTx) PutTracker(in storage.Tracker) error {
	t.ops = append(t.ops, func(st *storage.State) { st.Trackers[in.ID] = in })
	return nil
}

func (t *memTx) DeleteTracker(id int64) error {
	t.ops = append(t.ops, func(st *storage.State) { delete(st.Trackers, id) })
	return nil
}

func (t *memTx) PutSettings(settings map[string]float64) error {
	t.ops = append(t.ops, func(st *storage.State) {
		st.Settings = map[string]float64{}
		for k, v := range settings {
			st.Settings[k] = v
		}
	})
	return nil
}

func (t *memTx) PutNextID(next int64) error {
	t.ops = append(t.ops, func(st *storage.State) { st.NextID = next })
	return nil
}

func (t *memTx) Commit() error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	if t.store.state.Trackers == nil {
		t.store.state.Trackers = map[int64]storage.Tracker{}
	}
	for _, op := range t.ops {
		op(&t.store.state)
	}
	t.store.commits++
	return nil
}

func (t *memTx) Abort() error {
	t.store.aborts++
	t.ops = nil
	return nil
}
