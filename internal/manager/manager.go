package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sandeepkv93/trf/internal/logging"
	"github.com/sandeepkv93/trf/internal/model"
	"github.com/sandeepkv93/trf/internal/storage"
)

// PageSize matches the number of single-letter tags.
const PageSize = len(Tags)

const Tags = "abcdefghijklmnopqrstuvwxyz"

type pageTag struct {
	page int
	tag  rune
}

type pageRow struct {
	page int
	row  int
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.log = logger
		}
	}
}

// Manager owns the tracker collection. It is not safe for concurrent use;
// callers drive it from one event loop.
type Manager struct {
	store storage.Store
	log   *slog.Logger
	now   func() time.Time
	// loadErr holds the last Load failure. While set, every commit is
	// refused so the empty fallback never overwrites persisted trackers.
	loadErr error

	trackers   map[int64]*model.Tracker
	settings   map[string]float64
	nextID     int64
	sortOrder  SortOrder
	activePage int

	tagToID   map[pageTag]int64
	rowToID   map[pageRow]int64
	tagToRow  map[pageTag]int
	idToTimes map[int64]Window
}

func New(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		log:       logging.Discard(),
		now:       time.Now,
		trackers:  map[int64]*model.Tracker{},
		settings:  DefaultSettings(),
		nextID:    1,
		sortOrder: SortForecast,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetIndices()
	return m
}

// Load replaces in-memory state with the store's. On failure the manager is
// left empty with default settings, refuses every mutation until a later Load
// succeeds, and the error is returned for reporting.
func (m *Manager) Load(ctx context.Context) error {
	state, err := m.store.Load(ctx, DefaultSettings())
	if err != nil {
		m.log.Error("load failed, starting empty and read-only", "error", err)
		m.loadErr = err
		m.trackers = map[int64]*model.Tracker{}
		m.settings = DefaultSettings()
		m.nextID = 1
		m.activePage = 0
		m.resetIndices()
		return &PersistenceError{Op: "load", Err: err}
	}

	settings := DefaultSettings()
	for k, v := range state.Settings {
		settings[k] = v
	}
	m.settings = settings

	loc := m.now().Location()
	eta := m.Eta()
	m.trackers = make(map[int64]*model.Tracker, len(state.Trackers))
	for id, rec := range state.Trackers {
		m.trackers[id] = fromRecord(rec, eta, loc)
	}
	m.nextID = state.NextID
	m.loadErr = nil
	m.activePage = 0
	m.resetIndices()
	m.log.Info("loaded trackers", "count", len(m.trackers), "next_id", m.nextID)
	return nil
}

// ReadOnly reports whether the last Load failed.
func (m *Manager) ReadOnly() bool {
	return m.loadErr != nil
}

func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) Now() time.Time {
	return m.now()
}

func (m *Manager) Count() int {
	return len(m.trackers)
}

func (m *Manager) NextID() int64 {
	return m.nextID
}

func (m *Manager) Tracker(id int64) (*model.Tracker, bool) {
	t, ok := m.trackers[id]
	return t, ok
}

// Trackers returns every tracker in the current sort order.
func (m *Manager) Trackers() []*model.Tracker {
	out := make([]*model.Tracker, 0, len(m.trackers))
	for _, t := range m.trackers {
		out = append(out, t)
	}
	order := m.sortOrder
	sort.SliceStable(out, func(i, j int) bool {
		return sortKeyFor(out[i], order).less(sortKeyFor(out[j], order))
	})
	return out
}

func (m *Manager) AddTracker(ctx context.Context, name string) (int64, error) {
	id := m.nextID
	t, err := model.NewTracker(id, name, m.now(), m.Eta())
	if err != nil {
		return 0, err
	}
	if err := m.commit(ctx, "add tracker", func(tx storage.Tx) error {
		if err := tx.PutTracker(toRecord(t)); err != nil {
			return err
		}
		return tx.PutNextID(id + 1)
	}); err != nil {
		return 0, err
	}
	m.trackers[id] = t
	m.nextID = id + 1
	m.log.Info("tracker added", "id", id, "name", t.Name)
	return id, nil
}

// DeleteTracker is a no-op for an unknown id.
func (m *Manager) DeleteTracker(ctx context.Context, id int64) error {
	t, ok := m.trackers[id]
	if !ok {
		m.log.Debug("delete of absent tracker ignored", "id", id)
		return nil
	}
	if err := m.commit(ctx, "delete tracker", func(tx storage.Tx) error {
		return tx.DeleteTracker(id)
	}); err != nil {
		return err
	}
	delete(m.trackers, id)
	delete(m.idToTimes, id)
	if last := m.NumPages() - 1; m.activePage > last && last >= 0 {
		m.activePage = last
	}
	m.log.Info("tracker deleted", "id", id, "name", t.Name)
	return nil
}

func (m *Manager) RecordCompletion(ctx context.Context, id int64, ev model.CompletionEvent) (*model.Tracker, error) {
	return m.mutate(ctx, id, "record completion", func(t *model.Tracker) error {
		t.RecordCompletion(ev, m.now())
		return nil
	})
}

func (m *Manager) RecordCompletions(ctx context.Context, id int64, events []model.CompletionEvent) (*model.Tracker, error) {
	return m.mutate(ctx, id, "record completions", func(t *model.Tracker) error {
		t.RecordCompletions(events, m.now())
		return nil
	})
}

func (m *Manager) Rename(ctx context.Context, id int64, name string) (*model.Tracker, error) {
	return m.mutate(ctx, id, "rename tracker", func(t *model.Tracker) error {
		return t.Rename(name, m.now())
	})
}

func (m *Manager) EditHistoryEntry(ctx context.Context, id int64, index int, action model.HistoryAction) (*model.Tracker, error) {
	return m.mutate(ctx, id, "edit history", func(t *model.Tracker) error {
		return t.EditHistoryEntry(index, action, m.now())
	})
}

// Refresh recomputes every forecast against the current η.
func (m *Manager) Refresh() {
	eta := m.Eta()
	for _, t := range m.trackers {
		if t.SpreadSensitivity() != eta {
			t.SetSpreadSensitivity(eta)
		}
	}
	m.log.Debug("refreshed tracker forecasts", "count", len(m.trackers), "eta", eta)
}

// mutate applies fn to a clone and swaps it in only after the store commits.
func (m *Manager) mutate(ctx context.Context, id int64, op string, fn func(*model.Tracker) error) (*model.Tracker, error) {
	current, ok := m.trackers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTracker, id)
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := m.commit(ctx, op, func(tx storage.Tx) error {
		return tx.PutTracker(toRecord(next))
	}); err != nil {
		return nil, err
	}
	m.trackers[id] = next
	m.log.Info(op, "id", id, "completions", len(next.History))
	return next, nil
}

func (m *Manager) commit(ctx context.Context, op string, fn func(storage.Tx) error) error {
	if m.loadErr != nil {
		m.log.Warn("write refused, store not loaded", "op", op)
		return &PersistenceError{Op: op, Err: fmt.Errorf("%w: %v", ErrNotLoaded, m.loadErr)}
	}
	tx, err := m.store.Begin(ctx)
	if err != nil {
		m.log.Error("begin failed", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Abort()
		m.log.Error("write failed", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Abort()
		m.log.Error("commit failed", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}
