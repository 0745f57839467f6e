package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/trf/internal/model"
)

var testNow = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

func setupManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	m := New(store, WithClock(func() time.Time { return testNow }))
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return m, store
}

func jan(d int) time.Time {
	return time.Date(2026, 1, d, 9, 0, 0, 0, time.UTC)
}

func TestAddThirtyTrackersPaginates(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		if _, err := m.AddTracker(ctx, fmt.Sprintf("tracker %02d", i)); err != nil {
			t.Fatalf("add tracker %d: %v", i, err)
		}
	}
	if m.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", m.NumPages())
	}

	second := m.Listing(1, 0)
	if len(second.Rows) != 4 {
		t.Fatalf("expected 4 rows on page 2, got %d", len(second.Rows))
	}
	for i, want := range "abcd" {
		if second.Rows[i].Tag != want {
			t.Fatalf("row %d: expected tag %c, got %c", i, want, second.Rows[i].Tag)
		}
	}

	first := m.Listing(0, 0)
	seen := map[int64]bool{}
	all := append(append([]Row{}, first.Rows...), second.Rows...)
	sorted := m.Trackers()
	if len(all) != len(sorted) {
		t.Fatalf("pages cover %d trackers, want %d", len(all), len(sorted))
	}
	for i, row := range all {
		if seen[row.ID] {
			t.Fatalf("tracker %d listed twice", row.ID)
		}
		seen[row.ID] = true
		if sorted[i].ID != row.ID {
			t.Fatalf("position %d: expected id %d, got %d", i, sorted[i].ID, row.ID)
		}
	}
}

func TestDeleteAbsentTrackerIsNoop(t *testing.T) {
	m, store := setupManager(t)
	if err := m.DeleteTracker(context.Background(), 42); err != nil {
		t.Fatalf("expected nil for absent delete, got %v", err)
	}
	if store.commits != 0 {
		t.Fatalf("expected no commit, got %d", store.commits)
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	m, store := setupManager(t)
	ctx := context.Background()
	first, _ := m.AddTracker(ctx, "one")
	second, _ := m.AddTracker(ctx, "two")
	if err := m.DeleteTracker(ctx, second); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, err := m.AddTracker(ctx, "three")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first != 1 || second != 2 || third != 3 {
		t.Fatalf("unexpected ids %d %d %d", first, second, third)
	}
	if store.state.NextID != 4 {
		t.Fatalf("expected persisted next id 4, got %d", store.state.NextID)
	}
}

func TestCommitFailureLeavesStateUntouched(t *testing.T) {
	m, store := setupManager(t)
	ctx := context.Background()
	id, err := m.AddTracker(ctx, "water plants")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	store.commitErr = errInjected
	_, err = m.RecordCompletion(ctx, id, model.CompletionEvent{At: jan(1)})
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, errInjected) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	tr, _ := m.Tracker(id)
	if len(tr.History) != 0 {
		t.Fatalf("history changed despite failed commit: %#v", tr.History)
	}
	if store.aborts == 0 {
		t.Fatalf("expected abort after failed commit")
	}

	if _, err := m.AddTracker(ctx, "never stored"); err == nil {
		t.Fatalf("expected add to fail")
	}
	if m.NextID() != 2 || m.Count() != 1 {
		t.Fatalf("failed add changed state: next=%d count=%d", m.NextID(), m.Count())
	}
}

func TestLoadFailureFallsBackToEmpty(t *testing.T) {
	store := newMemStore()
	store.loadErr = errInjected
	m := New(store)
	err := m.Load(context.Background())
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Op != "load" {
		t.Fatalf("expected load persistence error, got %v", err)
	}
	if m.Count() != 0 || m.Eta() != 1 || m.NextID() != 1 {
		t.Fatalf("expected empty defaults, got count=%d eta=%v next=%d", m.Count(), m.Eta(), m.NextID())
	}
}

func TestLoadFailureRefusesWritesOverPersistedTrackers(t *testing.T) {
	m, store := setupManager(t)
	ctx := context.Background()
	id, err := m.AddTracker(ctx, "gym")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := m.RecordCompletions(ctx, id, []model.CompletionEvent{{At: jan(1)}, {At: jan(8)}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	commits := store.commits

	store.loadErr = errInjected
	fallback := New(store, WithClock(func() time.Time { return testNow }))
	if err := fallback.Load(ctx); err == nil {
		t.Fatalf("expected load error")
	}
	if !fallback.ReadOnly() {
		t.Fatalf("expected read-only manager after failed load")
	}

	_, err = fallback.AddTracker(ctx, "new one")
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected refused add, got %v", err)
	}
	if err := fallback.UpdateSetting(ctx, SettingEta, 2); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected refused settings update, got %v", err)
	}
	if err := fallback.RestoreDefaults(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected refused restore, got %v", err)
	}
	if fallback.Count() != 0 || fallback.NextID() != 1 {
		t.Fatalf("refused writes changed memory: count=%d next=%d", fallback.Count(), fallback.NextID())
	}
	if store.commits != commits {
		t.Fatalf("expected no commits after failed load, got %d more", store.commits-commits)
	}
	saved := store.state.Trackers[id]
	if saved.Name != "gym" || len(saved.History) != 2 || store.state.NextID != 2 {
		t.Fatalf("persisted tracker overwritten: %#v next=%d", saved, store.state.NextID)
	}

	store.loadErr = nil
	if err := fallback.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	next, err := fallback.AddTracker(ctx, "new one")
	if err != nil || next != 2 {
		t.Fatalf("expected id 2 after recovery, got %d %v", next, err)
	}
}

func TestLoadRestoresPersistedTrackers(t *testing.T) {
	m, store := setupManager(t)
	ctx := context.Background()
	id, _ := m.AddTracker(ctx, "water plants")
	if _, err := m.RecordCompletions(ctx, id, []model.CompletionEvent{{At: jan(1)}, {At: jan(8)}}); err != nil {
		t.Fatalf("record: %v", err)
	}

	reloaded := New(store, WithClock(func() time.Time { return testNow }))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	tr, ok := reloaded.Tracker(id)
	if !ok || tr.Forecast().NextExpected == nil || !tr.Forecast().NextExpected.Equal(jan(15)) {
		t.Fatalf("expected forecast rebuilt on load, got %#v", tr)
	}
	if reloaded.NextID() != 2 {
		t.Fatalf("expected next id 2, got %d", reloaded.NextID())
	}
}

func TestSortOrders(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()
	withForecast, _ := m.AddTracker(ctx, "b forecast")
	latestOnly, _ := m.AddTracker(ctx, "c latest")
	bare, _ := m.AddTracker(ctx, "a bare")
	if _, err := m.RecordCompletions(ctx, withForecast, []model.CompletionEvent{{At: jan(1)}, {At: jan(2)}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := m.RecordCompletion(ctx, latestOnly, model.CompletionEvent{At: jan(20)}); err != nil {
		t.Fatalf("record: %v", err)
	}

	assertOrder := func(order SortOrder, want ...int64) {
		t.Helper()
		if err := m.SetSort(order); err != nil {
			t.Fatalf("set sort: %v", err)
		}
		got := m.Trackers()
		for i, id := range want {
			if got[i].ID != id {
				t.Fatalf("%s: position %d expected %d, got %d", order, i, id, got[i].ID)
			}
		}
	}
	assertOrder(SortForecast, withForecast, latestOnly, bare)
	assertOrder(SortLatest, bare, withForecast, latestOnly)
	assertOrder(SortName, bare, withForecast, latestOnly)
	assertOrder(SortID, withForecast, latestOnly, bare)

	if err := m.SetSort("random"); !errors.Is(err, ErrInvalidSort) {
		t.Fatalf("expected ErrInvalidSort, got %v", err)
	}
	if o, err := ParseSortOrder("L"); err != nil || o != SortLatest {
		t.Fatalf("expected latest from letter, got %q %v", o, err)
	}
}

func TestPageBoundsAreRejected(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()
	for i := 0; i < 27; i++ {
		if _, err := m.AddTracker(ctx, fmt.Sprintf("t%d", i)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := m.NextPage(); err != nil {
		t.Fatalf("next page: %v", err)
	}
	if err := m.NextPage(); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
	if m.ActivePage() != 1 {
		t.Fatalf("rejected page changed state: %d", m.ActivePage())
	}
	if err := m.SetPage(-1); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage for -1, got %v", err)
	}

	last := m.Trackers()[26]
	if err := m.DeleteTracker(ctx, last.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.ActivePage() != 0 {
		t.Fatalf("expected page clamped after delete, got %d", m.ActivePage())
	}
}

func TestTagLookupUsesLastListing(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()
	id, _ := m.AddTracker(ctx, "walk dog")
	if _, err := m.TrackerByTag('a'); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected no tags before listing, got %v", err)
	}
	m.CurrentListing(80)
	tr, err := m.TrackerByTag('a')
	if err != nil || tr.ID != id {
		t.Fatalf("expected tag a -> %d, got %v %v", id, tr, err)
	}
	tr, err = m.TrackerByRow(1)
	if err != nil || tr.ID != id {
		t.Fatalf("expected row 1 -> %d, got %v %v", id, tr, err)
	}
	if row, ok := m.RowForTag('a'); !ok || row != 1 {
		t.Fatalf("expected tag a on row 1, got %d %v", row, ok)
	}
	if _, err := m.TrackerByTag('b'); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
}

func TestListingRowsAndTruncation(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()
	id, _ := m.AddTracker(ctx, "abcdefghijklmnop @somewhere")
	if _, err := m.RecordCompletions(ctx, id, []model.CompletionEvent{{At: jan(1)}, {At: jan(8)}, {At: jan(20)}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	listing := m.CurrentListing(40)
	row := listing.Rows[0]
	if row.Name != "abcdefghi…" {
		t.Fatalf("unexpected truncated name %q", row.Name)
	}
	if row.Latest != "26-01-20" || row.Forecast != "26-01-29" {
		t.Fatalf("unexpected dates latest=%q forecast=%q", row.Latest, row.Forecast)
	}
	if strings.TrimSpace(row.Spread) != "2d12h" {
		t.Fatalf("unexpected spread %q", row.Spread)
	}
	if row.Window.Early != "26-01-27" || row.Window.Late != "26-02-01" {
		t.Fatalf("unexpected window %#v", row.Window)
	}
	text := listing.String()
	if !strings.HasPrefix(text, ListingBanner+"\n a    26-01-29") {
		t.Fatalf("unexpected listing text:\n%s", text)
	}
	if listing.PageBanner() != "page 1/1" {
		t.Fatalf("unexpected page banner %q", listing.PageBanner())
	}
}

func TestUpdateSettings(t *testing.T) {
	m, store := setupManager(t)
	ctx := context.Background()
	id, _ := m.AddTracker(ctx, "water plants")
	if _, err := m.RecordCompletions(ctx, id, []model.CompletionEvent{{At: jan(1)}, {At: jan(8)}, {At: jan(20)}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	before := store.commits

	if err := m.UpdateSetting(ctx, "σ", 2); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	if store.commits != before {
		t.Fatalf("rejected setting was committed")
	}

	if err := m.UpdateSetting(ctx, SettingEta, 2); err != nil {
		t.Fatalf("update setting: %v", err)
	}
	tr, _ := m.Tracker(id)
	f := tr.Forecast()
	if f.Late.Sub(*f.NextExpected) != 5*24*time.Hour {
		t.Fatalf("expected window scaled by η=2, got %v", f.Late.Sub(*f.NextExpected))
	}
	if store.state.Settings[SettingEta] != 2 {
		t.Fatalf("expected persisted η=2, got %v", store.state.Settings)
	}

	if err := m.RestoreDefaults(ctx); err != nil {
		t.Fatalf("restore defaults: %v", err)
	}
	if m.Eta() != 1 {
		t.Fatalf("expected η restored, got %v", m.Eta())
	}
}

func TestSettingsDocument(t *testing.T) {
	doc, err := EncodeSettings(map[string]float64{SettingEta: 1.5})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSettings(doc)
	if err != nil {
		t.Fatalf("decode %q: %v", doc, err)
	}
	if got[SettingEta] != 1.5 {
		t.Fatalf("unexpected decoded settings %v", got)
	}

	if _, err := DecodeSettings("η: 1\nwidth: 3\n"); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	if _, err := DecodeSettings("η: [1, 2]"); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
}

func TestCreateFromSpecSeedsTwoCompletions(t *testing.T) {
	m, _ := setupManager(t)
	id, err := m.CreateFromSpec(context.Background(), "walk dog, 2026-01-08 09:00, 7d")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tr, _ := m.Tracker(id)
	if tr.Name != "walk dog" || len(tr.History) != 2 {
		t.Fatalf("unexpected tracker %#v", tr)
	}
	if !tr.History[0].At.Equal(jan(1)) || !tr.History[1].At.Equal(jan(8)) {
		t.Fatalf("unexpected seeded history %#v", tr.History)
	}
}

func TestCreateFromSpecPartialSuccess(t *testing.T) {
	m, _ := setupManager(t)
	id, err := m.CreateFromSpec(context.Background(), "walk dog, whenever")
	if err == nil {
		t.Fatalf("expected datetime error")
	}
	tr, ok := m.Tracker(id)
	if !ok || len(tr.History) != 0 {
		t.Fatalf("expected tracker kept without history, got %#v", tr)
	}

	id, err = m.CreateFromSpec(context.Background(), "feed cat, 2026-01-08 09:00, 3x")
	if err == nil {
		t.Fatalf("expected duration error")
	}
	tr, _ = m.Tracker(id)
	if len(tr.History) != 1 {
		t.Fatalf("expected datetime completion kept, got %#v", tr.History)
	}

	id, err = m.CreateFromSpec(context.Background(), "stretch, whenever, 3x")
	if err == nil || !strings.Contains(err.Error(), "error parsing datetime") || !strings.Contains(err.Error(), "invalid period argument") {
		t.Fatalf("expected both datetime and duration errors, got %v", err)
	}
	if tr, ok := m.Tracker(id); !ok || len(tr.History) != 0 {
		t.Fatalf("expected tracker kept without history, got %#v", tr)
	}

	if _, err := m.CreateFromSpec(context.Background(), "  "); !errors.Is(err, model.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}
