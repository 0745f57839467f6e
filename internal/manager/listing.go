package manager

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandeepkv93/trf/internal/model"
	"github.com/sandeepkv93/trf/internal/timefmt"
)

type SortOrder string

const (
	SortForecast SortOrder = "forecast"
	SortLatest   SortOrder = "latest"
	SortName     SortOrder = "name"
	SortID       SortOrder = "id"
)

var sortOrders = []SortOrder{SortForecast, SortLatest, SortName, SortID}

// ParseSortOrder accepts a full order name or its first letter.
func ParseSortOrder(s string) (SortOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range sortOrders {
		if s == string(o) || (len(s) == 1 && s[0] == o[0]) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

type sortKey struct {
	tier int
	at   time.Time
	name string
	id   int64
}

func (a sortKey) less(b sortKey) bool {
	if a.tier != b.tier {
		return a.tier < b.tier
	}
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	if a.name != b.name {
		return a.name < b.name
	}
	return a.id < b.id
}

func sortKeyFor(t *model.Tracker, order SortOrder) sortKey {
	f := t.Forecast()
	var forecast, latest *time.Time
	if f.NextExpected != nil {
		forecast = f.NextExpected
	}
	if f.LastCompletion != nil {
		at := f.LastCompletion.At
		latest = &at
	}

	switch order {
	case SortLatest:
		switch {
		case latest != nil:
			return sortKey{tier: 1, at: *latest, id: t.ID}
		case forecast != nil:
			return sortKey{tier: 2, at: *forecast, id: t.ID}
		default:
			return sortKey{tier: 0, id: t.ID}
		}
	case SortName:
		return sortKey{name: t.Name, id: t.ID}
	case SortID:
		return sortKey{id: t.ID}
	default:
		switch {
		case forecast != nil:
			return sortKey{tier: 0, at: *forecast, id: t.ID}
		case latest != nil:
			return sortKey{tier: 1, at: *latest, id: t.ID}
		default:
			return sortKey{tier: 2, id: t.ID}
		}
	}
}

func (m *Manager) SortOrder() SortOrder {
	return m.sortOrder
}

// SetSort changes the order and returns to the first page since tags move.
func (m *Manager) SetSort(order SortOrder) error {
	for _, o := range sortOrders {
		if o == order {
			m.sortOrder = order
			m.activePage = 0
			m.resetIndices()
			m.log.Debug("sort order changed", "sort", order)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidSort, order)
}

func (m *Manager) NumPages() int {
	return (len(m.trackers) + PageSize - 1) / PageSize
}

func (m *Manager) ActivePage() int {
	return m.activePage
}

// SetPage rejects pages outside [0, NumPages-1]. Page 0 is always valid.
func (m *Manager) SetPage(page int) error {
	if page != 0 && (page < 0 || page >= m.NumPages()) {
		m.log.Info("invalid page number", "page", page, "pages", m.NumPages())
		return fmt.Errorf("%w: %d", ErrInvalidPage, page+1)
	}
	m.activePage = page
	return nil
}

func (m *Manager) NextPage() error {
	return m.SetPage(m.activePage + 1)
}

func (m *Manager) PreviousPage() error {
	return m.SetPage(m.activePage - 1)
}

func (m *Manager) FirstPage() error {
	return m.SetPage(0)
}

// Window is the early/late range shown for a tracker, as short dates.
type Window struct {
	Early string
	Late  string
}

type Row struct {
	Tag      rune
	Row      int
	ID       int64
	Forecast string
	Spread   string
	Latest   string
	Name     string
	Window   Window
}

type Listing struct {
	Page     int
	NumPages int
	Sort     SortOrder
	Rows     []Row
}

const ListingBanner = " tag   forecast  η spread   latest   name"

func (l Listing) PageBanner() string {
	pages := l.NumPages
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("page %d/%d", l.Page+1, pages)
}

func (r Row) String() string {
	return fmt.Sprintf(" %c    %s  %s  %s   %s", r.Tag, r.Forecast, r.Spread, r.Latest, r.Name)
}

// String is the plain-text listing: banner then one line per row.
func (l Listing) String() string {
	lines := make([]string, 0, len(l.Rows)+1)
	lines = append(lines, ListingBanner)
	for _, r := range l.Rows {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

// Listing renders page and rebuilds the tag and row indices for it. A width
// of zero disables name truncation.
func (m *Manager) Listing(page, width int) Listing {
	sorted := m.Trackers()
	start := page * PageSize
	if start < 0 || start > len(sorted) {
		start = len(sorted)
	}
	end := start + PageSize
	if end > len(sorted) {
		end = len(sorted)
	}

	for k := range m.tagToID {
		if k.page == page {
			delete(m.tagToID, k)
			delete(m.tagToRow, k)
		}
	}
	for k := range m.rowToID {
		if k.page == page {
			delete(m.rowToID, k)
		}
	}

	eta := m.Eta()
	nameWidth := width - 30
	out := Listing{Page: page, NumPages: m.NumPages(), Sort: m.sortOrder, Rows: make([]Row, 0, end-start)}
	for i, t := range sorted[start:end] {
		tag := rune(Tags[i])
		row := buildRow(t, eta, nameWidth, width > 0)
		row.Tag = tag
		row.Row = i + 1
		m.tagToID[pageTag{page, tag}] = t.ID
		m.rowToID[pageRow{page, i + 1}] = t.ID
		m.tagToRow[pageTag{page, tag}] = i + 1
		m.idToTimes[t.ID] = row.Window
		out.Rows = append(out.Rows, row)
	}
	return out
}

func (m *Manager) CurrentListing(width int) Listing {
	return m.Listing(m.activePage, width)
}

func buildRow(t *model.Tracker, eta float64, nameWidth int, truncate bool) Row {
	f := t.Forecast()
	row := Row{ID: t.ID, Name: t.DisplayName()}
	if truncate && nameWidth > 1 && utf8.RuneCountInString(row.Name) > nameWidth {
		runes := []rune(row.Name)
		row.Name = string(runes[:nameWidth-1]) + "…"
	}

	row.Forecast = center("~", 8)
	if f.NextExpected != nil {
		row.Forecast = timefmt.FormatDate(*f.NextExpected)
	}
	row.Spread = center("~", 8)
	if f.Spread != 0 {
		row.Spread = fmt.Sprintf("%-8s", timefmt.FormatDuration(f.ScaledSpread(eta), true))
	}
	row.Latest = center("~", 8)
	if f.LastCompletion != nil {
		row.Latest = timefmt.FormatDate(f.LastCompletion.At)
	}
	if f.Early != nil {
		row.Window.Early = timefmt.FormatDate(*f.Early)
	}
	if f.Late != nil {
		row.Window.Late = timefmt.FormatDate(*f.Late)
	}
	return row
}

func center(s string, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// TrackerByTag resolves a tag on the active page from the last listing.
func (m *Manager) TrackerByTag(tag rune) (*model.Tracker, error) {
	id, ok := m.tagToID[pageTag{m.activePage, tag}]
	if !ok {
		return nil, fmt.Errorf("%w: tag %q", ErrInvalidSelection, tag)
	}
	return m.lookup(id)
}

// TrackerByRow resolves a one-based row on the active page.
func (m *Manager) TrackerByRow(row int) (*model.Tracker, error) {
	id, ok := m.rowToID[pageRow{m.activePage, row}]
	if !ok {
		return nil, fmt.Errorf("%w: row %d", ErrInvalidSelection, row)
	}
	return m.lookup(id)
}

func (m *Manager) RowForTag(tag rune) (int, bool) {
	row, ok := m.tagToRow[pageTag{m.activePage, tag}]
	return row, ok
}

func (m *Manager) WindowFor(id int64) (Window, bool) {
	w, ok := m.idToTimes[id]
	return w, ok
}

func (m *Manager) lookup(id int64) (*model.Tracker, error) {
	t, ok := m.trackers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSelection, id)
	}
	return t, nil
}

func (m *Manager) resetIndices() {
	m.tagToID = map[pageTag]int64{}
	m.rowToID = map[pageRow]int64{}
	m.tagToRow = map[pageTag]int{}
	m.idToTimes = map[int64]Window{}
}
