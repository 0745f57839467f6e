package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/trf/internal/model"
	"github.com/sandeepkv93/trf/internal/scheduler"
	"github.com/sandeepkv93/trf/internal/timefmt"
	"github.com/sandeepkv93/trf/internal/views"
)

const (
	dueLogSize   = 20
	dueLogShown  = 3
	dueStatusTTL = 30 * time.Second
)

// waitForDueCmd reports a closed channel as ErrStopped so the session stops
// listening.
func waitForDueCmd(ch <-chan scheduler.DueEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return AppErrorMsg{Err: fmt.Errorf("due alerts disabled: %w", scheduler.ErrStopped)}
		}
		return DueMsg{Event: ev}
	}
}

func clearStatusAfter(d time.Duration, text string) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{Text: text}
	})
}

// dueEvents lists the instants of t's forecast window. A degenerate window
// yields only the expected instant.
func dueEvents(t *model.Tracker) []scheduler.DueEvent {
	f := t.Forecast()
	if f.NextExpected == nil {
		return nil
	}
	out := make([]scheduler.DueEvent, 0, 3)
	ev := func(kind scheduler.DueKind, at time.Time) scheduler.DueEvent {
		return scheduler.DueEvent{TrackerID: t.ID, Name: t.DisplayName(), Kind: kind, TriggerAt: at}
	}
	if f.Early != nil && f.Early.Before(*f.NextExpected) {
		out = append(out, ev(scheduler.DueEarly, *f.Early))
	}
	out = append(out, ev(scheduler.DueExpected, *f.NextExpected))
	if f.Late != nil && f.Late.After(*f.NextExpected) {
		out = append(out, ev(scheduler.DueLate, *f.Late))
	}
	return out
}

func (m *Model) scheduleTracker(t *model.Tracker) {
	if m.Scheduler == nil || t == nil {
		return
	}
	if err := m.Scheduler.Replace(t.ID, dueEvents(t), m.Manager.Now()); err != nil {
		m.log.Warn("schedule due alerts failed", "id", t.ID, "error", err)
	}
}

func (m *Model) scheduleAll() {
	if m.Scheduler == nil || m.Manager == nil {
		return
	}
	for _, t := range m.Manager.Trackers() {
		m.scheduleTracker(t)
	}
}

func (m *Model) cancelDue(id int64) {
	if m.Scheduler != nil {
		m.Scheduler.Cancel(id)
	}
}

// isCurrent reports whether ev still matches the tracker's forecast. Events
// queued before a later edit are stale.
func (m Model) isCurrent(ev scheduler.DueEvent) bool {
	t, ok := m.Manager.Tracker(ev.TrackerID)
	if !ok {
		return false
	}
	for _, cur := range dueEvents(t) {
		if cur.Kind == ev.Kind && cur.TriggerAt.Equal(ev.TriggerAt) {
			return true
		}
	}
	return false
}

// applyDue records ev and sets the status line. Stale events are dropped and
// reported as false.
func (m *Model) applyDue(ev scheduler.DueEvent) bool {
	if !m.isCurrent(ev) {
		m.log.Debug("ignored stale due event", "id", ev.TrackerID, "kind", ev.Kind)
		return false
	}
	m.DueLog = append(m.DueLog, ev)
	if len(m.DueLog) > dueLogSize {
		m.DueLog = m.DueLog[len(m.DueLog)-dueLogSize:]
	}
	at := timefmt.FormatDatetime(ev.TriggerAt, true)
	switch ev.Kind {
	case scheduler.DueEarly:
		m.Status = StatusBar{Text: fmt.Sprintf("%s: forecast window opened at %s", ev.Name, at)}
	case scheduler.DueLate:
		m.Status = StatusBar{Text: fmt.Sprintf("%s: overdue, window closed at %s", ev.Name, at), IsError: true}
	default:
		m.Status = StatusBar{Text: fmt.Sprintf("%s: expected at %s", ev.Name, at)}
	}
	m.log.Info("due alert", "id", ev.TrackerID, "kind", ev.Kind, "at", ev.TriggerAt)
	return true
}

// renderDueLog lists the most recent alerts, newest first.
func (m Model) renderDueLog() string {
	if len(m.DueLog) == 0 {
		return ""
	}
	lines := make([]string, 0, dueLogShown)
	for i := len(m.DueLog) - 1; i >= 0 && len(lines) < dueLogShown; i-- {
		ev := m.DueLog[i]
		lines = append(lines, fmt.Sprintf("%s  %-8s %s", timefmt.FormatDatetime(ev.TriggerAt, true), ev.Kind, ev.Name))
	}
	return views.RenderDetail("recent alerts", strings.Join(lines, "\n"))
}
