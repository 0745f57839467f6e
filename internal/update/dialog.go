package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/trf/internal/manager"
	"github.com/sandeepkv93/trf/internal/model"
	"github.com/sandeepkv93/trf/internal/timefmt"
)

// begin starts the dialog for action. Target commands use the clicked row
// when there is one and otherwise ask for a tag.
func (m *Model) begin(action Action) {
	if !action.needsTarget() {
		m.openDialog(action, nil)
		return
	}
	if m.SelectedID != 0 {
		if t, ok := m.Manager.Tracker(m.SelectedID); ok {
			m.openDialog(action, t)
			return
		}
		m.SelectedID = 0
	}
	if m.Manager.Count() == 0 {
		m.Status = StatusBar{Text: "no trackers yet", IsError: true}
		return
	}
	m.Mode = ModeSelect
	m.Dialog = Dialog{
		Action: action,
		Title:  string(action),
		Prompt: "press the tag of the tracker",
	}
}

func (m *Model) openDialog(action Action, t *model.Tracker) {
	d := Dialog{Action: action, Title: string(action)}
	if t != nil {
		d.TargetID = t.ID
		d.Title = fmt.Sprintf("%s: %s", action, t.DisplayName())
	}

	switch action {
	case ActionNew:
		d.Prompt = "name[, datetime[, duration]]"
		m.openInput(d, "")
	case ActionComplete:
		d.Prompt = "datetime[, duration]"
		m.openInput(d, "now")
	case ActionEdit:
		d.Prompt = "completions separated by \"; \""
		m.openInput(d, t.FormatHistory())
	case ActionRename:
		d.Prompt = "new name"
		m.openInput(d, t.Name)
	case ActionSettings:
		doc, err := manager.EncodeSettings(m.Manager.Settings())
		if err != nil {
			m.fail(err)
			return
		}
		d.Prompt = "edit settings, ctrl+s to save"
		d.Multiline = true
		m.openInput(d, doc)
	case ActionInspect:
		m.showDetail(t)
		m.toMenu()
	case ActionDelete:
		d.Prompt = fmt.Sprintf("delete %s? (y/n)", t.DisplayName())
		m.Mode = ModeBool
		m.Dialog = d
	case ActionSort:
		d.Prompt = "sort by (f)orecast, (l)atest, (n)ame or (i)d"
		m.Mode = ModeCharacter
		m.Dialog = d
	}
}

func (m *Model) openInput(d Dialog, value string) {
	m.Mode = ModeInput
	m.Dialog = d
	if d.Multiline {
		m.editor.SetValue(value)
		m.editor.Focus()
		return
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) toMenu() {
	m.Mode = ModeMenu
	m.Dialog = Dialog{}
	m.input.Blur()
	m.input.SetValue("")
	m.editor.Blur()
	m.editor.SetValue("")
}

func (m *Model) cancel() {
	if m.Dialog.Action != "" {
		m.Status = StatusBar{Text: fmt.Sprintf("%s cancelled", m.Dialog.Action)}
	}
	m.toMenu()
}

func isCancel(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "esc", "ctrl+c":
		return true
	}
	return false
}

func (m Model) handleSelectKey(msg tea.KeyMsg) Model {
	if isCancel(msg) {
		m.cancel()
		return m
	}
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return m
	}
	t, err := m.Manager.TrackerByTag(msg.Runes[0])
	if err != nil {
		return m
	}
	m.openDialog(m.Dialog.Action, t)
	return m
}

func (m Model) handleInputKey(msg tea.KeyMsg) Model {
	if isCancel(msg) {
		m.cancel()
		return m
	}
	submit := "enter"
	if m.Dialog.Multiline {
		submit = "ctrl+s"
	}
	if msg.String() == submit {
		m.submitInput()
		return m
	}
	if m.Dialog.Multiline {
		m.editor, _ = m.editor.Update(msg)
	} else {
		m.input, _ = m.input.Update(msg)
	}
	return m
}

// submitInput applies the dialog's text. A rejected value keeps the dialog
// open with the error shown.
func (m *Model) submitInput() {
	value := m.input.Value()
	if m.Dialog.Multiline {
		value = m.editor.Value()
	}
	msg, err := m.apply(m.Dialog.Action, m.Dialog.TargetID, value)
	var partial *partialError
	if errors.As(err, &partial) {
		m.toMenu()
		m.fail(err)
		m.refreshListing()
		return
	}
	if err != nil {
		m.Dialog.Err = err.Error()
		m.LastError = err
		return
	}
	m.toMenu()
	m.Status = StatusBar{Text: msg}
	m.refreshListing()
}

// apply runs one text command against the manager.
func (m *Model) apply(action Action, id int64, value string) (string, error) {
	ctx := m.ctx
	now := m.Manager.Now()
	switch action {
	case ActionNew:
		newID, err := m.Manager.CreateFromSpec(ctx, value)
		if newID == 0 {
			return "", err
		}
		t, _ := m.Manager.Tracker(newID)
		m.scheduleTracker(t)
		if err != nil {
			return "", &partialError{id: newID, err: err}
		}
		return fmt.Sprintf("added tracker %d: %s", newID, t.DisplayName()), nil
	case ActionComplete:
		ev, err := timefmt.ParseCompletion(value, now)
		if err != nil {
			return "", err
		}
		t, err := m.Manager.RecordCompletion(ctx, id, ev)
		if err != nil {
			return "", err
		}
		m.scheduleTracker(t)
		return fmt.Sprintf("recorded %s for %s", timefmt.FormatCompletion(ev), t.DisplayName()), nil
	case ActionEdit:
		events, err := timefmt.ParseCompletionList(value, now)
		if err != nil {
			return "", err
		}
		t, err := m.Manager.RecordCompletions(ctx, id, events)
		if err != nil {
			return "", err
		}
		m.scheduleTracker(t)
		return fmt.Sprintf("history of %s now has %d completions", t.DisplayName(), len(t.History)), nil
	case ActionRename:
		t, err := m.Manager.Rename(ctx, id, value)
		if err != nil {
			return "", err
		}
		m.scheduleTracker(t)
		return fmt.Sprintf("renamed tracker %d to %s", id, t.DisplayName()), nil
	case ActionSettings:
		updates, err := manager.DecodeSettings(value)
		if err != nil {
			return "", err
		}
		if len(updates) == 0 {
			return "settings unchanged", nil
		}
		if err := m.Manager.UpdateSettings(ctx, updates); err != nil {
			return "", err
		}
		m.scheduleAll()
		return "settings saved", nil
	default:
		return "", fmt.Errorf("%s takes no text", action)
	}
}

// partialError reports a tracker that was created even though part of the
// new-tracker line was rejected.
type partialError struct {
	id  int64
	err error
}

func (e *partialError) Error() string {
	return fmt.Sprintf("added tracker %d, but: %v", e.id, e.err)
}

func (e *partialError) Unwrap() error { return e.err }

func (m Model) handleBoolKey(msg tea.KeyMsg) Model {
	answer := strings.ToLower(msg.String())
	id := m.Dialog.TargetID
	m.toMenu()
	if answer != "y" {
		m.Status = StatusBar{Text: "delete cancelled"}
		return m
	}
	name := ""
	if t, ok := m.Manager.Tracker(id); ok {
		name = t.DisplayName()
	}
	if err := m.Manager.DeleteTracker(m.ctx, id); err != nil {
		m.fail(err)
		return m
	}
	m.cancelDue(id)
	if m.SelectedID == id {
		m.SelectedID = 0
	}
	m.Detail = ""
	m.Status = StatusBar{Text: fmt.Sprintf("deleted tracker %d: %s", id, name)}
	m.refreshListing()
	return m
}

func (m Model) handleCharacterKey(msg tea.KeyMsg) Model {
	key := msg.String()
	m.toMenu()
	order, err := manager.ParseSortOrder(key)
	if err != nil || len(key) != 1 {
		m.Status = StatusBar{Text: "sort unchanged"}
		return m
	}
	if err := m.Manager.SetSort(order); err != nil {
		m.fail(err)
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("sorted by %s", order)}
	m.refreshListing()
	return m
}

func (m *Model) showDetail(t *model.Tracker) {
	m.DetailTitle = fmt.Sprintf("inspect: %s", t.DisplayName())
	m.Detail = t.Details()
	m.detailView.SetContent(m.Detail)
	m.detailView.GotoTop()
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.log.Warn("command failed", "error", err)
}

func (m *Model) refreshListing() {
	if m.Manager != nil {
		m.Manager.CurrentListing(m.effectiveWidth())
	}
}
