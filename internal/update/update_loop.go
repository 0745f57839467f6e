package update

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/trf/internal/manager"
	"github.com/sandeepkv93/trf/internal/scheduler"
	"github.com/sandeepkv93/trf/internal/timefmt"
	"github.com/sandeepkv93/trf/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.Scheduler != nil {
		return waitForDueCmd(m.Scheduler.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		switch m.Mode {
		case ModeSelect:
			return m.handleSelectKey(typed), nil
		case ModeInput:
			return m.handleInputKey(typed), nil
		case ModeBool:
			return m.handleBoolKey(typed), nil
		case ModeCharacter:
			return m.handleCharacterKey(typed), nil
		}
		return m.handleMenuKey(typed)
	case tea.MouseMsg:
		return m.handleMouse(typed), nil
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.detailView.Width = typed.Width - 4
		m.refreshListing()
		return m, nil
	case ClearStatusMsg:
		if m.Status.Text == typed.Text {
			m.Status = StatusBar{}
		}
		return m, nil
	case AppErrorMsg:
		if errors.Is(typed.Err, scheduler.ErrStopped) {
			m.Scheduler = nil
		}
		if typed.Err != nil {
			m.fail(typed.Err)
		}
		return m, nil
	case DueMsg:
		var cmds []tea.Cmd
		if m.applyDue(typed.Event) {
			cmds = append(cmds, clearStatusAfter(dueStatusTTL, m.Status.Text))
		}
		m.refreshListing()
		if m.Scheduler != nil {
			cmds = append(cmds, waitForDueCmd(m.Scheduler.C()))
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.New:
		m.begin(ActionNew)
	case m.Keys.Complete:
		m.begin(ActionComplete)
	case m.Keys.Edit:
		m.begin(ActionEdit)
	case m.Keys.Rename:
		m.begin(ActionRename)
	case m.Keys.Inspect:
		m.begin(ActionInspect)
	case m.Keys.Delete:
		m.begin(ActionDelete)
	case m.Keys.Sort:
		m.begin(ActionSort)
	case m.Keys.Settings:
		m.begin(ActionSettings)
	case m.Keys.Palette:
		return m.openPalette(), nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	case "left", "h":
		m.page(m.Manager.PreviousPage())
	case "right", "l":
		m.page(m.Manager.NextPage())
	case "home":
		m.page(m.Manager.FirstPage())
	case "up", "down", "pgup", "pgdown":
		if m.Detail != "" {
			m.detailView, _ = m.detailView.Update(msg)
		}
	case "esc":
		m.SelectedID = 0
		m.Detail = ""
		m.Status = StatusBar{}
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) page(err error) {
	if err != nil {
		if errors.Is(err, manager.ErrInvalidPage) {
			m.Status = StatusBar{Text: "no such page", IsError: true}
			return
		}
		m.fail(err)
		return
	}
	m.refreshListing()
	m.Status = StatusBar{Text: fmt.Sprintf("page %d/%d", m.Manager.ActivePage()+1, max(m.Manager.NumPages(), 1))}
}

// handleMouse maps a left click on a listing row to the implicit selection.
// In ModeSelect the click answers the pending tag prompt.
func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m
	}
	if m.Mode != ModeMenu && m.Mode != ModeSelect {
		return m
	}
	row := msg.Y - views.ListingRowOffset + 1
	t, err := m.Manager.TrackerByRow(row)
	if err != nil {
		return m
	}
	if m.Mode == ModeSelect {
		m.openDialog(m.Dialog.Action, t)
		return m
	}
	m.SelectedID = t.ID
	m.Status = StatusBar{Text: fmt.Sprintf("selected %s", t.DisplayName())}
	return m
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	listing := m.Manager.CurrentListing(m.effectiveWidth())
	rows := make([]views.ListingRowData, 0, len(listing.Rows))
	for _, r := range listing.Rows {
		row := views.ListingRowData{Line: r.String(), Selected: r.ID == m.SelectedID}
		if w, ok := m.Manager.WindowFor(r.ID); ok && w.Early != "" {
			row.Window = fmt.Sprintf("%s…%s", w.Early, w.Late)
		}
		rows = append(rows, row)
	}

	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	detail := ""
	if m.Detail != "" {
		detail = views.RenderDetail(m.DetailTitle, m.detailView.View())
	}

	return views.RenderApp(views.AppData{
		Header: fmt.Sprintf("trf | %d trackers | mode: %s | %s", m.Manager.Count(), m.Mode,
			timefmt.FormatDatetime(m.Manager.Now(), true)),
		Listing: views.RenderListing(views.ListingData{
			PageBanner: listing.PageBanner(),
			Banner:     manager.ListingBanner,
			Sort:       string(listing.Sort),
			Rows:       rows,
		}),
		Dialog:     m.renderDialog(),
		Detail:     detail,
		Alerts:     m.renderDueLog(),
		StatusLine: status,
		Help:       m.renderHelpIfVisible(),
		Footer:     m.footer(),
	})
}

func (m Model) renderDialog() string {
	if m.Palette.Active {
		return views.RenderCommandPalette(true, m.commandInput.View())
	}
	if m.Mode == ModeMenu {
		return ""
	}
	data := views.DialogData{
		Title:  m.Dialog.Title,
		Prompt: m.Dialog.Prompt,
		Error:  m.Dialog.Err,
		Hint:   "esc to cancel",
	}
	if m.Mode == ModeInput {
		if m.Dialog.Multiline {
			data.Body = m.editor.View()
			data.Hint = "ctrl+s to save, esc to cancel"
		} else {
			data.Body = m.input.View()
			data.Hint = "enter to submit, esc to cancel"
		}
	}
	return views.RenderDialog(data)
}
