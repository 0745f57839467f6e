package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/trf/internal/commands"
	"github.com/sandeepkv93/trf/internal/manager"
	"github.com/sandeepkv93/trf/internal/model"
	"github.com/sandeepkv93/trf/internal/timefmt"
)

func (m Model) openPalette() Model {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	m.commandInput, _ = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.fail(err)
		return m, nil
	}

	res, err := commands.Execute(cmd, m.paletteHandlers())
	if err != nil {
		m.fail(err)
		return m, nil
	}
	if res.Quit {
		m.Quitting = true
		return m, tea.Quit
	}
	if res.Message != "" && m.Mode == ModeMenu {
		m.Status = StatusBar{Text: res.Message}
	}
	m.refreshListing()
	return m, nil
}

// paletteHandlers binds palette commands to the session. Commands given
// without their text open the same dialog the menu key would.
func (m *Model) paletteHandlers() commands.Handlers {
	target := func(tag rune) (*model.Tracker, error) {
		return m.Manager.TrackerByTag(tag)
	}
	text := func(action Action) func(commands.TargetArgs) (commands.Result, error) {
		return func(a commands.TargetArgs) (commands.Result, error) {
			t, err := target(a.Tag)
			if err != nil {
				return commands.Result{}, err
			}
			if strings.TrimSpace(a.Text) == "" {
				m.openDialog(action, t)
				return commands.Result{}, nil
			}
			msg, err := m.apply(action, t.ID, a.Text)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: msg}, nil
		}
	}

	return commands.Handlers{
		New: func(a commands.NewArgs) (commands.Result, error) {
			msg, err := m.apply(ActionNew, 0, a.Spec)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: msg}, nil
		},
		Complete: text(ActionComplete),
		Edit:     text(ActionEdit),
		Rename:   text(ActionRename),
		Inspect: func(a commands.TargetArgs) (commands.Result, error) {
			t, err := target(a.Tag)
			if err != nil {
				return commands.Result{}, err
			}
			m.showDetail(t)
			return commands.Result{Message: fmt.Sprintf("inspecting %s", t.DisplayName())}, nil
		},
		Delete: func(a commands.TargetArgs) (commands.Result, error) {
			t, err := target(a.Tag)
			if err != nil {
				return commands.Result{}, err
			}
			m.openDialog(ActionDelete, t)
			return commands.Result{}, nil
		},
		Drop: func(a commands.HistoryArgs) (commands.Result, error) {
			t, err := target(a.Tag)
			if err != nil {
				return commands.Result{}, err
			}
			next, err := m.Manager.EditHistoryEntry(m.ctx, t.ID, a.Index-1, model.HistoryAction{Kind: model.HistoryDelete})
			if err != nil {
				return commands.Result{}, err
			}
			m.scheduleTracker(next)
			return commands.Result{Message: fmt.Sprintf("dropped entry %d of %s", a.Index, next.DisplayName())}, nil
		},
		Replace: func(a commands.HistoryArgs) (commands.Result, error) {
			t, err := target(a.Tag)
			if err != nil {
				return commands.Result{}, err
			}
			ev, err := timefmt.ParseCompletion(a.Text, m.Manager.Now())
			if err != nil {
				return commands.Result{}, err
			}
			next, err := m.Manager.EditHistoryEntry(m.ctx, t.ID, a.Index-1, model.HistoryAction{Kind: model.HistoryReplace, Event: ev})
			if err != nil {
				return commands.Result{}, err
			}
			m.scheduleTracker(next)
			return commands.Result{Message: fmt.Sprintf("replaced entry %d of %s", a.Index, next.DisplayName())}, nil
		},
		Sort: func(a commands.SortArgs) (commands.Result, error) {
			order, err := manager.ParseSortOrder(a.Field)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.Manager.SetSort(order); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("sorted by %s", order)}, nil
		},
		Settings: func() (commands.Result, error) {
			m.openDialog(ActionSettings, nil)
			return commands.Result{}, nil
		},
		Page: func(a commands.PageArgs) (commands.Result, error) {
			if err := m.Manager.SetPage(a.Page - 1); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("page %d", a.Page)}, nil
		},
	}
}
