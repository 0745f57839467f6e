package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/trf/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	var plain []string
	for _, kb := range m.modeBindings() {
		plain = append(plain, fmt.Sprintf("`%s` %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Mode:     string(m.Mode),
		Bindings: plain,
	})
}

// footer is the one-line key summary shown under every screen.
func (m Model) footer() string {
	bindings := m.helpBindings()
	return m.helpModel.View(helpKeyMap{
		short: bindings,
		full:  [][]key.Binding{bindings},
	})
}

func (m Model) menuBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.New, Action: "new tracker"},
		{Key: m.Keys.Complete, Action: "record completion"},
		{Key: m.Keys.Edit, Action: "edit history"},
		{Key: m.Keys.Rename, Action: "rename"},
		{Key: m.Keys.Inspect, Action: "inspect"},
		{Key: m.Keys.Delete, Action: "delete"},
		{Key: m.Keys.Sort, Action: "sort"},
		{Key: m.Keys.Settings, Action: "settings"},
		{Key: "h/l", Action: "previous/next page"},
		{Key: "home", Action: "first page"},
		{Key: m.Keys.Palette, Action: "command palette"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) modeBindings() []KeyBinding {
	switch m.Mode {
	case ModeSelect:
		return []KeyBinding{
			{Key: "a-z", Action: "choose tracker by tag"},
			{Key: "esc", Action: "cancel"},
		}
	case ModeInput:
		submit := "enter"
		if m.Dialog.Multiline {
			submit = "ctrl+s"
		}
		return []KeyBinding{
			{Key: submit, Action: "submit"},
			{Key: "esc", Action: "cancel"},
		}
	case ModeBool:
		return []KeyBinding{
			{Key: "y", Action: "confirm"},
			{Key: "any", Action: "cancel"},
		}
	case ModeCharacter:
		return []KeyBinding{
			{Key: "f/l/n/i", Action: "forecast, latest, name or id"},
			{Key: "any", Action: "keep current order"},
		}
	default:
		return m.menuBindings()
	}
}

func (m Model) helpBindings() []key.Binding {
	kbs := m.modeBindings()
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
