package update

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/trf/internal/logging"
	"github.com/sandeepkv93/trf/internal/manager"
	"github.com/sandeepkv93/trf/internal/scheduler"
)

// Mode is the active state of the session. Exactly one is active at a time.
type Mode string

const (
	ModeMenu      Mode = "menu"
	ModeSelect    Mode = "select"
	ModeInput     Mode = "input"
	ModeBool      Mode = "bool"
	ModeCharacter Mode = "character"
)

// Action is the user command a dialog is collecting input for.
type Action string

const (
	ActionNew      Action = "new"
	ActionComplete Action = "complete"
	ActionEdit     Action = "edit"
	ActionRename   Action = "rename"
	ActionInspect  Action = "inspect"
	ActionDelete   Action = "delete"
	ActionSort     Action = "sort"
	ActionSettings Action = "settings"
)

// needsTarget reports whether the action operates on one tracker.
func (a Action) needsTarget() bool {
	switch a {
	case ActionComplete, ActionEdit, ActionRename, ActionInspect, ActionDelete:
		return true
	default:
		return false
	}
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	New      string
	Complete string
	Edit     string
	Rename   string
	Inspect  string
	Delete   string
	Sort     string
	Settings string
	Palette  string
	Help     string
	Quit     string
}

// Dialog is the pending command while the session is outside ModeMenu.
type Dialog struct {
	Action   Action
	Title    string
	Prompt   string
	TargetID int64
	Err      string
	// Multiline dialogs edit in the textarea and submit with ctrl+s.
	Multiline bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Options struct {
	Scheduler *scheduler.Engine
	Logger    *slog.Logger
	// ListWidth fixes the listing width; zero follows the terminal.
	ListWidth int
	Context   context.Context
}

type Model struct {
	Mode    Mode
	Dialog  Dialog
	Manager *manager.Manager
	// SelectedID is the implicit target set by clicking a listing row.
	SelectedID  int64
	Detail      string
	DetailTitle string
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Scheduler   *scheduler.Engine
	DueLog      []scheduler.DueEvent
	Quitting    bool
	LastError   error

	ctx       context.Context
	log       *slog.Logger
	width     int
	height    int
	listWidth int

	input        textinput.Model
	editor       textarea.Model
	commandInput textinput.Model
	helpModel    help.Model
	detailView   viewport.Model
}

// ClearStatusMsg clears the status line if it still shows Text.
type ClearStatusMsg struct {
	Text string
}

type AppErrorMsg struct {
	Err error
}

type DueMsg struct {
	Event scheduler.DueEvent
}

func NewModel(mgr *manager.Manager) Model {
	return NewModelWithOptions(mgr, Options{})
}

func NewModelWithOptions(mgr *manager.Manager, opts Options) Model {
	m := Model{
		Mode:      ModeMenu,
		Manager:   mgr,
		Scheduler: opts.Scheduler,
		ctx:       opts.Context,
		log:       opts.Logger,
		listWidth: opts.ListWidth,
		Keys: GlobalKeyMap{
			New:      "n",
			Complete: "c",
			Edit:     "e",
			Rename:   "r",
			Inspect:  "i",
			Delete:   "d",
			Sort:     "s",
			Settings: "S",
			Palette:  ":",
			Help:     "?",
			Quit:     "q",
		},
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.log == nil {
		m.log = logging.Discard()
	}
	m.initBubbleComponents()
	m.refreshListing()
	m.scheduleAll()
	return m
}

func (m *Model) initBubbleComponents() {
	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.CharLimit = 512
	m.input.Width = 64

	m.commandInput = textinput.New()
	m.commandInput.Prompt = ":"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.editor = textarea.New()
	m.editor.SetWidth(48)
	m.editor.SetHeight(6)
	m.editor.ShowLineNumbers = false
	m.editor.Placeholder = "η: 1.0"

	m.helpModel = help.New()
	m.detailView = viewport.New(72, 14)
}

// effectiveWidth is the width handed to the listing for name truncation.
func (m Model) effectiveWidth() int {
	if m.listWidth > 0 {
		return m.listWidth
	}
	if m.width > 4 {
		return m.width - 4
	}
	return 0
}
