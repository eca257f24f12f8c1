package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/strategist/internal/otel"
	"github.com/abelbrown/strategist/internal/session"
	"github.com/abelbrown/strategist/internal/ui/command"
)

// focusArea is the navigate-mode widget receiving keys.
type focusArea int

const (
	focusBrowse focusArea = iota
	focusContent
	focusInstruction
	focusCount
	focusAreas
)

// AppConfig wires the App. Session is required; the rest may be zero.
type AppConfig struct {
	// Context for remote calls; cancelled on shutdown
	Context context.Context
	Session *session.Session
	Events  *otel.Logger
	// Ring backs the debug overlay
	Ring *otel.RingBuffer
}

// App is the root Bubble Tea model.
// IMPORTANT: App never calls the gateway. Remote work runs as session
// tasks and comes back as outcomeMsg.
type App struct {
	ctx    context.Context
	sess   *session.Session
	events *otel.Logger
	ring   *otel.RingBuffer

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	palette command.Palette

	content     textarea.Model
	instruction textinput.Model
	count       textinput.Model
	nameInput   textinput.Model
	pathInput   textinput.Model
	card        viewport.Model
	cardKey     string

	focus      focusArea
	creating   bool
	projCursor int
	showDebug  bool

	width  int
	height int
	ready  bool
}

// NewAppWithConfig creates the App.
func NewAppWithConfig(cfg AppConfig) App {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	content := textarea.New()
	content.Placeholder = "Paste the article HTML here"
	content.ShowLineNumbers = false
	content.CharLimit = 0
	content.SetHeight(6)

	opts := cfg.Session.Options()

	instruction := textinput.New()
	instruction.Placeholder = "Optional instructions for the analysis"
	instruction.Prompt = "Instructions: "
	instruction.CharLimit = 500
	instruction.SetValue(opts.Instruction)

	count := textinput.New()
	count.Placeholder = "default"
	count.Prompt = "Opportunities: "
	count.CharLimit = 2
	count.Width = 8
	if opts.Count != nil {
		count.SetValue(strconv.Itoa(*opts.Count))
	}

	name := textinput.New()
	name.Placeholder = "Project name"
	name.Prompt = "Name: "
	name.CharLimit = 120

	path := textinput.New()
	path.Placeholder = "~/Downloads/links.xlsx"
	path.Prompt = "File: "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusBarKey

	return App{
		ctx:         ctx,
		sess:        cfg.Session,
		events:      cfg.Events,
		ring:        cfg.Ring,
		keys:        newKeyMap(),
		help:        help.New(),
		spinner:     sp,
		palette:     command.New(nil),
		content:     content,
		instruction: instruction,
		count:       count,
		nameInput:   name,
		pathInput:   path,
		card:        viewport.New(80, 10),
	}
}

// Init loads the project list.
func (a App) Init() tea.Cmd {
	return tea.Batch(runTask(a.ctx, a.sess.LoadProjects()), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}
	cmd := a.update(msg)
	a.sync()
	return a, cmd
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return cmd

	case outcomeMsg:
		return runTasks(a.ctx, a.sess.Apply(msg.outcome))

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Cursor blink and other widget messages
	return a.forward(msg)
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.ready = true
	a.help.Width = w
	a.palette.SetWidth(min(w, 72))

	inner := max(20, w-4)
	a.content.SetWidth(inner)
	a.instruction.Width = max(10, inner-30)
	a.nameInput.Width = max(10, inner-10)
	a.pathInput.Width = max(10, inner-10)

	// header 5, content 8, options 3, message 1, status 2
	a.card.Width = max(20, w-2)
	a.card.Height = max(3, h-19)
	a.cardKey = ""
}

// handleKey processes keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: k})

	if k == "ctrl+c" {
		return tea.Quit
	}

	if a.palette.IsActive() {
		var cmd tea.Cmd
		var chosen string
		a.palette, cmd, chosen = a.palette.Update(msg)
		if chosen != "" {
			return tea.Batch(cmd, a.execute(chosen))
		}
		return cmd
	}

	if a.showDebug {
		if key.Matches(msg, a.keys.Debug, a.keys.Back) {
			a.showDebug = false
		}
		return nil
	}

	// Any key dismisses the message bar
	if a.sess.Err() != nil || a.sess.Notice() != "" {
		a.sess.DismissMessages()
	}

	switch a.sess.Mode() {
	case session.ModeUpload:
		return a.handleUploadKey(msg)
	case session.ModeNavigate:
		return a.handleNavigateKey(msg)
	default:
		return a.handleProjectsKey(msg)
	}
}

func (a *App) handleProjectsKey(msg tea.KeyMsg) tea.Cmd {
	if a.creating {
		switch msg.String() {
		case "enter":
			t, err := a.sess.CreateProject(a.nameInput.Value())
			if err != nil {
				a.sess.Fail(err)
				return nil
			}
			a.stopCreating()
			return runTask(a.ctx, t)
		case "esc":
			a.stopCreating()
			return nil
		}
		var cmd tea.Cmd
		a.nameInput, cmd = a.nameInput.Update(msg)
		return cmd
	}

	projects := a.sess.Projects()
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Down):
		if a.projCursor < len(projects)-1 {
			a.projCursor++
		}
	case key.Matches(msg, a.keys.Up):
		if a.projCursor > 0 {
			a.projCursor--
		}
	case key.Matches(msg, a.keys.Select):
		if a.projCursor < len(projects) {
			return a.start(a.sess.SelectProject(projects[a.projCursor].ID))
		}
	case key.Matches(msg, a.keys.New):
		return a.startCreating()
	case key.Matches(msg, a.keys.Reload):
		return runTask(a.ctx, a.sess.LoadProjects())
	case key.Matches(msg, a.keys.Palette):
		return a.palette.Activate()
	case key.Matches(msg, a.keys.Debug):
		a.showDebug = true
	}
	return nil
}

func (a *App) handleUploadKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return a.start(a.sess.Upload(a.pathInput.Value()))
	case "esc":
		a.sess.Back()
		return nil
	}
	var cmd tea.Cmd
	a.pathInput, cmd = a.pathInput.Update(msg)
	return cmd
}

func (a *App) handleNavigateKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.NextArticle):
		return runTask(a.ctx, a.sess.NextArticle())
	case key.Matches(msg, a.keys.PrevArticle):
		return runTask(a.ctx, a.sess.PrevArticle())
	case key.Matches(msg, a.keys.Analyze):
		return a.start(a.sess.Analyze())
	case key.Matches(msg, a.keys.Export):
		return a.start(a.sess.Export())
	case key.Matches(msg, a.keys.Focus):
		return a.setFocus((a.focus + 1) % focusAreas)
	case key.Matches(msg, a.keys.Back):
		if a.focus != focusBrowse {
			return a.setFocus(focusBrowse)
		}
		a.sess.Back()
		return nil
	}

	var cmd tea.Cmd
	switch a.focus {
	case focusContent:
		a.content, cmd = a.content.Update(msg)
		a.sess.Stage(a.content.Value())
		return cmd
	case focusInstruction:
		a.instruction, cmd = a.instruction.Update(msg)
		a.sess.SetInstruction(a.instruction.Value())
		return cmd
	case focusCount:
		a.count, cmd = a.count.Update(msg)
		a.applyCount()
		return cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.NextOpp):
		a.sess.NextOpportunity()
	case key.Matches(msg, a.keys.PrevOpp):
		a.sess.PrevOpportunity()
	case key.Matches(msg, a.keys.Upload):
		if err := a.sess.ShowUpload(); err != nil {
			a.sess.Fail(err)
		}
	case key.Matches(msg, a.keys.Reload):
		return a.start(a.sess.ReloadArticles())
	case key.Matches(msg, a.keys.Palette):
		return a.palette.Activate()
	case key.Matches(msg, a.keys.Debug):
		a.showDebug = true
	default:
		// j/k, pgup/pgdown scroll the card
		a.card, cmd = a.card.Update(msg)
		return cmd
	}
	return nil
}

// execute runs a palette command.
func (a *App) execute(name string) tea.Cmd {
	navigating := a.sess.Mode() == session.ModeNavigate
	switch name {
	case "analyze":
		if navigating {
			return a.start(a.sess.Analyze())
		}
	case "next":
		if navigating {
			return runTask(a.ctx, a.sess.NextArticle())
		}
	case "prev":
		if navigating {
			return runTask(a.ctx, a.sess.PrevArticle())
		}
	case "export":
		return a.start(a.sess.Export())
	case "upload":
		if err := a.sess.ShowUpload(); err != nil {
			a.sess.Fail(err)
		}
	case "reload":
		if a.sess.Mode() == session.ModeProjects {
			return runTask(a.ctx, a.sess.LoadProjects())
		}
		return a.start(a.sess.ReloadArticles())
	case "projects":
		for a.sess.Mode() != session.ModeProjects {
			a.sess.Back()
		}
	case "new":
		for a.sess.Mode() != session.ModeProjects {
			a.sess.Back()
		}
		return a.startCreating()
	case "debug":
		a.showDebug = !a.showDebug
	case "quit":
		return tea.Quit
	}
	return nil
}

// start runs t, or records err for the message bar.
func (a *App) start(t session.Task, err error) tea.Cmd {
	if err != nil {
		a.sess.Fail(err)
		return nil
	}
	return runTask(a.ctx, t)
}

func (a *App) startCreating() tea.Cmd {
	a.creating = true
	a.nameInput.SetValue("")
	return a.nameInput.Focus()
}

func (a *App) stopCreating() {
	a.creating = false
	a.nameInput.Blur()
	a.nameInput.SetValue("")
}

func (a *App) setFocus(f focusArea) tea.Cmd {
	a.focus = f
	a.content.Blur()
	a.instruction.Blur()
	a.count.Blur()
	switch f {
	case focusContent:
		return a.content.Focus()
	case focusInstruction:
		return a.instruction.Focus()
	case focusCount:
		return a.count.Focus()
	}
	return nil
}

// applyCount pushes the count field to the session. Blank defers to the
// server default; non-numeric input leaves the previous value.
func (a *App) applyCount() {
	v := strings.TrimSpace(a.count.Value())
	if v == "" {
		a.sess.SetCount(nil)
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	a.sess.SetCount(&n)
}

// forward passes non-key messages to the focused widget.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case a.palette.IsActive():
		a.palette, cmd, _ = a.palette.Update(msg)
	case a.creating:
		a.nameInput, cmd = a.nameInput.Update(msg)
	case a.sess.Mode() == session.ModeUpload:
		a.pathInput, cmd = a.pathInput.Update(msg)
	case a.focus == focusContent:
		a.content, cmd = a.content.Update(msg)
	case a.focus == focusInstruction:
		a.instruction, cmd = a.instruction.Update(msg)
	case a.focus == focusCount:
		a.count, cmd = a.count.Update(msg)
	}
	return cmd
}

// sync reconciles widgets with session state after every message.
func (a *App) sync() {
	mode := a.sess.Mode()
	a.keys.navigateContext = mode == session.ModeNavigate

	// Moving articles or reloading the list discards staged content
	if staged := a.sess.Staged(); staged != a.content.Value() {
		a.content.SetValue(staged)
	}

	if n := len(a.sess.Projects()); a.projCursor >= n {
		a.projCursor = max(0, n-1)
	}

	if mode == session.ModeUpload {
		if !a.pathInput.Focused() {
			a.pathInput.Focus()
		}
	} else if a.pathInput.Focused() {
		a.pathInput.Blur()
		a.pathInput.SetValue("")
	}

	if mode != session.ModeNavigate && a.focus != focusBrowse {
		a.setFocus(focusBrowse)
	}
	if mode != session.ModeProjects && a.creating {
		a.stopCreating()
	}

	o, idx, total, ok := a.sess.Opportunity()
	cardKey := ""
	if ok {
		cardKey = fmt.Sprintf("%p/%d", a.sess.Displayed(), idx)
	}
	if cardKey != a.cardKey {
		a.cardKey = cardKey
		if ok {
			a.card.SetContent(renderOpportunity(o, idx, total, a.card.Width-2))
		} else {
			a.card.SetContent("")
		}
		a.card.GotoTop()
	}
}

// ProjectCursor returns the project list cursor (for testing).
func (a App) ProjectCursor() int {
	return a.projCursor
}
