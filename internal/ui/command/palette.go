// Package command is the "/" command palette.
package command

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Command is one palette entry.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Key         string // equivalent shortcut, shown as a hint
}

// DefaultCommands are the commands the TUI understands.
func DefaultCommands() []Command {
	return []Command{
		{Name: "analyze", Aliases: []string{"run"}, Description: "Analyze the current article", Key: "ctrl+r"},
		{Name: "next", Description: "Next article", Key: "ctrl+n"},
		{Name: "prev", Aliases: []string{"previous"}, Description: "Previous article", Key: "ctrl+p"},
		{Name: "export", Aliases: []string{"csv"}, Description: "Export the project to CSV", Key: "ctrl+e"},
		{Name: "upload", Aliases: []string{"excel", "sheet"}, Description: "Upload a spreadsheet of articles", Key: "u"},
		{Name: "reload", Aliases: []string{"refresh"}, Description: "Reload articles", Key: "r"},
		{Name: "projects", Aliases: []string{"switch"}, Description: "Back to project selection", Key: "esc"},
		{Name: "new", Aliases: []string{"create"}, Description: "Create a project", Key: "n"},
		{Name: "debug", Aliases: []string{"events"}, Description: "Toggle the event overlay", Key: "?"},
		{Name: "quit", Aliases: []string{"exit", "q"}, Description: "Exit strategist", Key: "ctrl+c"},
	}
}

const visibleRows = 8

// rank orders matches: name prefix, alias prefix, then substring anywhere.
// -1 means no match.
func rank(c Command, query string) int {
	name := strings.ToLower(c.Name)
	if strings.HasPrefix(name, query) {
		return 0
	}
	aliases := make([]string, len(c.Aliases))
	for i, a := range c.Aliases {
		aliases[i] = strings.ToLower(a)
	}
	for _, a := range aliases {
		if strings.HasPrefix(a, query) {
			return 1
		}
	}
	if strings.Contains(name, query) {
		return 2
	}
	for _, a := range aliases {
		if strings.Contains(a, query) {
			return 2
		}
	}
	return -1
}

type paletteStyles struct {
	box, item, selected, desc, hint lipgloss.Style
}

func newPaletteStyles() paletteStyles {
	accent := lipgloss.Color("#58a6ff")
	return paletteStyles{
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#30363d")).Padding(0, 1),
		item:     lipgloss.NewStyle().Foreground(lipgloss.Color("#c9d1d9")).Padding(0, 1),
		selected: lipgloss.NewStyle().Foreground(accent).Background(lipgloss.Color("#21262d")).Bold(true).Padding(0, 1),
		desc:     lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e")),
		hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("#484f58")),
	}
}

// Palette filters commands as the user types and reports the one they
// confirm. It is a value type updated the Bubble Tea way.
type Palette struct {
	input  textinput.Model
	all    []Command
	shown  []Command
	cursor int
	width  int
	active bool
	styles paletteStyles
}

// New creates a palette over cmds, DefaultCommands when nil.
func New(cmds []Command) Palette {
	if cmds == nil {
		cmds = DefaultCommands()
	}
	st := newPaletteStyles()

	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "Type a command..."
	in.CharLimit = 32
	in.PromptStyle = st.selected.UnsetBackground().UnsetPadding()
	in.TextStyle = st.item.UnsetPadding()
	in.Cursor.Style = st.selected.UnsetBackground().UnsetPadding().UnsetBold()

	return Palette{input: in, all: cmds, shown: cmds, width: 60, styles: st}
}

// Activate opens the palette with an empty query.
func (p *Palette) Activate() tea.Cmd {
	p.active = true
	p.input.Reset()
	p.input.Focus()
	p.shown, p.cursor = p.all, 0
	return textinput.Blink
}

// Deactivate closes the palette.
func (p *Palette) Deactivate() {
	p.active = false
	p.input.Blur()
}

func (p Palette) IsActive() bool { return p.active }

func (p *Palette) SetWidth(w int) {
	p.width = w
	p.input.Width = max(1, w-10)
}

// SelectedCommand is the name under the cursor, empty when nothing matches.
func (p Palette) SelectedCommand() string {
	if p.cursor < 0 || p.cursor >= len(p.shown) {
		return ""
	}
	return p.shown[p.cursor].Name
}

// Update handles a message while active. The string result is the
// confirmed command name and is only set on enter.
func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd, string) {
	if !p.active {
		return p, nil, ""
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.Deactivate()
			return p, nil, ""
		case "enter":
			chosen := p.SelectedCommand()
			p.Deactivate()
			return p, nil, chosen
		case "up", "ctrl+p":
			p.cursor = max(0, p.cursor-1)
			return p, nil, ""
		case "down", "ctrl+n":
			p.cursor = max(0, min(len(p.shown)-1, p.cursor+1))
			return p, nil, ""
		case "tab":
			if name := p.SelectedCommand(); name != "" {
				p.input.SetValue(name)
				p.input.CursorEnd()
				p.refilter()
			}
			return p, nil, ""
		}
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != before {
		p.refilter()
	}
	return p, cmd, ""
}

// refilter recomputes the visible commands and puts the cursor on the best
// match.
func (p *Palette) refilter() {
	p.cursor = 0
	query := strings.ToLower(strings.TrimSpace(p.input.Value()))
	if query == "" {
		p.shown = p.all
		return
	}

	type hit struct {
		cmd  Command
		rank int
	}
	var hits []hit
	for _, c := range p.all {
		if r := rank(c, query); r >= 0 {
			hits = append(hits, hit{c, r})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.rank - b.rank })

	p.shown = make([]Command, len(hits))
	for i, h := range hits {
		p.shown[i] = h.cmd
	}
}

func (p Palette) View() string {
	if !p.active {
		return ""
	}
	st := p.styles

	lines := []string{
		p.input.View(),
		st.desc.Render(strings.Repeat("─", max(0, p.width-8))),
	}

	// Scroll so the cursor stays inside the window
	first := max(0, p.cursor-visibleRows+1)
	last := min(len(p.shown), first+visibleRows)
	for i := first; i < last; i++ {
		lines = append(lines, p.row(p.shown[i], i == p.cursor))
	}
	if len(p.shown) == 0 {
		lines = append(lines, st.desc.Render("  No matching commands"))
	}

	lines = append(lines, st.hint.Render("↑↓ navigate  enter select  tab complete  esc cancel"))
	return st.box.Width(max(20, p.width-4)).Render(strings.Join(lines, "\n"))
}

func (p Palette) row(c Command, selected bool) string {
	st := p.styles
	name := st.item.Render("  " + c.Name)
	if selected {
		name = st.selected.Render("› " + c.Name)
	}
	line := name + st.desc.Render(" "+c.Description)
	if c.Key == "" {
		return line
	}
	hint := st.hint.Render(c.Key)
	if gap := p.width - 10 - lipgloss.Width(line) - lipgloss.Width(hint); gap > 0 {
		line += strings.Repeat(" ", gap) + hint
	}
	return line
}
