package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the bindings shown in the help line.
type keyMap struct {
	Up, Down        key.Binding
	Select, New     key.Binding
	NextArticle     key.Binding
	PrevArticle     key.Binding
	NextOpp         key.Binding
	PrevOpp         key.Binding
	Analyze         key.Binding
	Export          key.Binding
	Upload          key.Binding
	Reload          key.Binding
	Focus           key.Binding
	Back            key.Binding
	Palette         key.Binding
	Debug           key.Binding
	Quit            key.Binding
	navigateContext bool
}

func newKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new project")),
		NextArticle: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next article")),
		PrevArticle: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prev article")),
		NextOpp:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next opp")),
		PrevOpp:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev opp")),
		Analyze:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "analyze")),
		Export:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
		Upload:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Palette:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "commands")),
		Debug:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "events")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	if k.navigateContext {
		return []key.Binding{k.NextArticle, k.PrevArticle, k.Analyze, k.PrevOpp, k.NextOpp, k.Focus, k.Export, k.Back, k.Palette}
	}
	return []key.Binding{k.Up, k.Down, k.Select, k.New, k.Reload, k.Palette, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.New},
		{k.NextArticle, k.PrevArticle, k.NextOpp, k.PrevOpp},
		{k.Analyze, k.Export, k.Upload, k.Reload},
		{k.Focus, k.Back, k.Palette, k.Debug, k.Quit},
	}
}
