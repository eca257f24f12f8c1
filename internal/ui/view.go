package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/strategist/internal/model"
	"github.com/abelbrown/strategist/internal/richtext"
	"github.com/abelbrown/strategist/internal/session"
)

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.showDebug {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var body string
	switch a.sess.Mode() {
	case session.ModeUpload:
		body = a.uploadView()
	case session.ModeNavigate:
		body = a.navigateView()
	default:
		body = a.projectsView()
	}
	if a.palette.IsActive() {
		body = lipgloss.JoinVertical(lipgloss.Left, body, a.palette.View())
	}

	// Keep the message and status bars pinned to the bottom
	footer := lipgloss.JoinVertical(lipgloss.Left, a.messageBar(), a.statusBar())
	gap := a.height - lipgloss.Height(body) - lipgloss.Height(footer)
	if gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (a App) projectsView() string {
	var b strings.Builder
	b.WriteString(Title.Render("Projects"))
	b.WriteString("\n")

	if a.creating {
		b.WriteString(Focused.Width(max(20, a.width-4)).Render(a.nameInput.View()))
		b.WriteString("\n")
	}

	projects := a.sess.Projects()
	if len(projects) == 0 {
		b.WriteString(HelpStyle.Render("No projects yet. Press n to create one."))
		return b.String()
	}

	for i, p := range projects {
		done, total := p.Progress()
		line := fmt.Sprintf("%-40s %4d/%-4d %s", truncateRunes(richtext.Clean(p.Name), 40), done, total, p.Status)
		if i == a.projCursor {
			b.WriteString(SelectedItem.Render(line))
		} else {
			b.WriteString(NormalItem.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a App) uploadView() string {
	p, _ := a.sess.Project()
	var b strings.Builder
	b.WriteString(Title.Render("Upload articles to " + richtext.Clean(p.Name)))
	b.WriteString("\n")
	b.WriteString(MutedItem.Render("  A .xlsx or .csv file with the columns From, To and Main KW."))
	b.WriteString("\n\n")
	b.WriteString(Focused.Width(max(20, a.width-4)).Render(a.pathInput.View()))
	b.WriteString("\n")
	b.WriteString(MutedItem.Render("  enter upload · esc back"))
	return b.String()
}

func (a App) navigateView() string {
	nav := a.sess.Navigator()
	switch {
	case !nav.Loaded():
		return Title.Render("Articles") + "\n" + HelpStyle.Render("Loading articles...")
	case nav.Empty():
		return Title.Render("Articles") + "\n" + HelpStyle.Render("This project has no articles. Press u to upload a spreadsheet.")
	}

	art, _ := a.sess.CurrentArticle()
	status := a.sess.ArticleStatus(art)

	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("Article %d of %d", nav.Index()+1, nav.Len())))
	b.WriteString(statusStyle(status).Render(string(status)))
	if art.HasAnalysis {
		b.WriteString(MutedItem.Render("  · analysis stored"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", Label.Render("From"), truncateRunes(richtext.Clean(art.FromURL), a.width-10))
	fmt.Fprintf(&b, "  %s   %s\n", Label.Render("To"), truncateRunes(richtext.Clean(art.ToURL), a.width-10))
	fmt.Fprintf(&b, "  %s  %s\n", Label.Render("KWs"), richtext.Clean(strings.Join(art.KeywordList(), " · ")))

	b.WriteString(a.frame(focusContent).Render(a.content.View()))
	b.WriteString("\n")
	options := lipgloss.JoinHorizontal(lipgloss.Top,
		a.frame(focusInstruction).Render(a.instruction.View()),
		" ",
		a.frame(focusCount).Render(a.count.View()),
	)
	b.WriteString(options)
	b.WriteString("\n")
	b.WriteString(a.analysisView())
	return b.String()
}

func (a App) frame(f focusArea) lipgloss.Style {
	if a.focus == f {
		return Focused
	}
	return Blurred
}

func (a App) analysisView() string {
	r := a.sess.Displayed()
	if r == nil {
		switch {
		case a.sess.Analyzing():
			return HelpStyle.Render(a.spinner.View() + " Analyzing...")
		case a.sess.Busy() == "loading stored analysis":
			return HelpStyle.Render(a.spinner.View() + " Loading stored analysis...")
		}
		return HelpStyle.Render("No analysis yet. Paste the article HTML (tab to focus) and press ctrl+r.")
	}

	summary := MutedItem.Render(fmt.Sprintf("  %s · %s · %s · %.1fs",
		orDash(r.ArticleType), orDash(r.ReaderIntent), orDash(r.Strategy), r.ProcessingTime))
	if a.sess.Analyzing() {
		summary += "  " + a.spinner.View() + MutedItem.Render(" re-analyzing")
	}
	return summary + "\n" + Card.Render(a.card.View())
}

// renderOpportunity formats one opportunity for the card viewport.
// Every model-provided field goes through richtext before it is styled, so
// no control sequence from the model reaches the terminal.
func renderOpportunity(o model.Opportunity, idx, total, width int) string {
	wrap := lipgloss.NewStyle().Width(max(20, width))
	var b strings.Builder

	b.WriteString(tierStyle(o.Tier()).Render(fmt.Sprintf("%d/10", o.Rating)))
	b.WriteString(" ")
	b.WriteString(Label.Render(fmt.Sprintf("Opportunity %d of %d", idx+1, total)))
	b.WriteString(MutedItem.Render("  " + o.Tier().String()))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(Label.Render(label))
		b.WriteString("\n")
		b.WriteString(wrap.Render(richtext.Clean(value)))
		b.WriteString("\n\n")
	}
	field("Location", o.Location)
	field("Context", o.Context)
	field("Original", richtext.Plain(richtext.Parse(o.OldText)))
	field("Replacement", renderSpans(richtext.Parse(o.NewText)))
	field("Reasoning", o.Reasoning)
	field("Reader value", o.UserValue)
	return strings.TrimRight(b.String(), "\n")
}

// renderSpans styles parsed rich text. Links show their target after the
// anchor text.
func renderSpans(spans []richtext.Span) string {
	var b strings.Builder
	for _, s := range spans {
		st := lipgloss.NewStyle()
		if s.Style&richtext.Bold != 0 {
			st = st.Inherit(spanBold)
		}
		if s.Style&richtext.Italic != 0 {
			st = st.Inherit(spanItalic)
		}
		if s.Style&richtext.Link != 0 {
			st = st.Inherit(spanLink)
		}
		b.WriteString(st.Render(s.Text))
		if s.Href != "" {
			b.WriteString(MutedItem.Render(" (" + s.Href + ")"))
		}
	}
	return b.String()
}

func (a App) messageBar() string {
	if err := a.sess.Err(); err != nil {
		msg := richtext.Clean(err.Error()) + " (press any key to dismiss)"
		// Local validation needs no "Error:" alarm, nothing was sent
		if session.IsValidation(err) {
			return WarnStyle.Width(a.width).Render(msg)
		}
		return ErrorStyle.Width(a.width).Render("Error: " + msg)
	}
	if n := a.sess.Notice(); n != "" {
		return NoticeStyle.Width(a.width).Render(n)
	}
	return ""
}

// statusBar renders the mode, position, background work and key hints.
func (a App) statusBar() string {
	parts := []string{StatusBarKey.Render(a.sess.Mode().String())}
	if p, ok := a.sess.Project(); ok {
		parts = append(parts, StatusBarText.Render(truncateRunes(richtext.Clean(p.Name), 24)))
	}
	if busy := a.sess.Busy(); busy != "" {
		parts = append(parts, a.spinner.View()+StatusBarText.Render(busy))
	}
	if n := a.sess.PendingAnalyses(); n > 0 {
		parts = append(parts, StatusBarText.Render(fmt.Sprintf("%d analyzing", n)))
	}
	line := StatusBar.Width(a.width).Render(strings.Join(parts, "  "))
	return line + "\n" + a.help.View(a.keys)
}

func orDash(s string) string {
	s = richtext.Clean(s)
	if s == "" {
		return "-"
	}
	return s
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
