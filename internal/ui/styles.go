package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/strategist/internal/model"
)

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarn      = lipgloss.Color("214") // Amber
	colorDanger    = lipgloss.Color("196") // Red
	colorLink      = lipgloss.Color("39")  // Blue
)

// SelectedItem style for the currently highlighted row.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected rows.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// MutedItem style for secondary text.
var MutedItem = lipgloss.NewStyle().
	Foreground(colorSecondary)

// Title style for screen headers.
var Title = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// Label style for field names on the opportunity card.
var Label = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorSecondary)

// Card frames the selected opportunity.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// Focused marks the input that has focus.
var Focused = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorHighlight)

// Blurred frames inputs without focus.
var Blurred = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorMuted)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true).
	Padding(0, 1)

// WarnStyle for locally rejected actions.
var WarnStyle = lipgloss.NewStyle().
	Foreground(colorWarn).
	Padding(0, 1)

// NoticeStyle for informational messages.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// DebugPanel frames the event overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for overlay section headers.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// Inline styles for rendered opportunity text.
var (
	spanBold   = lipgloss.NewStyle().Bold(true)
	spanItalic = lipgloss.NewStyle().Italic(true)
	spanLink   = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
)

// tierStyle colors a rating badge by tier.
func tierStyle(t model.Tier) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("0"))
	switch t {
	case model.TierStrong:
		return base.Background(colorSuccess)
	case model.TierModerate:
		return base.Background(colorWarn)
	default:
		return base.Background(colorDanger)
	}
}

// statusStyle colors an article status.
func statusStyle(s model.ArticleStatus) lipgloss.Style {
	switch s {
	case model.StatusCompleted:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case model.StatusAnalyzing:
		return lipgloss.NewStyle().Foreground(colorWarn)
	case model.StatusError:
		return lipgloss.NewStyle().Foreground(colorDanger)
	default:
		return MutedItem
	}
}
