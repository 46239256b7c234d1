// Package shared provides styles, keybindings and helpers used by the
// dashboard and its views.
package shared

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/buker/brdesk/internal/markdown"
)

// Color definitions for the TUI
var (
	ColorHigh     = lipgloss.Color("#FF5555") // Red - high priority, failures
	ColorMedium   = lipgloss.Color("#FFAA00") // Yellow/Orange - medium priority, running
	ColorLow      = lipgloss.Color("#888888") // Gray - low priority
	ColorGreen    = lipgloss.Color("#55FF55") // Green - additions/success
	ColorBorder   = lipgloss.Color("#444444") // Border color
	ColorDimmed   = lipgloss.Color("#666666") // Dimmed text
	ColorAccent   = lipgloss.Color("#7B68EE") // Accent color (medium slate blue)
	ColorSelected = lipgloss.Color("#333333") // Selected row background
)

// MarkdownTheme colours rendered Markdown with the dashboard palette.
var MarkdownTheme = markdown.Theme{
	Accent:         ColorAccent,
	Border:         ColorBorder,
	Code:           ColorMedium,
	CodeBackground: ColorSelected,
}

// Style definitions for shared components
var (
	// Header styles
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	// Tab bar
	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorAccent).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed).
			Padding(0, 1)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF"))

	SelectedRowStyle = lipgloss.NewStyle().
				Background(ColorSelected)

	// Priority styles
	HighPriorityStyle = lipgloss.NewStyle().
				Foreground(ColorHigh).
				Bold(true)

	MediumPriorityStyle = lipgloss.NewStyle().
				Foreground(ColorMedium)

	LowPriorityStyle = lipgloss.NewStyle().
				Foreground(ColorLow)

	// Modal styles
	ModalBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			MarginBottom(1)

	// Status indicator styles
	StatusPendingStyle = lipgloss.NewStyle().
				Foreground(ColorDimmed)

	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(ColorMedium)

	StatusDoneStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(ColorHigh)

	// Diff styles
	DiffAddedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	DiffRemovedStyle = lipgloss.NewStyle().
				Foreground(ColorHigh)

	DiffContextStyle = lipgloss.NewStyle().
				Foreground(ColorDimmed)

	DiffHunkStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	// Chat transcript
	UserLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMedium)

	BotLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	// Help/Footer styles
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorMedium)

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)

	// Selection marker
	SelectionMarker = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)
)

// Status indicators
const (
	StatusIndicatorPending = "○"
	StatusIndicatorRunning = "◐"
	StatusIndicatorDone    = "✓"
	StatusIndicatorFailed  = "✗"
	StatusIndicatorSkipped = "–"

	SelectionChar = "▶"
)

// RenderDivider creates a horizontal divider of the specified width
func RenderDivider(width int) string {
	return DividerStyle.Render(repeatChar('─', width))
}

// repeatChar returns a string with the character repeated n times
func repeatChar(char rune, n int) string {
	if n <= 0 {
		return ""
	}
	result := make([]rune, n)
	for i := range result {
		result[i] = char
	}
	return string(result)
}

// PriorityStyle returns the style for a priority bucket
func PriorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "high":
		return HighPriorityStyle
	case "medium":
		return MediumPriorityStyle
	default:
		return LowPriorityStyle
	}
}

// PriorityAbbrev returns a 3-letter abbreviation for a priority bucket
func PriorityAbbrev(priority string) string {
	switch priority {
	case "high":
		return "HIG"
	case "medium":
		return "MED"
	default:
		return "LOW"
	}
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
