package tui

import (
	"strings"

	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/charmbracelet/lipgloss"
)

// Tab is one dashboard tab.
type Tab int

const (
	TabOverview Tab = iota
	TabBRD
	TabConfluence
	TabJira
	tabCount
)

var tabNames = [tabCount]string{
	TabOverview:   "Overview",
	TabBRD:        "BRD",
	TabConfluence: "Confluence",
	TabJira:       "Jira",
}

// tabSlots maps each tab to the conversation its chat pane shows.
var tabSlots = [tabCount]chat.Slot{
	TabOverview:   chat.SlotOverview,
	TabBRD:        chat.SlotBRD,
	TabConfluence: chat.SlotConfluence,
	TabJira:       chat.SlotJira,
}

// String returns the tab label
func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "Unknown"
	}
	return tabNames[t]
}

// Slot returns the conversation slot of the tab
func (t Tab) Slot() chat.Slot {
	if t < 0 || t >= tabCount {
		return chat.SlotOverview
	}
	return tabSlots[t]
}

var appTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(shared.ColorAccent).
	PaddingRight(2)

// renderTabs draws the title and tab bar with active highlighted
func renderTabs(active Tab) string {
	parts := []string{appTitleStyle.Render("brdesk")}
	for t := Tab(0); t < tabCount; t++ {
		if t == active {
			parts = append(parts, shared.ActiveTabStyle.Render(t.String()))
		} else {
			parts = append(parts, shared.TabStyle.Render(t.String()))
		}
	}
	return strings.Join(parts, " ")
}
