package views

import (
	"fmt"
	"strings"

	"github.com/buker/brdesk/internal/jira"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// IssuesTableView displays Jira issues with a live search filter
type IssuesTableView struct {
	width     int
	height    int
	all       []jira.View
	issues    []jira.View
	cursor    int
	filter    jira.Filter
	filtering bool
	input     textinput.Model
	keys      shared.KeyMap
}

// NewIssuesTableView creates a new issues table view
func NewIssuesTableView() *IssuesTableView {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search key, title or description"
	ti.CharLimit = 120

	return &IssuesTableView{
		input: ti,
		keys:  shared.DefaultKeyMap(),
	}
}

// SetIssues sets the issues to display and reapplies the filter
func (v *IssuesTableView) SetIssues(issues []jira.View) {
	v.all = issues
	v.apply()
}

// SetFilter replaces the filter
func (v *IssuesTableView) SetFilter(f jira.Filter) {
	v.filter = f
	v.input.SetValue(f.Search)
	v.apply()
}

// Filter returns the active filter
func (v *IssuesTableView) Filter() jira.Filter {
	return v.filter
}

func (v *IssuesTableView) apply() {
	v.issues = v.filter.Apply(v.all)
	if v.cursor >= len(v.issues) {
		v.cursor = len(v.issues) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// StartFilter focuses the search input
func (v *IssuesTableView) StartFilter() tea.Cmd {
	v.filtering = true
	return v.input.Focus()
}

// Filtering reports whether the search input has focus
func (v *IssuesTableView) Filtering() bool {
	return v.filtering
}

// SetSize updates the view dimensions
func (v *IssuesTableView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.input.Width = max(width-6, 20)
}

// Cursor returns the current cursor position
func (v *IssuesTableView) Cursor() int {
	return v.cursor
}

// SelectedIssue returns the currently selected issue
func (v *IssuesTableView) SelectedIssue() *jira.View {
	if v.cursor >= 0 && v.cursor < len(v.issues) {
		return &v.issues[v.cursor]
	}
	return nil
}

// IssueCount returns the number of issues passing the filter
func (v *IssuesTableView) IssueCount() int {
	return len(v.issues)
}

// Init initializes the view
func (v *IssuesTableView) Init() tea.Cmd {
	return nil
}

// Update handles navigation and filter input
func (v *IssuesTableView) Update(msg tea.Msg) (*IssuesTableView, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	if v.filtering {
		switch {
		case key.Matches(keyMsg, v.keys.Escape):
			v.filtering = false
			v.input.Blur()
			v.filter.Search = ""
			v.input.SetValue("")
			v.apply()
			return v, nil
		case key.Matches(keyMsg, v.keys.Enter):
			v.filtering = false
			v.input.Blur()
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(keyMsg)
		v.filter.Search = v.input.Value()
		v.apply()
		return v, cmd
	}

	switch {
	case key.Matches(keyMsg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(keyMsg, v.keys.Down):
		if v.cursor < len(v.issues)-1 {
			v.cursor++
		}
	case key.Matches(keyMsg, v.keys.Home):
		v.cursor = 0
	case key.Matches(keyMsg, v.keys.End):
		v.cursor = max(len(v.issues)-1, 0)
	}
	return v, nil
}

// View renders the issues table
func (v *IssuesTableView) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Jira issues (%d)", len(v.issues))
	if len(v.issues) != len(v.all) {
		title = fmt.Sprintf("Jira issues (%d of %d)", len(v.issues), len(v.all))
	}
	position := ""
	if len(v.issues) > 0 {
		position = fmt.Sprintf("[%d/%d]", v.cursor+1, len(v.issues))
	}

	headerWidth := 54
	spacing := max(headerWidth-len(title)-len(position), 1)

	b.WriteString(shared.TitleStyle.Render(title))
	b.WriteString(strings.Repeat(" ", spacing))
	b.WriteString(shared.HelpDescStyle.Render(position))
	b.WriteString("\n")

	if v.filtering || v.filter.Search != "" {
		b.WriteString(v.input.View())
		b.WriteString("\n")
	}
	b.WriteString(shared.RenderDivider(headerWidth + 30))
	b.WriteString("\n")

	header := fmt.Sprintf(" %-4s │ %-10s │ %-36s │ %-12s │ %s", "PRI", "KEY", "SUMMARY", "STATUS", "ASSIGNEE")
	b.WriteString(shared.TableHeaderStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(headerWidth + 30))
	b.WriteString("\n")

	if len(v.issues) == 0 {
		if len(v.all) == 0 {
			b.WriteString(" No issues found\n")
		} else {
			b.WriteString(" No issues match the filter\n")
		}
	} else {
		start, end := visibleRange(v.cursor, len(v.issues), v.height-8)
		for i := start; i < end; i++ {
			b.WriteString(v.renderRow(i, v.issues[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString(shared.RenderDivider(headerWidth + 30))
	b.WriteString("\n")
	if v.filtering {
		b.WriteString(shared.HelpKeyStyle.Render(shared.FilterHelp()))
	} else {
		b.WriteString(shared.HelpKeyStyle.Render(shared.IssuesHelp()))
	}

	return b.String()
}

// renderRow renders a single issue row
func (v *IssuesTableView) renderRow(index int, issue jira.View) string {
	isSelected := index == v.cursor

	marker := " "
	if isSelected {
		marker = shared.SelectionMarker.Render(shared.SelectionChar)
	}

	pri := shared.PriorityStyle(issue.Priority).Render(shared.PriorityAbbrev(issue.Priority))

	row := fmt.Sprintf("%s%-4s │ %-10s │ %-36s │ %-12s │ %s",
		marker,
		pri,
		shared.Truncate(issue.Key, 10),
		shared.Truncate(issue.Title, 36),
		shared.Truncate(issue.Status, 12),
		shared.Truncate(issue.Assignee, 18),
	)

	if isSelected {
		return shared.SelectedRowStyle.Render(row)
	}
	return row
}

// visibleRange returns the window of rows to draw so the cursor stays on
// screen.
func visibleRange(cursor, total, rows int) (int, int) {
	if rows <= 0 || total <= rows {
		return 0, total
	}
	start := cursor - rows/2
	start = min(max(start, 0), total-rows)
	return start, start + rows
}
