// Package views provides individual view components for the TUI.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/buker/brdesk/internal/dashboard"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadStatus tracks the status and timing of one dashboard source
type LoadStatus struct {
	Source    dashboard.Source
	Status    dashboard.Status
	StartTime time.Time
	EndTime   time.Time
	Count     int
	Error     string
}

// Duration returns the elapsed duration for this load
func (ls *LoadStatus) Duration() time.Duration {
	switch ls.Status {
	case dashboard.StatusPending:
		return 0
	case dashboard.StatusRunning:
		return time.Since(ls.StartTime)
	}
	return ls.EndTime.Sub(ls.StartTime)
}

// OverviewView displays load progress and dashboard statistics
type OverviewView struct {
	width    int
	height   int
	spinner  spinner.Model
	loads    map[dashboard.Source]*LoadStatus
	sources  []dashboard.Source
	summary  dashboard.Summary
	project  string
	approved bool
	reviewed int
	sections int
}

// NewOverviewView creates a new overview view
func NewOverviewView() *OverviewView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(shared.ColorMedium)

	v := &OverviewView{spinner: s}
	v.SetSources(dashboard.AllSources())
	return v
}

// SetSources resets tracking for sources, all pending
func (v *OverviewView) SetSources(sources []dashboard.Source) {
	v.sources = sources
	v.loads = make(map[dashboard.Source]*LoadStatus, len(sources))
	for _, s := range sources {
		v.loads[s] = &LoadStatus{Source: s, Status: dashboard.StatusPending}
	}
}

// SetStatus records a status change for a source
func (v *OverviewView) SetStatus(source dashboard.Source, status dashboard.Status) {
	ls, ok := v.loads[source]
	if !ok {
		return
	}
	ls.Status = status
	if status == dashboard.StatusRunning {
		ls.StartTime = time.Now()
	} else if status.Finished() {
		ls.EndTime = time.Now()
	}
}

// SetResults records the final load results and statistics
func (v *OverviewView) SetResults(results []*dashboard.Result, summary dashboard.Summary) {
	for _, r := range results {
		if r == nil {
			continue
		}
		ls, ok := v.loads[r.Source]
		if !ok {
			continue
		}
		ls.Status = r.Status
		ls.Count = r.Count
		ls.Error = r.Error
		if ls.StartTime.IsZero() {
			ls.StartTime = time.Now().Add(-r.Elapsed)
		}
		ls.EndTime = ls.StartTime.Add(r.Elapsed)
	}
	v.summary = summary
}

// SetDocument records the BRD review state shown on the overview
func (v *OverviewView) SetDocument(project string, reviewed, sections int, approved bool) {
	v.project = project
	v.reviewed = reviewed
	v.sections = sections
	v.approved = approved
}

// IsComplete returns true if every source finished loading
func (v *OverviewView) IsComplete() bool {
	for _, ls := range v.loads {
		if !ls.Status.Finished() {
			return false
		}
	}
	return true
}

// Summary returns the last statistics
func (v *OverviewView) Summary() dashboard.Summary {
	return v.summary
}

// SetSize updates the view dimensions
func (v *OverviewView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Init initializes the view
func (v *OverviewView) Init() tea.Cmd {
	return v.spinner.Tick
}

// Update handles messages
func (v *OverviewView) Update(msg tea.Msg) (*OverviewView, tea.Cmd) {
	var cmd tea.Cmd
	v.spinner, cmd = v.spinner.Update(msg)
	return v, cmd
}

// View renders the overview
func (v *OverviewView) View() string {
	var b strings.Builder

	// Statistics
	b.WriteString(shared.TitleStyle.Render("Overview"))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(54))
	b.WriteString("\n")
	stats := []struct {
		label string
		value int
	}{
		{"Projects", v.summary.Projects},
		{"Templates", v.summary.Templates},
		{"Wiki pages", v.summary.Pages},
		{"Jira issues", v.summary.Issues},
		{"High priority", v.summary.HighPriority},
		{"Unassigned", v.summary.Unassigned},
	}
	for _, s := range stats {
		b.WriteString(fmt.Sprintf(" %-16s %d\n", s.label+":", s.value))
	}

	b.WriteString("\n")
	b.WriteString(shared.HeaderStyle.Render(" BRD"))
	b.WriteString("\n")
	switch {
	case v.sections == 0:
		b.WriteString(shared.HelpDescStyle.Render(" No draft loaded. Upload documents with `brdesk upload`."))
	case v.approved:
		b.WriteString(shared.StatusDoneStyle.Render(fmt.Sprintf(" %s: approved (%d sections)", v.projectName(), v.sections)))
	default:
		b.WriteString(fmt.Sprintf(" %s: %d/%d sections reviewed", v.projectName(), v.reviewed, v.sections))
	}
	b.WriteString("\n\n")

	// Load table
	header := fmt.Sprintf(" %-14s │ %-11s │ %-8s │ %s", "SOURCE", "STATUS", "DURATION", "ITEMS")
	b.WriteString(shared.TableHeaderStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(54))
	b.WriteString("\n")

	for _, source := range v.sources {
		ls := v.loads[source]
		if ls == nil {
			continue
		}
		b.WriteString(v.renderRow(ls))
		b.WriteString("\n")
	}

	b.WriteString(shared.RenderDivider(54))
	b.WriteString("\n")
	for _, source := range v.sources {
		if ls := v.loads[source]; ls != nil && ls.Error != "" {
			b.WriteString(shared.StatusFailedStyle.Render(fmt.Sprintf(" %s: %s", dashboard.GetSourceInfo(source).Name, ls.Error)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (v *OverviewView) projectName() string {
	if v.project == "" {
		return "Draft"
	}
	return v.project
}

func (v *OverviewView) renderRow(ls *LoadStatus) string {
	name := shared.Truncate(dashboard.GetSourceInfo(ls.Source).Name, 14)

	var statusStr string
	var statusStyle lipgloss.Style
	switch ls.Status {
	case dashboard.StatusPending:
		statusStr = shared.StatusIndicatorPending + " Pending"
		statusStyle = shared.StatusPendingStyle
	case dashboard.StatusRunning:
		statusStr = v.spinner.View() + " Loading"
		statusStyle = shared.StatusRunningStyle
	case dashboard.StatusDone:
		statusStr = shared.StatusIndicatorDone + " Done"
		statusStyle = shared.StatusDoneStyle
	case dashboard.StatusSkipped:
		statusStr = shared.StatusIndicatorSkipped + " Skipped"
		statusStyle = shared.StatusPendingStyle
	case dashboard.StatusFailed:
		statusStr = shared.StatusIndicatorFailed + " Failed"
		statusStyle = shared.StatusFailedStyle
	default:
		statusStr = string(ls.Status)
		statusStyle = shared.StatusPendingStyle
	}

	durationStr := "-"
	if ls.Status != dashboard.StatusPending && ls.Status != dashboard.StatusSkipped {
		durationStr = fmt.Sprintf("%.1fs", ls.Duration().Seconds())
	}

	countStr := "-"
	if ls.Status == dashboard.StatusDone {
		countStr = fmt.Sprintf("%d", ls.Count)
	}

	return fmt.Sprintf(" %-14s │ %s │ %-8s │ %s",
		name,
		statusStyle.Render(padRight(statusStr, 11)),
		durationStr,
		countStr,
	)
}

// padRight pads a string to the given visible width
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
