package views

import (
	"fmt"
	"strings"

	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/jira"
	"github.com/buker/brdesk/internal/markdown"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DetailModal displays a scrollable title and body
type DetailModal struct {
	width    int
	height   int
	title    string
	body     string
	viewport viewport.Model
	ready    bool
}

// NewDetailModal creates a new detail modal
func NewDetailModal() *DetailModal {
	return &DetailModal{}
}

// SetContent sets what the modal shows. body is already rendered.
func (v *DetailModal) SetContent(title, body string) {
	v.title = title
	v.body = body
	if v.ready {
		v.viewport.SetContent(body)
		v.viewport.GotoTop()
	}
}

// Title returns the modal title
func (v *DetailModal) Title() string {
	return v.title
}

// Body returns the rendered body
func (v *DetailModal) Body() string {
	return v.body
}

// SetSize updates the modal dimensions
func (v *DetailModal) SetSize(width, height int) {
	v.width = width
	v.height = height

	// Modal is 80% of screen, capped at reasonable max
	modalWidth := min(width*80/100, 90)
	modalHeight := min(height*80/100, 35)

	if !v.ready {
		v.viewport = viewport.New(max(modalWidth-4, 10), max(modalHeight-8, 3))
		v.ready = true
	} else {
		v.viewport.Width = max(modalWidth-4, 10)
		v.viewport.Height = max(modalHeight-8, 3)
	}
	v.viewport.SetContent(v.body)
}

// ContentWidth is the width available to the body
func (v *DetailModal) ContentWidth() int {
	return max(min(v.width*80/100, 90)-8, 20)
}

// Init initializes the modal
func (v *DetailModal) Init() tea.Cmd {
	return nil
}

// Update handles messages for scrolling
func (v *DetailModal) Update(msg tea.Msg) (*DetailModal, tea.Cmd) {
	var cmd tea.Cmd
	if v.ready {
		v.viewport, cmd = v.viewport.Update(msg)
	}
	return v, cmd
}

// View renders the modal
func (v *DetailModal) View() string {
	if v.title == "" && v.body == "" {
		return ""
	}

	modalWidth := min(v.width*80/100, 90)

	var b strings.Builder
	b.WriteString(shared.ModalTitleStyle.Render(v.title))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(modalWidth - 4))
	b.WriteString("\n")

	if v.ready {
		b.WriteString(v.viewport.View())
	} else {
		b.WriteString(v.body)
	}

	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(modalWidth - 4))
	b.WriteString("\n")
	b.WriteString(shared.HelpKeyStyle.Render(shared.DetailHelp()))

	modal := shared.ModalBoxStyle.
		Width(modalWidth).
		Render(b.String())

	return centerModal(modal, v.width, v.height)
}

// IssueDetail renders the body of the issue detail modal
func IssueDetail(issue jira.View, width int) string {
	var b strings.Builder

	field := func(label, value string) {
		b.WriteString(shared.HeaderStyle.Render(fmt.Sprintf("%-10s", label+":")))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	field("Type", orDash(issue.Type))
	b.WriteString(shared.HeaderStyle.Render(fmt.Sprintf("%-10s", "Priority:")))
	b.WriteString(" ")
	b.WriteString(shared.PriorityStyle(issue.Priority).Render(strings.ToUpper(issue.Priority)))
	b.WriteString("\n")
	field("Status", orDash(issue.Status))
	field("Assignee", issue.Assignee)
	field("Reporter", issue.Reporter)
	field("Points", issue.Points)
	field("Sprint", issue.Sprint)
	field("Created", orDash(issue.Created))
	field("Updated", orDash(issue.Updated))
	if len(issue.Labels) > 0 {
		field("Labels", strings.Join(issue.Labels, ", "))
	}
	field("Link", issue.URL)

	b.WriteString("\n")
	b.WriteString(shared.HeaderStyle.Render("Description:"))
	b.WriteString("\n")
	b.WriteString(wordWrap(issue.Description, width))
	b.WriteString("\n")

	return b.String()
}

// PageDetail renders the body of the wiki page modal. The storage body is
// converted to markdown and rendered like chat replies.
func PageDetail(page *confluence.PageDetails, url string, width int) string {
	var b strings.Builder

	if crumb := page.Breadcrumb(); crumb != "" {
		b.WriteString(shared.HelpDescStyle.Render(crumb))
		b.WriteString("\n")
	}
	if page.Version != nil {
		b.WriteString(shared.HelpDescStyle.Render(fmt.Sprintf("Version %d by %s", page.Version.Number, page.Version.Author())))
		b.WriteString("\n")
	}
	if url != "" {
		b.WriteString(shared.HelpDescStyle.Render(url))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	text := confluence.MarkdownFromStorage(page.Body.Storage.Value)
	if strings.TrimSpace(text) == "" {
		b.WriteString("This page is empty.")
	} else {
		b.WriteString(markdown.NewRenderer(width, shared.MarkdownTheme).RenderText(text))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// centerModal centers the modal in the terminal
func centerModal(modal string, width, height int) string {
	lines := strings.Split(modal, "\n")
	modalHeight := len(lines)
	modalWidth := 0
	for _, line := range lines {
		modalWidth = max(modalWidth, lipgloss.Width(line))
	}

	topPadding := max((height-modalHeight)/2, 0)
	leftPadding := max((width-modalWidth)/2, 0)

	var b strings.Builder
	for i := 0; i < topPadding; i++ {
		b.WriteString("\n")
	}

	padStr := strings.Repeat(" ", leftPadding)
	for _, line := range lines {
		b.WriteString(padStr)
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// wordWrap wraps text to the specified width, keeping paragraph breaks
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		var line strings.Builder
		lineLen := 0
		var wrapped []string
		for _, word := range strings.Fields(p) {
			wordLen := len([]rune(word))
			if lineLen+wordLen+1 > width && lineLen > 0 {
				wrapped = append(wrapped, line.String())
				line.Reset()
				lineLen = 0
			}
			if lineLen > 0 {
				line.WriteString(" ")
				lineLen++
			}
			line.WriteString(word)
			lineLen += wordLen
		}
		wrapped = append(wrapped, line.String())
		out = append(out, strings.Join(wrapped, "\n"))
	}
	return strings.Join(out, "\n")
}
