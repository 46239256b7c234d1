package views

import (
	"fmt"
	"strings"

	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DiffPreviewModal displays the diff of a proposed section edit
type DiffPreviewModal struct {
	width    int
	height   int
	edit     *brd.Edit
	viewport viewport.Model
	ready    bool
}

// NewDiffPreviewModal creates a new diff preview modal
func NewDiffPreviewModal() *DiffPreviewModal {
	return &DiffPreviewModal{}
}

// SetEdit sets the edit to preview. nil clears the modal.
func (v *DiffPreviewModal) SetEdit(edit *brd.Edit) {
	v.edit = edit
	if v.ready {
		v.viewport.SetContent(v.renderDiff())
		v.viewport.GotoTop()
	}
}

// Edit returns the edit being previewed
func (v *DiffPreviewModal) Edit() *brd.Edit {
	return v.edit
}

// SetSize updates the modal dimensions
func (v *DiffPreviewModal) SetSize(width, height int) {
	v.width = width
	v.height = height

	// Modal is 80% of screen, capped at reasonable max
	modalWidth := min(width*80/100, 90)
	modalHeight := min(height*80/100, 35)

	if !v.ready {
		v.viewport = viewport.New(max(modalWidth-4, 10), max(modalHeight-6, 3))
		v.ready = true
	} else {
		v.viewport.Width = max(modalWidth-4, 10)
		v.viewport.Height = max(modalHeight-6, 3)
	}
	v.viewport.SetContent(v.renderDiff())
}

// Init initializes the modal
func (v *DiffPreviewModal) Init() tea.Cmd {
	return nil
}

// Update handles messages for scrolling
func (v *DiffPreviewModal) Update(msg tea.Msg) (*DiffPreviewModal, tea.Cmd) {
	var cmd tea.Cmd
	if v.ready {
		v.viewport, cmd = v.viewport.Update(msg)
	}
	return v, cmd
}

// View renders the modal
func (v *DiffPreviewModal) View() string {
	if v.edit == nil {
		return ""
	}

	modalWidth := min(v.width*80/100, 90)

	var b strings.Builder
	b.WriteString(shared.ModalTitleStyle.Render(fmt.Sprintf("Edit preview: %s", v.edit.Title)))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(modalWidth - 4))
	b.WriteString("\n")

	if v.ready {
		b.WriteString(v.viewport.View())
	} else {
		b.WriteString(v.renderDiff())
	}

	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(modalWidth - 4))
	b.WriteString("\n")
	b.WriteString(shared.HelpKeyStyle.Render(shared.DiffPreviewHelp()))

	modal := shared.ModalBoxStyle.
		Width(modalWidth).
		Render(b.String())

	return centerModal(modal, v.width, v.height)
}

// renderDiff colors the unified diff line by line
func (v *DiffPreviewModal) renderDiff() string {
	if v.edit == nil {
		return ""
	}
	if v.edit.Empty() || v.edit.Diff == "" {
		return "The reply does not change this section."
	}
	return RenderDiff(v.edit.Diff)
}

// RenderDiff colors a unified diff.
func RenderDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	var b strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(shared.HeaderStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(shared.DiffHunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(shared.DiffAddedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(shared.DiffRemovedStyle.Render(line))
		default:
			b.WriteString(shared.DiffContextStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
