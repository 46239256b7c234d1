package views

import (
	"fmt"
	"strings"

	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/markdown"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// cursorList is the navigation shared by the list views
type cursorList struct {
	cursor int
	keys   shared.KeyMap
}

func (l *cursorList) move(msg tea.Msg, n int) bool {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	switch {
	case key.Matches(keyMsg, l.keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(keyMsg, l.keys.Down):
		if l.cursor < n-1 {
			l.cursor++
		}
	case key.Matches(keyMsg, l.keys.Home):
		l.cursor = 0
	case key.Matches(keyMsg, l.keys.End):
		l.cursor = max(n-1, 0)
	default:
		return false
	}
	return true
}

func (l *cursorList) clamp(n int) {
	l.cursor = min(l.cursor, n-1)
	l.cursor = max(l.cursor, 0)
}

// =============================================================================
// BRD sections
// =============================================================================

// SectionsView lists the BRD sections with their review state and shows
// the selected section's content
type SectionsView struct {
	cursorList
	width    int
	height   int
	doc      *brd.Document
	renderer *markdown.Renderer
}

// NewSectionsView creates a new sections view
func NewSectionsView() *SectionsView {
	return &SectionsView{
		cursorList: cursorList{keys: shared.DefaultKeyMap()},
		renderer:   markdown.NewRenderer(76, shared.MarkdownTheme),
	}
}

// SetDocument sets the document to display and follows its selection
func (v *SectionsView) SetDocument(doc *brd.Document) {
	v.doc = doc
	if doc == nil {
		v.cursor = 0
		return
	}
	if _, i, ok := doc.Selected(); ok {
		v.cursor = i
	}
	v.clamp(doc.Len())
}

// Cursor returns the highlighted section index
func (v *SectionsView) Cursor() int {
	return v.cursor
}

// SetSize updates the view dimensions
func (v *SectionsView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.renderer = markdown.NewRenderer(max(width-4, 20), shared.MarkdownTheme)
}

// Init initializes the view
func (v *SectionsView) Init() tea.Cmd {
	return nil
}

// Update handles navigation. Moving the cursor selects the section.
func (v *SectionsView) Update(msg tea.Msg) (*SectionsView, tea.Cmd) {
	if v.doc == nil {
		return v, nil
	}
	if v.move(msg, v.doc.Len()) {
		_ = v.doc.Select(v.cursor)
	}
	return v, nil
}

// View renders the section list and the selected section
func (v *SectionsView) View() string {
	var b strings.Builder

	if v.doc == nil || v.doc.Empty() {
		b.WriteString(shared.TitleStyle.Render("BRD"))
		b.WriteString("\n")
		b.WriteString(shared.RenderDivider(54))
		b.WriteString("\n")
		b.WriteString(" No BRD draft yet. Upload documents with `brdesk upload` or ask in chat.\n")
		return b.String()
	}

	done, total := v.doc.Progress()
	title := fmt.Sprintf("BRD sections (%d/%d reviewed)", done, total)
	if v.doc.Approved {
		title = fmt.Sprintf("BRD sections (%d) approved", total)
	}
	b.WriteString(shared.TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(54))
	b.WriteString("\n")

	for i, s := range v.doc.Sections {
		marker := " "
		if i == v.cursor {
			marker = shared.SelectionMarker.Render(shared.SelectionChar)
		}
		state := shared.StatusPendingStyle.Render(shared.StatusIndicatorPending)
		if v.doc.IsCompleted(s.Title) {
			state = shared.StatusDoneStyle.Render(shared.StatusIndicatorDone)
		}
		row := fmt.Sprintf("%s %s %2d. %-28s %s", marker, state, i+1,
			shared.Truncate(s.Title, 28),
			shared.HelpDescStyle.Render(shared.Truncate(s.Description, 40)))
		if i == v.cursor {
			row = shared.SelectedRowStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString(shared.RenderDivider(54))
	b.WriteString("\n")

	if i := v.cursor; i >= 0 && i < v.doc.Len() {
		s := v.doc.Sections[i]
		b.WriteString(shared.HeaderStyle.Render(s.Title))
		b.WriteString("\n\n")
		body := v.renderer.RenderText(v.doc.Context(i))
		lines := strings.Split(body, "\n")
		room := v.height - v.doc.Len() - 8
		if room > 0 && len(lines) > room {
			lines = append(lines[:room], shared.HelpDescStyle.Render("... (open chat with [e] to edit)"))
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	b.WriteString(shared.HelpKeyStyle.Render(shared.SectionsHelp(v.doc.Approved)))
	return b.String()
}

// =============================================================================
// Wiki pages
// =============================================================================

// PagesView lists the pages of the wiki space
type PagesView struct {
	cursorList
	width  int
	height int
	space  string
	pages  []confluence.Page
}

// NewPagesView creates a new pages view
func NewPagesView() *PagesView {
	return &PagesView{cursorList: cursorList{keys: shared.DefaultKeyMap()}}
}

// SetPages sets the pages to display
func (v *PagesView) SetPages(space string, pages []confluence.Page) {
	v.space = space
	v.pages = pages
	v.clamp(len(pages))
}

// SelectedPage returns the highlighted page
func (v *PagesView) SelectedPage() *confluence.Page {
	if v.cursor >= 0 && v.cursor < len(v.pages) {
		return &v.pages[v.cursor]
	}
	return nil
}

// SetSize updates the view dimensions
func (v *PagesView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Init initializes the view
func (v *PagesView) Init() tea.Cmd {
	return nil
}

// Update handles navigation
func (v *PagesView) Update(msg tea.Msg) (*PagesView, tea.Cmd) {
	v.move(msg, len(v.pages))
	return v, nil
}

// View renders the page list
func (v *PagesView) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Wiki pages (%d)", len(v.pages))
	if v.space != "" {
		title = fmt.Sprintf("Wiki pages in %s (%d)", v.space, len(v.pages))
	}
	b.WriteString(shared.TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(84))
	b.WriteString("\n")

	header := fmt.Sprintf(" %-12s │ %-44s │ %-4s │ %s", "ID", "TITLE", "VER", "AUTHOR")
	b.WriteString(shared.TableHeaderStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(84))
	b.WriteString("\n")

	if len(v.pages) == 0 {
		b.WriteString(" No pages loaded\n")
	} else {
		start, end := visibleRange(v.cursor, len(v.pages), v.height-7)
		for i := start; i < end; i++ {
			p := v.pages[i]
			marker := " "
			if i == v.cursor {
				marker = shared.SelectionMarker.Render(shared.SelectionChar)
			}
			version, author := "-", "-"
			if p.Version != nil {
				version = fmt.Sprintf("%d", p.Version.Number)
				author = p.Version.Author()
			}
			row := fmt.Sprintf("%s%-12s │ %-44s │ %-4s │ %s", marker,
				shared.Truncate(p.ID, 12),
				shared.Truncate(p.Title, 44),
				version,
				shared.Truncate(author, 20))
			if i == v.cursor {
				row = shared.SelectedRowStyle.Render(row)
			}
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	b.WriteString(shared.RenderDivider(84))
	b.WriteString("\n")
	b.WriteString(shared.HelpKeyStyle.Render(shared.PagesHelp()))
	return b.String()
}
