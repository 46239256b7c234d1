package views

import (
	"fmt"
	"strings"

	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/markdown"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const inputHeight = 3

// ChatPane shows a conversation transcript and the message input
type ChatPane struct {
	width    int
	height   int
	title    string
	target   string
	busy     bool
	messages []chat.Message
	textarea textarea.Model
	viewport viewport.Model
	renderer *markdown.Renderer
}

// NewChatPane creates a new chat pane
func NewChatPane() *ChatPane {
	ta := textarea.New()
	ta.Placeholder = "Type a message... (\"reviewed\" or \"approved\" to progress the BRD)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	// Enter sends.
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &ChatPane{
		textarea: ta,
		viewport: viewport.New(80, 10),
		renderer: markdown.NewRenderer(76, shared.MarkdownTheme),
	}
}

// SetTitle sets the header shown above the transcript
func (v *ChatPane) SetTitle(title string) {
	v.title = title
}

// SetTarget names the section a reply will edit. Empty for plain chat.
func (v *ChatPane) SetTarget(section string) {
	v.target = section
}

// Target returns the section being edited
func (v *ChatPane) Target() string {
	return v.target
}

// SetBusy marks a reply as streaming
func (v *ChatPane) SetBusy(busy bool) {
	v.busy = busy
}

// SetMessages replaces the transcript snapshot and scrolls to the end
func (v *ChatPane) SetMessages(messages []chat.Message) {
	v.messages = messages
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

// SetSize updates the view dimensions
func (v *ChatPane) SetSize(width, height int) {
	v.width = width
	v.height = height

	v.textarea.SetWidth(max(width-4, 20))
	v.viewport.Width = max(width-2, 20)
	v.viewport.Height = max(height-inputHeight-5, 3)
	v.renderer = markdown.NewRenderer(max(width-6, 20), shared.MarkdownTheme)
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

// Value returns the typed message
func (v *ChatPane) Value() string {
	return v.textarea.Value()
}

// SetValue replaces the typed message
func (v *ChatPane) SetValue(s string) {
	v.textarea.SetValue(s)
}

// Reset clears the input
func (v *ChatPane) Reset() {
	v.textarea.Reset()
}

// Focus gives the input keyboard focus
func (v *ChatPane) Focus() tea.Cmd {
	v.textarea.Focus()
	return textarea.Blink
}

// Blur removes keyboard focus from the input
func (v *ChatPane) Blur() {
	v.textarea.Blur()
}

// Focused reports whether the input has focus
func (v *ChatPane) Focused() bool {
	return v.textarea.Focused()
}

// Init initializes the view
func (v *ChatPane) Init() tea.Cmd {
	return nil
}

// Update forwards keys to the input when focused, otherwise scrolls
func (v *ChatPane) Update(msg tea.Msg) (*ChatPane, tea.Cmd) {
	var cmd tea.Cmd
	if v.textarea.Focused() {
		v.textarea, cmd = v.textarea.Update(msg)
		return v, cmd
	}
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the chat pane
func (v *ChatPane) View() string {
	var b strings.Builder

	b.WriteString(shared.TitleStyle.Render(v.title))
	if v.target != "" {
		b.WriteString(shared.HelpDescStyle.Render(fmt.Sprintf("  editing section: %s", v.target)))
	}
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(max(v.width-2, 20)))
	b.WriteString("\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(max(v.width-2, 20)))
	b.WriteString("\n")
	b.WriteString(v.textarea.View())
	b.WriteString("\n")
	b.WriteString(shared.HelpKeyStyle.Render(shared.ChatHelp(v.busy)))

	return b.String()
}

// renderTranscript renders the message snapshot
func (v *ChatPane) renderTranscript() string {
	var b strings.Builder
	for i, m := range v.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		if m.IsBot {
			b.WriteString(shared.BotLabelStyle.Render("Assistant"))
		} else {
			b.WriteString(shared.UserLabelStyle.Render("You"))
		}
		b.WriteString(shared.HelpDescStyle.Render(" " + m.Timestamp.Format("15:04")))
		b.WriteString("\n")

		switch {
		case m.IsBot && m.Loading && m.Content == "":
			b.WriteString(shared.StatusRunningStyle.Render("thinking..."))
		case m.IsBot:
			b.WriteString(v.renderer.RenderText(m.Content))
		default:
			b.WriteString(wordWrap(m.Content, max(v.width-6, 20)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
