// Package tui provides the terminal dashboard using Bubble Tea. It shows
// load progress and statistics, the BRD under review with its chat, wiki
// pages and Jira issues, and previews section edits before applying them.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/dashboard"
	"github.com/buker/brdesk/internal/jira"
	"github.com/buker/brdesk/internal/logging"
	"github.com/buker/brdesk/internal/tui/shared"
	"github.com/buker/brdesk/internal/tui/views"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var log = logging.New("TUI")

// PageReader fetches a wiki page with its body.
type PageReader interface {
	GetPage(ctx context.Context, id string) (*confluence.PageDetails, error)
}

// StoryCreator creates a Jira story from a wiki page.
type StoryCreator interface {
	CreateStoryFromPage(ctx context.Context, pageID string) (*jira.StoryResult, error)
}

// Deps are the services the dashboard talks to. Only Chat is required.
type Deps struct {
	Chat     *chat.Service
	Pages    PageReader
	Stories  StoryCreator
	SpaceKey string
	// PageURL builds the browser link shown in the page modal.
	PageURL  func(confluence.Page) string
	Document *brd.Document
	Project  string
	// OnChange runs after the document's review state or content changes.
	OnChange func(*brd.Document)
}

// focus is where keyboard input goes
type focus int

const (
	focusList focus = iota // the active tab's list
	focusChat              // the chat input
)

// modal is the overlay shown on top of the tabs
type modal int

const (
	modalNone   modal = iota
	modalDetail       // issue or page details
	modalDiff         // section edit preview
)

// Model is the main Bubble Tea model. It owns the data behind the tabs and
// hands immutable snapshots to the views for rendering.
type Model struct {
	ctx    context.Context
	deps   Deps
	keys   shared.KeyMap
	width  int
	height int

	tab    Tab
	focus  focus
	modal  modal
	notice string

	book *chat.Book
	doc  *brd.Document
	data *dashboard.Data

	// In-flight chat turn. Only one runs at a time.
	turn        *chat.Turn
	busy        bool
	pendingID   string
	pendingSlot chat.Slot
	pendingText string
	editIndex   int

	// Section the next chat message edits, -1 for plain chat.
	editTarget int

	reload func()

	overview *views.OverviewView
	sections *views.SectionsView
	pages    *views.PagesView
	issues   *views.IssuesTableView
	detail   *views.DetailModal
	diff     *views.DiffPreviewModal
	chatPane *views.ChatPane
}

// NewModel creates the dashboard model on the overview tab.
func NewModel(deps Deps) *Model {
	doc := deps.Document
	if doc == nil {
		doc = brd.New(nil)
	}
	m := &Model{
		ctx:        context.Background(),
		deps:       deps,
		keys:       shared.DefaultKeyMap(),
		book:       chat.NewBook(),
		doc:        doc,
		data:       &dashboard.Data{},
		editIndex:  -1,
		editTarget: -1,
		overview:   views.NewOverviewView(),
		sections:   views.NewSectionsView(),
		pages:      views.NewPagesView(),
		issues:     views.NewIssuesTableView(),
		detail:     views.NewDetailModal(),
		diff:       views.NewDiffPreviewModal(),
		chatPane:   views.NewChatPane(),
	}
	m.sections.SetDocument(doc)
	m.pages.SetPages(deps.SpaceKey, nil)
	m.syncOverview()
	return m
}

// SetContext sets the context used for requests started from the TUI.
func (m *Model) SetContext(ctx context.Context) {
	m.ctx = ctx
}

// SetReload sets the function run when the user asks to reload the data.
func (m *Model) SetReload(fn func()) {
	m.reload = fn
}

// Document returns the BRD under review.
func (m *Model) Document() *brd.Document {
	return m.doc
}

// Conversation returns the transcript for slot.
func (m *Model) Conversation(slot chat.Slot) *chat.Conversation {
	return m.book.Get(slot)
}

// Tab returns the active tab.
func (m *Model) Tab() Tab {
	return m.tab
}

// Notice returns the last status message.
func (m *Model) Notice() string {
	return m.notice
}

// Busy reports whether a chat reply is streaming.
func (m *Model) Busy() bool {
	return m.busy
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return m.overview.Init()
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.overview, cmd = m.overview.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MsgSourceStatus:
		m.overview.SetStatus(msg.Source, msg.Status)
		return m, nil

	case MsgDataLoaded:
		if msg.Data != nil {
			m.data = msg.Data
		}
		m.overview.SetResults(msg.Results, dashboard.Summarize(msg.Results, m.data))
		m.pages.SetPages(m.deps.SpaceKey, m.data.Pages)
		m.issues.SetIssues(m.data.Issues)
		return m, nil

	case MsgTurnStarted:
		m.turn = msg.Turn
		return m, nextFragment(msg.Turn)

	case MsgChatFragment:
		if msg.Turn != m.turn {
			return m, nil
		}
		m.book.Get(m.pendingSlot).AppendTo(m.pendingID, msg.Text)
		m.refreshChat()
		return m, nextFragment(msg.Turn)

	case MsgChatDone:
		if msg.Turn != m.turn {
			return m, nil
		}
		m.finishTurn()
		return m, nil

	case MsgChatError:
		if msg.Turn != nil && msg.Turn != m.turn {
			return m, nil
		}
		m.failTurn(msg.Err)
		return m, nil

	case MsgPageLoaded:
		url := ""
		if m.deps.PageURL != nil {
			url = m.deps.PageURL(msg.Page.Page)
		}
		m.detail.SetContent(msg.Page.Title, views.PageDetail(msg.Page, url, m.detail.ContentWidth()))
		m.modal = modalDetail
		m.notice = ""
		return m, nil

	case MsgStoryCreated:
		m.notice = fmt.Sprintf("Created %s from %q", msg.Result.IssueKey, msg.PageTitle)
		if msg.Result.Message != "" {
			m.notice += ": " + msg.Result.Message
		}
		return m, nil

	case MsgError:
		m.notice = msg.Err.Error()
		return m, nil

	case MsgQuit:
		return m, m.quit()
	}

	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// Tab bar and divider on top, notice line at the bottom.
	bodyHeight := max(height-4, 5)
	m.overview.SetSize(width, bodyHeight)
	m.sections.SetSize(width, bodyHeight)
	m.pages.SetSize(width, bodyHeight)
	m.issues.SetSize(width, bodyHeight)
	m.chatPane.SetSize(width, bodyHeight)
	m.detail.SetSize(width, height)
	m.diff.SetSize(width, height)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, m.quit()
	}

	switch m.modal {
	case modalDiff:
		return m, m.handleDiffKey(msg)
	case modalDetail:
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Quit) {
			m.modal = modalNone
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	if m.focus == focusChat {
		return m, m.handleChatKey(msg)
	}

	if m.tab == TabJira && m.issues.Filtering() {
		var cmd tea.Cmd
		m.issues, cmd = m.issues.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.Chat):
		return m, m.openChat(-1)
	case key.Matches(msg, m.keys.Refresh):
		if m.reload != nil {
			m.overview.SetSources(dashboard.AllSources())
			m.notice = "Reloading..."
			m.reload()
		}
		return m, nil
	}

	switch m.tab {
	case TabBRD:
		return m, m.handleSectionsKey(msg)
	case TabConfluence:
		return m, m.handlePagesKey(msg)
	case TabJira:
		return m, m.handleIssuesKey(msg)
	}
	return m, nil
}

func (m *Model) handleSectionsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Reviewed):
		if m.doc.Empty() || m.doc.Approved {
			return nil
		}
		sec, _, _ := m.doc.Selected()
		m.doc.MarkReviewed()
		m.notice = fmt.Sprintf("Marked %q as reviewed", sec.Title)
		m.changed()
		return nil
	case key.Matches(msg, m.keys.Edit):
		if m.doc.Empty() || m.doc.Approved {
			return nil
		}
		return m.openChat(m.sections.Cursor())
	}
	var cmd tea.Cmd
	m.sections, cmd = m.sections.Update(msg)
	return cmd
}

func (m *Model) handlePagesKey(msg tea.KeyMsg) tea.Cmd {
	page := m.pages.SelectedPage()
	switch {
	case key.Matches(msg, m.keys.Enter):
		if page == nil {
			return nil
		}
		if m.deps.Pages == nil {
			m.notice = confluence.ErrNotConfigured.Error()
			return nil
		}
		m.notice = fmt.Sprintf("Loading %q...", page.Title)
		return loadPage(m.ctx, m.deps.Pages, page.ID)
	case key.Matches(msg, m.keys.Story):
		if page == nil || m.deps.Stories == nil {
			return nil
		}
		m.notice = fmt.Sprintf("Creating a story from %q...", page.Title)
		return createStory(m.ctx, m.deps.Stories, *page)
	}
	var cmd tea.Cmd
	m.pages, cmd = m.pages.Update(msg)
	return cmd
}

func (m *Model) handleIssuesKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Filter):
		return m.issues.StartFilter()
	case key.Matches(msg, m.keys.Enter):
		issue := m.issues.SelectedIssue()
		if issue == nil {
			return nil
		}
		m.detail.SetContent(fmt.Sprintf("%s: %s", issue.Key, issue.Title), views.IssueDetail(*issue, m.detail.ContentWidth()))
		m.modal = modalDetail
		return nil
	}
	var cmd tea.Cmd
	m.issues, cmd = m.issues.Update(msg)
	return cmd
}

func (m *Model) handleDiffKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if edit := m.diff.Edit(); edit != nil {
			if err := m.doc.Apply(*edit); err != nil {
				m.notice = err.Error()
			} else {
				m.notice = fmt.Sprintf("Applied edit to %q", edit.Title)
				m.changed()
			}
		}
		m.closeDiff()
		return nil
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Escape):
		m.notice = "Edit discarded"
		m.closeDiff()
		return nil
	}
	var cmd tea.Cmd
	m.diff, cmd = m.diff.Update(msg)
	return cmd
}

func (m *Model) closeDiff() {
	m.diff.SetEdit(nil)
	m.modal = modalNone
}

func (m *Model) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.focus = focusList
		m.editTarget = -1
		m.chatPane.SetTarget("")
		m.chatPane.Blur()
		return nil
	case key.Matches(msg, m.keys.Enter):
		return m.send()
	}
	var cmd tea.Cmd
	m.chatPane, cmd = m.chatPane.Update(msg)
	return cmd
}

// openChat focuses the chat input of the active tab. section is the index
// of the BRD section the next message edits, or -1.
func (m *Model) openChat(section int) tea.Cmd {
	m.focus = focusChat
	m.editTarget = section
	m.chatPane.SetTarget("")
	if section >= 0 && section < m.doc.Len() {
		m.chatPane.SetTarget(m.doc.Sections[section].Title)
	}
	m.chatPane.SetTitle(m.tab.String() + " assistant")
	m.refreshChat()
	return m.chatPane.Focus()
}

// send starts a chat turn with the typed message
func (m *Model) send() tea.Cmd {
	text := strings.TrimSpace(m.chatPane.Value())
	if text == "" || m.busy {
		return nil
	}
	m.chatPane.Reset()

	conv := m.book.Get(m.tab.Slot())
	conv.AddUser(text)

	if chat.IsApproval(text) {
		conv.AddBot(chat.ApprovalReply)
		m.doc.Approved = true
		m.notice = "BRD approved"
		m.changed()
		m.refreshChat()
		return nil
	}

	section := ""
	m.editIndex = -1
	if m.editTarget >= 0 && !chat.IsReviewed(text) {
		section = m.doc.Context(m.editTarget)
		m.editIndex = m.editTarget
	}

	pending := conv.AddPending()
	m.pendingID = pending.ID
	m.pendingSlot = conv.Slot
	m.pendingText = text
	m.busy = true
	m.chatPane.SetBusy(true)
	m.refreshChat()

	log.Debugf("chat turn on %s (edit section %d)", conv.Slot, m.editIndex)
	return beginTurn(m.ctx, m.deps.Chat, text, section)
}

func (m *Model) finishTurn() {
	conv := m.book.Get(m.pendingSlot)
	conv.Complete(m.pendingID)
	reply, _ := conv.Get(m.pendingID)
	text, editIndex := m.pendingText, m.editIndex
	m.endTurn()

	if chat.IsReviewed(text) && !m.doc.Empty() {
		m.doc.MarkReviewed()
		m.changed()
	}

	if editIndex >= 0 {
		edit, err := m.doc.ProposeEdit(editIndex, reply.Content)
		switch {
		case err != nil:
			m.notice = err.Error()
		case edit.Empty():
			m.notice = "The reply does not change the section"
		default:
			m.diff.SetEdit(&edit)
			m.modal = modalDiff
		}
	}
	m.refreshChat()
}

func (m *Model) failTurn(err error) {
	if m.pendingID != "" {
		m.book.Get(m.pendingSlot).Fail(m.pendingID)
	}
	m.endTurn()
	m.notice = userMessage(err)
	m.refreshChat()
}

func (m *Model) endTurn() {
	if m.turn != nil {
		_ = m.turn.Close()
	}
	m.turn = nil
	m.busy = false
	m.pendingID = ""
	m.pendingText = ""
	m.editIndex = -1
	m.chatPane.SetBusy(false)
}

func (m *Model) refreshChat() {
	slot := m.tab.Slot()
	if m.busy {
		slot = m.pendingSlot
	}
	m.chatPane.SetMessages(m.book.Get(slot).Messages)
}

// changed pushes document updates to the views and the owner
func (m *Model) changed() {
	m.sections.SetDocument(m.doc)
	m.syncOverview()
	if m.deps.OnChange != nil {
		m.deps.OnChange(m.doc)
	}
}

func (m *Model) syncOverview() {
	done, total := m.doc.Progress()
	m.overview.SetDocument(m.deps.Project, done, total, m.doc.Approved)
}

func (m *Model) quit() tea.Cmd {
	if m.turn != nil {
		_ = m.turn.Close()
	}
	return tea.Quit
}

// userMessage shortens errors for the notice line
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	return err.Error()
}

// View renders the model
func (m *Model) View() string {
	switch m.modal {
	case modalDetail:
		return m.detail.View()
	case modalDiff:
		return m.diff.View()
	}

	var b strings.Builder
	b.WriteString(renderTabs(m.tab))
	b.WriteString("\n")
	b.WriteString(shared.RenderDivider(max(m.width, 40)))
	b.WriteString("\n")

	if m.focus == focusChat {
		b.WriteString(m.chatPane.View())
	} else {
		switch m.tab {
		case TabOverview:
			b.WriteString(m.overview.View())
			b.WriteString(shared.HelpKeyStyle.Render(shared.OverviewHelp()))
		case TabBRD:
			b.WriteString(m.sections.View())
		case TabConfluence:
			b.WriteString(m.pages.View())
		case TabJira:
			b.WriteString(m.issues.View())
		}
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(shared.NoticeStyle.Render(" " + m.notice))
	}
	return b.String()
}
