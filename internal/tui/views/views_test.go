package views

import (
	"strings"
	"testing"
	"time"

	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/chat"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/dashboard"
	"github.com/buker/brdesk/internal/jira"
	tea "github.com/charmbracelet/bubbletea"
)

const sampleBRD = `## 1. Scope
Payments for EU merchants.

## 2. Risks
Card data exposure.

## 3. Timeline
Q3 rollout.
`

// =============================================================================
// Tests for SectionsView
// =============================================================================

func TestSectionsView_MovingSelectsSection(t *testing.T) {
	doc := brd.Parse(sampleBRD)
	view := NewSectionsView()
	view.SetDocument(doc)

	view.Update(runes("j"))
	view.Update(runes("j"))

	if _, i, _ := doc.Selected(); i != 2 || view.Cursor() != 2 {
		t.Errorf("selected = %d, cursor = %d, want 2", i, view.Cursor())
	}
}

func TestSectionsView_FollowsDocumentSelection(t *testing.T) {
	doc := brd.Parse(sampleBRD)
	doc.MarkReviewed()

	view := NewSectionsView()
	view.SetDocument(doc)

	if view.Cursor() != 1 {
		t.Errorf("Cursor() = %d, want 1 after MarkReviewed", view.Cursor())
	}
	output := view.View()
	if !strings.Contains(output, "1/3 reviewed") {
		t.Error("View() should show review progress")
	}
	if !strings.Contains(output, "Card data exposure.") {
		t.Error("View() should show the selected section content")
	}
}

func TestSectionsView_Approved(t *testing.T) {
	doc := brd.Parse(sampleBRD)
	doc.Approved = true
	view := NewSectionsView()
	view.SetDocument(doc)

	output := view.View()
	if !strings.Contains(output, "approved") {
		t.Error("View() should show the approved state")
	}
	if strings.Contains(output, "[e] edit section") {
		t.Error("approved documents should not offer editing")
	}
}

func TestSectionsView_NoDocument(t *testing.T) {
	view := NewSectionsView()
	view.Update(runes("j"))

	if !strings.Contains(view.View(), "No BRD draft yet") {
		t.Error("View() should explain how to get a draft")
	}
}

// =============================================================================
// Tests for PagesView
// =============================================================================

func TestPagesView(t *testing.T) {
	view := NewPagesView()
	view.SetSize(120, 30)
	view.SetPages("SO", []confluence.Page{
		{ID: "10", Title: "Home", Version: &confluence.Version{Number: 3}},
		{ID: "11", Title: "Payments BRD"},
	})

	view.Update(runes("j"))
	if p := view.SelectedPage(); p == nil || p.ID != "11" {
		t.Fatalf("SelectedPage() = %+v, want 11", p)
	}

	output := view.View()
	for _, want := range []string{"Wiki pages in SO (2)", "Payments BRD", "Unknown"} {
		if !strings.Contains(output, want) {
			t.Errorf("View() should contain %q", want)
		}
	}

	view.SetPages("SO", nil)
	if view.SelectedPage() != nil {
		t.Error("SelectedPage() should be nil after clearing pages")
	}
}

// =============================================================================
// Tests for DiffPreviewModal
// =============================================================================

func TestDiffPreviewModal_ShowsEdit(t *testing.T) {
	doc := brd.Parse(sampleBRD)
	edit, err := doc.ProposeEdit(1, "Card data exposure and fraud.")
	if err != nil {
		t.Fatal(err)
	}

	modal := NewDiffPreviewModal()
	modal.SetSize(120, 40)
	modal.SetEdit(&edit)

	output := modal.View()
	for _, want := range []string{"Edit preview: Risks", "+Card data exposure and fraud.", "-Card data exposure.", "[y] apply"} {
		if !strings.Contains(output, want) {
			t.Errorf("View() should contain %q", want)
		}
	}
}

func TestDiffPreviewModal_NoChange(t *testing.T) {
	modal := NewDiffPreviewModal()
	modal.SetSize(120, 40)
	modal.SetEdit(&brd.Edit{Title: "Scope", Old: "same", New: "same"})

	if !strings.Contains(modal.View(), "does not change") {
		t.Error("View() should say the reply changes nothing")
	}

	modal.SetEdit(nil)
	if modal.View() != "" {
		t.Error("View() should be empty without an edit")
	}
}

// =============================================================================
// Tests for DetailModal
// =============================================================================

func TestIssueDetail(t *testing.T) {
	body := IssueDetail(jira.View{
		Key:         "PAY-1",
		Priority:    jira.PriorityHigh,
		Assignee:    "Ana",
		Reporter:    jira.UnknownUser,
		Labels:      []string{"backend", "eu"},
		URL:         "https://example.atlassian.net/browse/PAY-1",
		Description: "Support partial refunds.",
	}, 60)

	for _, want := range []string{"HIGH", "Ana", "backend, eu", "browse/PAY-1", "Support partial refunds."} {
		if !strings.Contains(body, want) {
			t.Errorf("IssueDetail() should contain %q", want)
		}
	}
}

func TestPageDetail(t *testing.T) {
	page := &confluence.PageDetails{
		Page:      confluence.Page{ID: "1", Title: "BRD", Version: &confluence.Version{Number: 4}},
		Ancestors: []confluence.Ancestor{{Title: "Home"}},
	}
	page.Body.Storage.Value = "<h2>Goals</h2><p>Ship refunds</p>"

	body := PageDetail(page, "https://wiki/x", 60)
	for _, want := range []string{"Home", "Version 4", "Goals", "Ship refunds"} {
		if !strings.Contains(body, want) {
			t.Errorf("PageDetail() should contain %q", want)
		}
	}

	page.Body.Storage.Value = ""
	if !strings.Contains(PageDetail(page, "", 60), "This page is empty.") {
		t.Error("PageDetail() should note empty pages")
	}
}

func TestDetailModal_View(t *testing.T) {
	modal := NewDetailModal()
	if modal.View() != "" {
		t.Error("empty modal should render nothing")
	}
	modal.SetSize(100, 40)
	modal.SetContent("PAY-1: Refund flow", "body text")

	output := modal.View()
	if !strings.Contains(output, "PAY-1: Refund flow") || !strings.Contains(output, "body text") {
		t.Errorf("View() = %q", output)
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three\n\nfour", 7)
	want := "one two\nthree\n\nfour"
	if got != want {
		t.Errorf("wordWrap() = %q, want %q", got, want)
	}
}

// =============================================================================
// Tests for OverviewView
// =============================================================================

func TestOverviewView_Progress(t *testing.T) {
	view := NewOverviewView()

	if view.IsComplete() {
		t.Error("IsComplete() should be false while sources are pending")
	}

	view.SetStatus(dashboard.SourceProjects, dashboard.StatusRunning)
	if !strings.Contains(view.View(), "Loading") {
		t.Error("View() should show running sources")
	}

	results := []*dashboard.Result{
		{Source: dashboard.SourceProjects, Status: dashboard.StatusDone, Count: 4, Elapsed: time.Second},
		{Source: dashboard.SourceTemplates, Status: dashboard.StatusDone, Count: 2},
		{Source: dashboard.SourcePages, Status: dashboard.StatusSkipped},
		{Source: dashboard.SourceIssues, Status: dashboard.StatusFailed, Error: "jira down"},
	}
	view.SetResults(results, dashboard.Summary{Projects: 4, Templates: 2, Failed: 1})

	if !view.IsComplete() {
		t.Error("IsComplete() should be true after all results")
	}
	output := view.View()
	for _, want := range []string{"Skipped", "Failed", "jira down", "Projects:"} {
		if !strings.Contains(output, want) {
			t.Errorf("View() should contain %q", want)
		}
	}
	if view.Summary().Projects != 4 {
		t.Errorf("Summary() = %+v", view.Summary())
	}
}

func TestOverviewView_Document(t *testing.T) {
	view := NewOverviewView()

	if !strings.Contains(view.View(), "No draft loaded") {
		t.Error("View() should mention a missing draft")
	}

	view.SetDocument("Payments", 2, 5, false)
	if !strings.Contains(view.View(), "Payments: 2/5 sections reviewed") {
		t.Error("View() should show review progress")
	}

	view.SetDocument("Payments", 5, 5, true)
	if !strings.Contains(view.View(), "approved") {
		t.Error("View() should show approval")
	}
}

// =============================================================================
// Tests for ChatPane
// =============================================================================

func TestChatPane_Transcript(t *testing.T) {
	conv := chat.NewConversation(chat.SlotBRD)
	conv.AddUser("hello")
	conv.AddPending()

	pane := NewChatPane()
	pane.SetSize(100, 30)
	pane.SetTitle("BRD assistant")
	pane.SetTarget("Scope")
	pane.SetMessages(conv.Messages)

	output := pane.View()
	for _, want := range []string{"BRD assistant", "editing section: Scope", "You", "hello", "thinking..."} {
		if !strings.Contains(output, want) {
			t.Errorf("View() should contain %q", want)
		}
	}
}

func TestChatPane_InputFocus(t *testing.T) {
	pane := NewChatPane()

	pane.Update(runes("x"))
	if pane.Value() != "" {
		t.Error("unfocused input should ignore keys")
	}

	pane.Focus()
	pane.Update(runes("h"))
	pane.Update(runes("i"))
	pane.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if pane.Value() != "hi" {
		t.Errorf("Value() = %q, want %q", pane.Value(), "hi")
	}

	pane.Reset()
	pane.Blur()
	if pane.Value() != "" || pane.Focused() {
		t.Error("Reset() and Blur() should clear and unfocus the input")
	}
}

func TestChatPane_BusyHelp(t *testing.T) {
	pane := NewChatPane()
	pane.SetBusy(true)

	if !strings.Contains(pane.View(), "waiting for reply") {
		t.Error("View() should show the busy help")
	}
}
