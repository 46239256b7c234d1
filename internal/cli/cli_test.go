package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/buker/brdesk/internal/api"
	"github.com/buker/brdesk/internal/brd"
	"github.com/buker/brdesk/internal/config"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/drafts"
	"github.com/buker/brdesk/internal/jira"
	"github.com/buker/brdesk/internal/state"
	"github.com/spf13/cobra"
)

const sampleBRD = `# Title

## 1. Executive Summary

The system replaces manual intake.

## 2. Scope

In scope: intake forms.
Out of scope: billing.
`

// =============================================================================
// Tests for shortHash function
// =============================================================================

func TestShortHash_NormalHash(t *testing.T) {
	hash := "a1b2c3d4e5f67890123456789abcdef0123456789"
	result := shortHash(hash)
	if result != "a1b2c3d4" {
		t.Errorf("expected %q, got %q", "a1b2c3d4", result)
	}
}

func TestShortHash_ShorterThanEight(t *testing.T) {
	hash := "a1b2c3"
	result := shortHash(hash)
	if result != "a1b2c3" {
		t.Errorf("expected %q, got %q", "a1b2c3", result)
	}
}

func TestShortHash_EmptyString(t *testing.T) {
	if result := shortHash(""); result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

// =============================================================================
// Tests for prompts
// =============================================================================

func TestIsYes(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES", true},
		{"  yes  ", true},
		{"", false},
		{"n", false},
		{"yep", false},
	}
	for _, tt := range tests {
		if got := isYes(tt.input); got != tt.want {
			t.Errorf("isYes(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConfirm_WritesQuestion(t *testing.T) {
	var out bytes.Buffer
	if !confirm(strings.NewReader("y\n"), &out, "Apply?") {
		t.Error("expected confirmation")
	}
	if out.String() != "Apply? [y/N] " {
		t.Errorf("prompt = %q", out.String())
	}
}

func TestConfirm_EOFDeclines(t *testing.T) {
	var out bytes.Buffer
	if confirm(strings.NewReader(""), &out, "Apply?") {
		t.Error("empty input should decline")
	}
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("  add a risk table \nmore"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "add a risk table" {
		t.Errorf("got %q", got)
	}

	got, err = readLine(strings.NewReader("no newline"))
	if err != nil || got != "no newline" {
		t.Errorf("got %q, %v", got, err)
	}

	if _, err := readLine(strings.NewReader("")); err == nil {
		t.Error("expected error on empty input")
	}
}

// =============================================================================
// Tests for publishing helpers
// =============================================================================

func TestParseParentID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{" 12345 ", 12345, false},
		{"abc", 0, true},
		{"-4", 0, true},
	}
	for _, tt := range tests {
		got, err := parseParentID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseParentID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseParentID(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestPublishStorage_RendersEverySection(t *testing.T) {
	doc := brd.Parse(sampleBRD)
	html := publishStorage(doc)

	for _, want := range []string{
		"<h3><strong>Executive Summary</strong></h3>",
		"<h3><strong>Scope</strong></h3>",
		"The system replaces manual intake.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("storage missing %q:\n%s", want, html)
		}
	}
	if strings.Index(html, "Executive Summary") > strings.Index(html, "Scope") {
		t.Error("sections out of order")
	}
}

func TestPublishStorage_FallsBackToDescription(t *testing.T) {
	doc := brd.New([]brd.Section{{Title: "Goals", Description: "Ship it"}})
	if html := publishStorage(doc); !strings.Contains(html, "Ship it") {
		t.Errorf("expected description in %q", html)
	}
}

func TestDocumentNameAndTitle(t *testing.T) {
	if got := documentName(""); got != "BRD_Document" {
		t.Errorf("documentName(\"\") = %q", got)
	}
	if got := api.DocxName(documentName("Claims Portal")); got != "Claims_Portal_BRD.docx" {
		t.Errorf("docx name = %q", got)
	}
	if got := pageTitle(""); got != "BRD Document" {
		t.Errorf("pageTitle(\"\") = %q", got)
	}
	if got := pageTitle("Claims Portal"); got != "Claims Portal BRD" {
		t.Errorf("pageTitle = %q", got)
	}
}

// =============================================================================
// Tests for revisions
// =============================================================================

func TestMatchRevision(t *testing.T) {
	revs := []drafts.Revision{
		{Hash: "abc1230000"},
		{Hash: "abc4560000"},
		{Hash: "def7890000"},
	}

	got, err := matchRevision(revs, "DEF")
	if err != nil || got != "def7890000" {
		t.Errorf("got %q, %v", got, err)
	}
	if _, err := matchRevision(revs, "abc"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguous error, got %v", err)
	}
	if _, err := matchRevision(revs, "fff"); err == nil {
		t.Error("expected error for unknown revision")
	}
	if _, err := matchRevision(revs, " "); err == nil {
		t.Error("expected error for empty revision")
	}
}

func TestWriteHistory(t *testing.T) {
	var out bytes.Buffer
	writeHistory(&out, nil)
	if !strings.Contains(out.String(), "No saved revisions") {
		t.Errorf("got %q", out.String())
	}

	out.Reset()
	when := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	writeHistory(&out, []drafts.Revision{{Hash: "0123456789abcdef", Message: "Initial draft", When: when}})
	want := "0123456  2026-03-04 10:30  Initial draft\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

// =============================================================================
// Tests for document state
// =============================================================================

func TestRestoreDocument(t *testing.T) {
	doc := restoreDocument(sampleBRD, state.State{
		Approved: true,
		Reviewed: []string{"Executive Summary"},
		Selected: "Scope",
	})

	if doc.Len() != 2 {
		t.Fatalf("expected 2 sections, got %d", doc.Len())
	}
	if !doc.Approved {
		t.Error("expected approved")
	}
	if !doc.IsCompleted("Executive Summary") || doc.IsCompleted("Scope") {
		t.Errorf("completed = %v", doc.Completed())
	}
	if sec, _, _ := doc.Selected(); sec.Title != "Scope" {
		t.Errorf("selected = %q", sec.Title)
	}
}

func TestRestoreDocument_UnknownSelection(t *testing.T) {
	doc := restoreDocument(sampleBRD, state.State{Selected: "Gone"})
	if _, i, _ := doc.Selected(); i != 0 {
		t.Errorf("selected index = %d, want 0", i)
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.API.BaseURL = "http://127.0.0.1:1"
	cfg.State.Path = filepath.Join(dir, "state.yaml")
	cfg.Drafts.Dir = filepath.Join(dir, "drafts")

	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a
}

func TestApp_WithoutWiki(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.requireWiki(); !errors.Is(err, confluence.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestApp_LoadDocumentWithoutDraft(t *testing.T) {
	a := newTestApp(t)
	doc, err := a.loadDocument()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Empty() {
		t.Error("expected empty document")
	}
	if _, err := a.requireDocument(); err == nil || !strings.Contains(err.Error(), "brdesk upload") {
		t.Errorf("expected upload hint, got %v", err)
	}
}

func TestApp_SaveAndLoadDocument(t *testing.T) {
	a := newTestApp(t)
	doc := brd.Parse(sampleBRD)
	doc.MarkReviewed()
	doc.Approved = true

	if err := a.saveDocument(doc); err != nil {
		t.Fatalf("saveDocument: %v", err)
	}

	loaded, err := a.loadDocument()
	if err != nil {
		t.Fatalf("loadDocument: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 sections, got %d", loaded.Len())
	}
	if !loaded.Approved {
		t.Error("approval was not restored")
	}
	if done, _ := loaded.Progress(); done != 1 {
		t.Errorf("expected 1 reviewed section, got %d", done)
	}
	if sec, _, _ := loaded.Selected(); sec.Title != "Scope" {
		t.Errorf("selected = %q, want Scope", sec.Title)
	}

	hash, err := a.drafts.Save(a.project, "first")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	content, err := a.revision(hash[:7])
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if !strings.Contains(content, "## 2. Scope") {
		t.Errorf("revision content = %q", content)
	}
}

// =============================================================================
// Tests for listings
// =============================================================================

func TestWriteSections(t *testing.T) {
	doc := brd.Parse(sampleBRD)
	doc.MarkReviewed()

	var out bytes.Buffer
	writeSections(&out, doc)
	got := out.String()

	for _, want := range []string{
		"  [✓]  1. Executive Summary",
		"> [ ]  2. Scope",
		"The system replaces manual intake.",
		"1/2 sections reviewed",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "approved") {
		t.Error("draft is not approved")
	}
}

func TestWriteProjects_MarksCurrent(t *testing.T) {
	var out bytes.Buffer
	writeProjects(&out, []api.Project{
		{ID: "p1", Name: "Claims"},
		{ID: "p2", Name: "Billing", JiraProjectKey: "BIL"},
	}, "p2")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[2], "* p2") {
		t.Errorf("current project not marked: %q", lines[2])
	}
	if strings.HasPrefix(lines[1], "*") {
		t.Errorf("other project marked: %q", lines[1])
	}
}

func TestWriteProjects_Empty(t *testing.T) {
	var out bytes.Buffer
	writeProjects(&out, nil, "")
	if !strings.Contains(out.String(), "No projects found") {
		t.Errorf("got %q", out.String())
	}
}

func TestWriteTemplates(t *testing.T) {
	var out bytes.Buffer
	writeTemplates(&out, []api.Template{{ID: "t1", Name: "Standard", CreatedAt: "2026-01-01"}})
	if !strings.Contains(out.String(), "Standard") || !strings.Contains(out.String(), "2026-01-01") {
		t.Errorf("got %q", out.String())
	}
}

func TestWritePages(t *testing.T) {
	var out bytes.Buffer
	writePages(&out, "SO", []confluence.Page{
		{ID: "101", Title: "Claims BRD", Version: &confluence.Version{Number: 3}},
		{ID: "102", Title: "Notes"},
	})
	got := out.String()
	if !strings.Contains(got, "Claims BRD") || !strings.Contains(got, "   3") {
		t.Errorf("got:\n%s", got)
	}
	if !strings.Contains(got, "Unknown") {
		t.Errorf("expected unknown author:\n%s", got)
	}

	out.Reset()
	writePages(&out, "SO", nil)
	if out.String() != "No pages in space SO.\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestWriteIssues(t *testing.T) {
	issues := []jira.View{
		{Key: "CL-1", Title: "Intake form", Type: "Story", Status: "To Do", Priority: jira.PriorityHigh},
	}

	var out bytes.Buffer
	writeIssues(&out, issues, 3)
	got := out.String()
	if !strings.Contains(got, "CL-1") || !strings.Contains(got, "HIG") {
		t.Errorf("got:\n%s", got)
	}
	if !strings.Contains(got, "1 of 3 issues") {
		t.Errorf("expected filtered count:\n%s", got)
	}

	out.Reset()
	writeIssues(&out, nil, 3)
	if !strings.Contains(out.String(), "No issues match the filter") {
		t.Errorf("got %q", out.String())
	}

	out.Reset()
	writeIssues(&out, nil, 0)
	if !strings.Contains(out.String(), "No issues found") {
		t.Errorf("got %q", out.String())
	}
}

func TestIssueJQL(t *testing.T) {
	if got := issueJQL("CL-12"); got != `key = "CL-12"` {
		t.Errorf("got %q", got)
	}
}

// =============================================================================
// Tests for command structure
// =============================================================================

func assertSubcommands(t *testing.T, parent *cobra.Command, names ...string) {
	t.Helper()
	found := make(map[string]bool)
	for _, cmd := range parent.Commands() {
		found[cmd.Name()] = true
	}
	for _, name := range names {
		if !found[name] {
			t.Errorf("expected %s subcommand %q not found", parent.Name(), name)
		}
	}
}

func TestRootCmd_HasExpectedSubcommands(t *testing.T) {
	assertSubcommands(t, rootCmd,
		"chat", "projects", "templates", "upload", "brd", "pages", "issues", "config", "version")
}

func TestRootCmd_HasGlobalFlags(t *testing.T) {
	for _, name := range []string{"api-url", "chat-url", "debug", "log-file"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag on root command", name)
		}
	}
}

func TestBRDCmd_HasSubcommands(t *testing.T) {
	assertSubcommands(t, brdCmd,
		"sections", "review", "download", "publish", "save", "history", "edit", "diff", "show")
}

func TestProjectsCmd_HasSubcommands(t *testing.T) {
	assertSubcommands(t, projectsCmd, "list", "show", "create", "use")
}

func TestPagesCmd_HasSubcommands(t *testing.T) {
	assertSubcommands(t, pagesCmd, "list", "show", "story")
}

func TestIssuesCmd_HasSubcommandsAndFilters(t *testing.T) {
	assertSubcommands(t, issuesCmd, "list", "show")
	for _, name := range []string{"jql", "search", "status", "type", "max"} {
		if issuesListCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag on issues list", name)
		}
	}
}

func TestChatCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"no-stream", "section", "view"} {
		if chatCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag on chat command", name)
		}
	}
	if err := chatCmd.Args(chatCmd, nil); err == nil {
		t.Error("chat should require a message")
	}
}

func TestConfigCmd_HasSubcommands(t *testing.T) {
	assertSubcommands(t, configCmd, "show", "path")
}

// =============================================================================
// Tests for version command
// =============================================================================

func TestVersionCmd_HasCorrectUse(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %q", versionCmd.Use)
	}
}

func TestVersionCmd_DoesNotPanic(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()

	Version = "test-version"
	versionCmd.Run(versionCmd, []string{})
}
