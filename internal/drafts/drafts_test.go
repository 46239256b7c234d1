package drafts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "drafts"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

// =============================================================================
// Open and file names
// =============================================================================

func TestOpen_CreatesRepository(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "drafts")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Errorf("expected .git directory: %v", err)
	}
	if !filepath.IsAbs(s.Root()) {
		t.Errorf("Root() = %q, want absolute path", s.Root())
	}

	// reopening uses the existing repository
	if _, err := Open(dir); err != nil {
		t.Errorf("reopen failed: %v", err)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"Payments":          "Payments.md",
		"Payment Gateway":   "Payment_Gateway.md",
		"../../etc/passwd":  "__etc_passwd.md",
		"":                  "draft.md",
		"Ünïcode & symbols": "ncode__symbols.md",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

// =============================================================================
// Save, Diff, History
// =============================================================================

func TestSaveAndHistory(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Read("Payments"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("Read() err = %v, want ErrNoDraft", err)
	}
	if revs, err := s.History("Payments", 0); err != nil || len(revs) != 0 {
		t.Fatalf("History() on empty repo = %v, %v", revs, err)
	}

	if err := s.Write("Payments", "## 1. Scope\n\nCards\n"); err != nil {
		t.Fatal(err)
	}
	first, err := s.Save("Payments", "")
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if _, err := s.Save("Payments", "again"); !errors.Is(err, ErrNoChanges) {
		t.Errorf("second Save() err = %v, want ErrNoChanges", err)
	}

	if err := s.Write("Payments", "## 1. Scope\n\nCards and wallets\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("Payments", "Add wallets"); err != nil {
		t.Fatal(err)
	}

	revs, err := s.History("Payments", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revs))
	}
	if revs[0].Message != "Add wallets" || revs[1].Message != "Update Payments BRD" {
		t.Errorf("messages = %q, %q", revs[0].Message, revs[1].Message)
	}
	if revs[1].Hash != first || len(revs[1].Short()) != 7 {
		t.Errorf("revision = %+v", revs[1])
	}

	old, err := s.At("Payments", first)
	if err != nil || !strings.Contains(old, "Cards\n") {
		t.Errorf("At() = %q, %v", old, err)
	}

	limited, _ := s.History("Payments", 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestHistory_PerProject(t *testing.T) {
	s := openTestStore(t)
	for _, p := range []string{"A", "B"} {
		if err := s.Write(p, p+"\n"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Save(p, "save "+p); err != nil {
			t.Fatal(err)
		}
	}
	revs, err := s.History("A", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 || revs[0].Message != "save A" {
		t.Errorf("history(A) = %+v", revs)
	}
}

func TestDiff(t *testing.T) {
	s := openTestStore(t)
	if err := s.Write("P", "line one\nline two\n"); err != nil {
		t.Fatal(err)
	}

	diff, err := s.Diff("P")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(diff, "new file mode") || !strings.Contains(diff, "+line one") {
		t.Errorf("unsaved diff:\n%s", diff)
	}

	if _, err := s.Save("P", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Diff("P"); !errors.Is(err, ErrNoChanges) {
		t.Errorf("Diff() after save err = %v, want ErrNoChanges", err)
	}

	if err := s.Write("P", "line one\nline 2\n"); err != nil {
		t.Fatal(err)
	}
	diff, err = s.Diff("P")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(diff, "--- a/P.md") || !strings.Contains(diff, "-line two") || !strings.Contains(diff, "+line 2") {
		t.Errorf("modified diff:\n%s", diff)
	}
}

func TestSave_NoDraft(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Save("missing", ""); !errors.Is(err, ErrNoDraft) {
		t.Errorf("err = %v, want ErrNoDraft", err)
	}
}
