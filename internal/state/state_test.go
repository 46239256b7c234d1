package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buker/brdesk/internal/chat"
)

var _ chat.SessionStore = (*File)(nil)

func TestLoad_MissingFile(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "state.yaml"))
	s, err := f.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.SessionID != "" || s.Approved {
		t.Errorf("expected zero state, got %+v", s)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	f := NewFile(path)

	want := State{
		SessionID: "s1",
		ProjectID: "p1",
		Project:   "Payments",
		Template:  "Standard",
		Approved:  true,
		Reviewed:  []string{"Scope", "Risks"},
	}
	if err := f.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "session_id: s1") {
		t.Errorf("unexpected YAML:\n%s", data)
	}

	got, err := NewFile(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.SessionID != want.SessionID || got.Project != want.Project || !got.Approved || len(got.Reviewed) != 2 {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSession(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "state.yaml"))
	if err := f.Update(func(s *State) { s.Project = "Payments" }); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveSession("abc"); err != nil {
		t.Fatal(err)
	}

	id, err := f.LoadSession()
	if err != nil || id != "abc" {
		t.Errorf("LoadSession() = %q, %v", id, err)
	}
	s, _ := f.Load()
	if s.Project != "Payments" {
		t.Error("SaveSession must keep other fields")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("session_id: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestChatSessionRoundTrip(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "state.yaml"))
	sess := chat.NewSession(f)
	if err := sess.Update("server-id"); err != nil {
		t.Fatal(err)
	}
	if got := chat.NewSession(f).ID(); got != "server-id" {
		t.Errorf("reloaded session = %q", got)
	}
}
