package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugf_Disabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, false)
	t.Cleanup(func() { SetOutput(os.Stderr, false) })

	Debugf("STREAM", "skipped %d", 1)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestDebugf_Enabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, true)
	t.Cleanup(func() { SetOutput(os.Stderr, false) })

	New("API").Debugf("GET %s -> %d", "/projects/", 200)
	want := "[API DEBUG] GET /projects/ -> 200\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestSetup_WritesToFile(t *testing.T) {
	t.Setenv("DEBUG", "")
	path := filepath.Join(t.TempDir(), "logs", "brdesk.log")

	if err := Setup(true, path); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	Debugf("TUI", "hello")
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	SetOutput(os.Stderr, false)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "[TUI DEBUG] hello") {
		t.Errorf("log file missing line, got %q", string(data))
	}
}
