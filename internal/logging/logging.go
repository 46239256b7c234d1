// Package logging provides the debug logger shared by all brdesk packages.
// Output is silent unless debugging is enabled through config or the DEBUG
// environment variable. While the dashboard owns the terminal, output can be
// redirected to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu      sync.Mutex
	enabled = os.Getenv("DEBUG") != ""
	out     io.Writer = os.Stderr
	file    *os.File
)

// Setup configures debug output. An empty path keeps stderr.
func Setup(debug bool, path string) error {
	mu.Lock()
	defer mu.Unlock()

	enabled = debug || os.Getenv("DEBUG") != ""
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if file != nil {
		_ = file.Close()
	}
	file = f
	out = f
	return nil
}

// SetOutput replaces the destination writer. Used by tests.
func SetOutput(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	enabled = debug
}

// Close releases the log file, if one was opened.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	out = os.Stderr
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Enabled reports whether debug output is on.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Debugf writes a debug line prefixed with the component name.
func Debugf(component, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	fmt.Fprintf(out, "[%s DEBUG] "+format+"\n", append([]any{component}, args...)...)
}

// Logger is a component-scoped handle on the shared debug output.
type Logger string

// New returns a logger that prefixes lines with component.
func New(component string) Logger {
	return Logger(component)
}

// Debugf writes a debug line for this component.
func (l Logger) Debugf(format string, args ...any) {
	Debugf(string(l), format, args...)
}
