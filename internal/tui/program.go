package tui

import (
	"context"

	"github.com/buker/brdesk/internal/dashboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Program wraps a Bubble Tea program so data can be loaded in the
// background while the dashboard runs.
type Program struct {
	program *tea.Program
	model   *Model
	loader  *dashboard.Loader
}

// NewProgram creates a program for model. loader may be nil, in which case
// the dashboard starts without data.
func NewProgram(model *Model, loader *dashboard.Loader, opts ...tea.ProgramOption) *Program {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &Program{
		program: tea.NewProgram(model, opts...),
		model:   model,
		loader:  loader,
	}
}

// Start runs the TUI program and blocks until it exits.
func (p *Program) Start() error {
	_, err := p.program.Run()
	return err
}

// Send dispatches a message to the TUI for processing.
// This is thread-safe and can be called from any goroutine.
func (p *Program) Send(msg tea.Msg) {
	p.program.Send(msg)
}

// Quit quits the TUI
func (p *Program) Quit() {
	p.Send(MsgQuit{})
}

// Load fetches every dashboard source in parallel, reporting status changes
// as they happen, then delivers the data.
func (p *Program) Load(ctx context.Context) {
	if p.loader == nil {
		return
	}
	data, results := p.loader.Load(ctx, dashboard.AllSources(), func(s dashboard.Source, status dashboard.Status) {
		p.Send(MsgSourceStatus{Source: s, Status: status})
	})
	p.Send(MsgDataLoaded{Data: data, Results: results})
}

// Run starts the TUI and the initial load, and returns when the TUI exits.
// Requests started from the TUI use ctx.
func (p *Program) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.model.SetContext(ctx)
	p.model.SetReload(func() { go p.Load(ctx) })

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Start()
	}()
	go p.Load(ctx)

	return <-errCh
}
