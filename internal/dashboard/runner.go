package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/buker/brdesk/internal/jira"
)

// ErrSkipped marks a source that is not configured. It is reported as
// StatusSkipped rather than a failure.
var ErrSkipped = errors.New("source not configured")

// LoadFunc loads one source and returns how many items it produced.
type LoadFunc func(ctx context.Context, source Source) (int, error)

// StatusCallback is invoked when a source's load status changes.
type StatusCallback func(source Source, status Status)

// Runner loads several sources in parallel.
type Runner struct {
	loadFunc       LoadFunc
	statusCallback StatusCallback
}

// NewRunner creates a Runner. statusCallback may be nil.
func NewRunner(loadFunc LoadFunc, statusCallback StatusCallback) *Runner {
	return &Runner{
		loadFunc:       loadFunc,
		statusCallback: statusCallback,
	}
}

// Run loads all sources concurrently, waits for them, and returns results in
// the same order as sources.
func (r *Runner) Run(ctx context.Context, sources []Source) []*Result {
	results := make([]*Result, len(sources))
	var wg sync.WaitGroup

	for i, source := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()

			r.notify(s, StatusRunning)

			start := time.Now()
			count, err := r.loadFunc(ctx, s)
			result := &Result{Source: s, Status: StatusDone, Count: count, Elapsed: time.Since(start)}
			switch {
			case errors.Is(err, ErrSkipped):
				result.Status = StatusSkipped
			case err != nil:
				result.Status = StatusFailed
				result.Error = err.Error()
			}

			results[idx] = result
			r.notify(s, result.Status)
		}(i, source)
	}

	wg.Wait()
	return results
}

func (r *Runner) notify(s Source, status Status) {
	if r.statusCallback != nil {
		r.statusCallback(s, status)
	}
}

// Summary aggregates what the overview tab shows.
type Summary struct {
	Projects     int
	Templates    int
	Pages        int
	Issues       int
	HighPriority int
	Unassigned   int
	Failed       int
}

// Summarize builds the overview statistics from load results and data.
func Summarize(results []*Result, data *Data) Summary {
	var s Summary
	for _, r := range results {
		if r != nil && r.Status == StatusFailed {
			s.Failed++
		}
	}
	if data == nil {
		return s
	}

	s.Projects = len(data.Projects)
	s.Templates = len(data.Templates)
	s.Pages = len(data.Pages)
	s.Issues = len(data.Issues)
	for _, v := range data.Issues {
		if v.Priority == jira.PriorityHigh {
			s.HighPriority++
		}
		if v.Assignee == jira.Unassigned {
			s.Unassigned++
		}
	}
	return s
}
