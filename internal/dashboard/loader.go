package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/buker/brdesk/internal/api"
	"github.com/buker/brdesk/internal/confluence"
	"github.com/buker/brdesk/internal/jira"
	"github.com/buker/brdesk/internal/logging"
)

var log = logging.New("DASHBOARD")

// Backend is the part of the BRD service the dashboard reads.
type Backend interface {
	ListProjects(ctx context.Context) ([]api.Project, error)
	ListTemplates(ctx context.Context) ([]api.Template, error)
	SearchIssues(ctx context.Context, jql string, maxResults int) (*jira.SearchResult, error)
}

// Wiki lists pages of the configured space.
type Wiki interface {
	ListPages(ctx context.Context) ([]confluence.Page, error)
}

// Data is everything the dashboard tabs display.
type Data struct {
	Projects  []api.Project
	Templates []api.Template
	Pages     []confluence.Page
	Issues    []jira.View
}

// Loader fetches dashboard data.
type Loader struct {
	backend    Backend
	wiki       Wiki
	jql        string
	maxResults int
}

// NewLoader creates a loader. wiki may be nil when no wiki is configured.
func NewLoader(backend Backend, wiki Wiki, jql string, maxResults int) *Loader {
	return &Loader{backend: backend, wiki: wiki, jql: jql, maxResults: maxResults}
}

// Load fetches sources in parallel. The returned data holds whatever loaded
// successfully; failures are reported in the results.
func (l *Loader) Load(ctx context.Context, sources []Source, cb StatusCallback) (*Data, []*Result) {
	var mu sync.Mutex
	data := &Data{}

	runner := NewRunner(func(ctx context.Context, s Source) (int, error) {
		switch s {
		case SourceProjects:
			projects, err := l.backend.ListProjects(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			data.Projects = projects
			mu.Unlock()
			return len(projects), nil

		case SourceTemplates:
			templates, err := l.backend.ListTemplates(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			data.Templates = templates
			mu.Unlock()
			return len(templates), nil

		case SourcePages:
			if l.wiki == nil {
				return 0, ErrSkipped
			}
			pages, err := l.wiki.ListPages(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			data.Pages = pages
			mu.Unlock()
			return len(pages), nil

		case SourceIssues:
			result, err := l.backend.SearchIssues(ctx, l.jql, l.maxResults)
			if err != nil {
				return 0, err
			}
			views := jira.ToViews(result)
			mu.Lock()
			data.Issues = views
			mu.Unlock()
			return len(views), nil

		default:
			return 0, fmt.Errorf("unknown source %q", s)
		}
	}, cb)

	results := runner.Run(ctx, sources)
	for _, r := range results {
		log.Debugf("%s: %s (%d items, %v) %s", r.Source, r.Status, r.Count, r.Elapsed, r.Error)
	}
	return data, results
}
