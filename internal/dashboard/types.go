// Package dashboard loads the data behind the dashboard tabs. Sources are
// fetched in parallel and each reports its own status.
package dashboard

import "time"

// Source is one thing the dashboard loads at startup.
type Source string

const (
	SourceProjects  Source = "projects"
	SourceTemplates Source = "templates"
	SourcePages     Source = "pages"
	SourceIssues    Source = "issues"
)

// AllSources returns every source in display order.
func AllSources() []Source {
	return []Source{
		SourceProjects,
		SourceTemplates,
		SourcePages,
		SourceIssues,
	}
}

// SourceInfo contains display information for a source.
type SourceInfo struct {
	Name        string
	Description string
}

// GetSourceInfo returns display information for a source.
func GetSourceInfo(source Source) SourceInfo {
	info := map[Source]SourceInfo{
		SourceProjects: {
			Name:        "Projects",
			Description: "BRD projects from the backend",
		},
		SourceTemplates: {
			Name:        "Templates",
			Description: "Available BRD templates",
		},
		SourcePages: {
			Name:        "Wiki pages",
			Description: "Pages in the Confluence space",
		},
		SourceIssues: {
			Name:        "Jira issues",
			Description: "Issues matching the configured JQL",
		},
	}
	return info[source]
}

// Status is the load state of a source.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusFailed || s == StatusSkipped
}

// Result is the outcome of loading one source.
type Result struct {
	Source  Source
	Status  Status
	Count   int
	Error   string
	Elapsed time.Duration
}
