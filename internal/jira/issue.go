// Package jira holds issue tracker types and the mapping from raw search
// results to the flattened view shown on the dashboard.
package jira

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Field names requested from the search endpoint.
var SearchFields = []string{
	"summary",
	"issuetype",
	"priority",
	"status",
	"assignee",
	"reporter",
	"customfield_10016",
	"created",
	"updated",
	"description",
	"sprint",
	"labels",
}

// Display defaults for missing fields.
const (
	NoDescription = "No description provided"
	Unassigned    = "Unassigned"
	UnknownUser   = "Unknown"
	NoSprint      = "No sprint"
	NoPoints      = "0"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// Issue is one issue as returned by the search endpoint.
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Self   string `json:"self"`
	Fields Fields `json:"fields"`
}

// Fields holds the requested issue fields.
type Fields struct {
	Summary     string          `json:"summary"`
	IssueType   *Named          `json:"issuetype"`
	Priority    *Named          `json:"priority"`
	Status      *Named          `json:"status"`
	Assignee    *User           `json:"assignee"`
	Reporter    *User           `json:"reporter"`
	StoryPoints *float64        `json:"customfield_10016"`
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
	Description json.RawMessage `json:"description"`
	Sprint      *Named          `json:"sprint"`
	Labels      []string        `json:"labels"`
}

// Named is any field carrying a display name.
type Named struct {
	Name string `json:"name"`
}

// User is an assignee or reporter.
type User struct {
	DisplayName string `json:"displayName"`
}

// SearchResult is the search endpoint response.
type SearchResult struct {
	Issues []Issue `json:"issues"`
	Total  int     `json:"total"`
}

// StoryResult is returned when a story is created from a wiki page.
type StoryResult struct {
	IssueKey string `json:"issue_key"`
	Message  string `json:"message"`
}

// View is the flattened issue shown in lists and detail panes.
type View struct {
	Key         string
	Title       string
	Type        string
	Priority    string
	Status      string
	Assignee    string
	Reporter    string
	Points      string
	Created     string
	Updated     string
	Description string
	Sprint      string
	Labels      []string
	URL         string
}

// ToView flattens an issue, filling display defaults.
func ToView(issue Issue) View {
	f := issue.Fields
	v := View{
		Key:         issue.Key,
		Title:       f.Summary,
		Type:        name(f.IssueType),
		Priority:    PriorityLevel(name(f.Priority)),
		Status:      name(f.Status),
		Assignee:    Unassigned,
		Reporter:    UnknownUser,
		Points:      NoPoints,
		Created:     FormatDate(f.Created),
		Updated:     FormatDate(f.Updated),
		Description: DescriptionText(f.Description),
		Sprint:      NoSprint,
		Labels:      f.Labels,
		URL:         BrowseURL(issue.Self, issue.Key),
	}
	if f.Assignee != nil && f.Assignee.DisplayName != "" {
		v.Assignee = f.Assignee.DisplayName
	}
	if f.Reporter != nil && f.Reporter.DisplayName != "" {
		v.Reporter = f.Reporter.DisplayName
	}
	if f.StoryPoints != nil && *f.StoryPoints != 0 {
		v.Points = strconv.FormatFloat(*f.StoryPoints, 'f', -1, 64)
	}
	if f.Sprint != nil && f.Sprint.Name != "" {
		v.Sprint = f.Sprint.Name
	}
	if v.Labels == nil {
		v.Labels = []string{}
	}
	return v
}

// ToViews flattens a search result.
func ToViews(result *SearchResult) []View {
	if result == nil {
		return nil
	}
	views := make([]View, 0, len(result.Issues))
	for _, issue := range result.Issues {
		views = append(views, ToView(issue))
	}
	return views
}

func name(n *Named) string {
	if n == nil {
		return ""
	}
	return n.Name
}

// PriorityLevel buckets a priority name into high or medium.
func PriorityLevel(priority string) string {
	p := strings.ToLower(priority)
	if strings.Contains(p, "high") || strings.Contains(p, "critical") || strings.Contains(p, "blocker") {
		return PriorityHigh
	}
	return PriorityMedium
}

// BrowseURL derives the human-facing issue link from the API self link.
func BrowseURL(self, key string) string {
	base, _, _ := strings.Cut(self, "/rest/api")
	if base == "" {
		return "#"
	}
	return base + "/browse/" + key
}

// FormatDate renders a Jira timestamp as "Jan 2, 03:04 PM". Unparseable
// values are returned unchanged.
func FormatDate(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2, 03:04 PM")
		}
	}
	return value
}

// adfNode is a node of an Atlassian Document Format tree.
type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

// DescriptionText extracts readable text from a description that is either a
// plain string or an ADF document.
func DescriptionText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return NoDescription
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return NoDescription
		}
		return s
	}

	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" || doc.Content == nil {
		return NoDescription
	}
	var texts []string
	var walk func(n adfNode)
	walk = func(n adfNode) {
		if n.Type == "text" && n.Text != "" {
			texts = append(texts, n.Text)
			return
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	for _, child := range doc.Content {
		walk(child)
	}
	if len(texts) == 0 {
		return NoDescription
	}
	return strings.Join(texts, " ")
}
