package jira

import "strings"

// Filter narrows a list of issue views. Empty fields match everything.
type Filter struct {
	Search string // matched against key, title and description
	Status string // compared ignoring case, spaces and dashes
	Type   string // compared ignoring case
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Search == "" && f.Status == "" && f.Type == ""
}

// Match reports whether v passes the filter.
func (f Filter) Match(v View) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(v.Title), term) &&
			!strings.Contains(strings.ToLower(v.Description), term) &&
			!strings.Contains(strings.ToLower(v.Key), term) {
			return false
		}
	}
	if f.Status != "" && normalizeStatus(v.Status) != normalizeStatus(f.Status) {
		return false
	}
	if f.Type != "" && !strings.EqualFold(v.Type, f.Type) {
		return false
	}
	return true
}

// Apply returns the views that pass the filter, in order.
func (f Filter) Apply(views []View) []View {
	if f.IsZero() {
		return views
	}
	out := make([]View, 0, len(views))
	for _, v := range views {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

var statusNormalizer = strings.NewReplacer(" ", "", "-", "")

func normalizeStatus(s string) string {
	return statusNormalizer.Replace(strings.ToLower(s))
}

// Find returns the index of the view with key, or -1.
func Find(views []View, key string) int {
	for i, v := range views {
		if v.Key == key {
			return i
		}
	}
	return -1
}
