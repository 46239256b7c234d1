package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/buker/brdesk/internal/jira"
)

// DefaultJQL is used when no query is given.
const DefaultJQL = "order by created DESC"

// SearchIssues runs a JQL search through the backend's Jira bridge.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) (*jira.SearchResult, error) {
	if strings.TrimSpace(jql) == "" {
		jql = DefaultJQL
	}
	if maxResults <= 0 {
		maxResults = 50
	}
	query := url.Values{}
	query.Set("jql", jql)
	query.Set("maxResults", strconv.Itoa(maxResults))
	query.Set("fields", strings.Join(jira.SearchFields, ","))

	var result jira.SearchResult
	if err := c.getJSON(ctx, "/confluence-jira/search/jql", query, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch Jira issues: %w", err)
	}
	return &result, nil
}

// CreateStoryFromPage asks the backend to create a Jira story from a wiki page.
// The endpoint is a GET with side effects, so it is not retried.
func (c *Client) CreateStoryFromPage(ctx context.Context, pageID string) (*jira.StoryResult, error) {
	req, err := newGet(ctx, c.endpoint("/confluence-jira/jira_story/"+url.PathEscape(pageID), nil))
	if err != nil {
		return nil, err
	}
	var out jira.StoryResult
	if err := classify(c.doJSON(req, &out)); err != nil {
		return nil, fmt.Errorf("failed to create Jira story: %w", err)
	}
	return &out, nil
}
