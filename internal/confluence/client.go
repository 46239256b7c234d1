// Package confluence reads and publishes wiki pages through the Confluence
// REST API and converts between storage HTML and terminal text.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buker/brdesk/internal/logging"
	"github.com/buker/brdesk/internal/stream"
)

var log = logging.New("CONFLUENCE")

// ErrNotConfigured is returned when no Confluence base URL is set.
var ErrNotConfigured = errors.New("confluence is not configured (set confluence.base_url)")

// Page is a page summary as returned by content listings.
type Page struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Status  string   `json:"status"`
	Title   string   `json:"title"`
	Version *Version `json:"version,omitempty"`
	Links   Links    `json:"_links"`
}

// Links holds the relative links of a page.
type Links struct {
	WebUI string `json:"webui"`
	Self  string `json:"self,omitempty"`
}

// Version is the page version block.
type Version struct {
	Number int    `json:"number"`
	When   string `json:"when,omitempty"`
	By     *struct {
		DisplayName string `json:"displayName"`
		Email       string `json:"email,omitempty"`
	} `json:"by,omitempty"`
}

// Author returns the display name of whoever wrote this version.
func (v *Version) Author() string {
	if v == nil || v.By == nil || v.By.DisplayName == "" {
		return "Unknown"
	}
	return v.By.DisplayName
}

// Ancestor is a parent page reference.
type Ancestor struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Body carries a representation of the page content.
type Body struct {
	Storage Storage `json:"storage"`
}

// Storage is content in Confluence storage format.
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// PageDetails is a page with its body, version and ancestors expanded.
type PageDetails struct {
	Page
	Body      Body       `json:"body"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
}

// Breadcrumb joins the ancestor titles with " / ".
func (p *PageDetails) Breadcrumb() string {
	titles := make([]string, 0, len(p.Ancestors))
	for _, a := range p.Ancestors {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	return strings.Join(titles, " / ")
}

type contentList struct {
	Results []Page `json:"results"`
	Size    int    `json:"size"`
}

// Client talks to a Confluence instance.
type Client struct {
	baseURL  string
	user     string
	token    string
	spaceKey string
	limit    int
	http     *http.Client
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	User     string
	Token    string
	SpaceKey string
	Limit    int
	Timeout  time.Duration
}

// NewClient creates a client for the wiki at opts.BaseURL (for example
// https://example.atlassian.net/wiki).
func NewClient(opts Options) *Client {
	if opts.SpaceKey == "" {
		opts.SpaceKey = "SO"
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		user:     opts.User,
		token:    opts.Token,
		spaceKey: opts.SpaceKey,
		limit:    opts.Limit,
		http:     &http.Client{Timeout: opts.Timeout},
	}
}

// SpaceKey returns the space pages are listed from and published to.
func (c *Client) SpaceKey() string {
	return c.spaceKey
}

// WebURL returns the browser URL for a page's webui link.
func (c *Client) WebURL(p Page) string {
	if p.Links.WebUI == "" {
		return ""
	}
	return c.baseURL + p.Links.WebUI
}

// ListPages returns the pages of the configured space.
func (c *Client) ListPages(ctx context.Context) ([]Page, error) {
	q := url.Values{}
	q.Set("spaceKey", c.spaceKey)
	q.Set("type", "page")
	q.Set("limit", strconv.Itoa(c.limit))

	var out contentList
	if err := c.call(ctx, http.MethodGet, "/rest/api/content", q, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch pages: %w", err)
	}
	return out.Results, nil
}

// GetPage returns a page with body, version and ancestors.
func (c *Client) GetPage(ctx context.Context, id string) (*PageDetails, error) {
	q := url.Values{}
	q.Set("expand", "body.storage,version,ancestors")

	var out PageDetails
	if err := c.call(ctx, http.MethodGet, "/rest/api/content/"+url.PathEscape(id), q, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch page details: %w", err)
	}
	return &out, nil
}

// FindByTitle returns the page with the given title in spaceKey, or nil when
// there is none.
func (c *Client) FindByTitle(ctx context.Context, spaceKey, title string) (*Page, error) {
	q := url.Values{}
	q.Set("spaceKey", spaceKey)
	q.Set("title", title)
	q.Set("expand", "version")

	var out contentList
	if err := c.call(ctx, http.MethodGet, "/rest/api/content", q, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch page by title: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	return &out.Results[0], nil
}

type createRequest struct {
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Ancestors []ancestorID `json:"ancestors"`
	Space     struct {
		Key string `json:"key"`
	} `json:"space"`
	Body Body `json:"body"`
}

type ancestorID struct {
	ID int64 `json:"id"`
}

type updateRequest struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body Body `json:"body"`
}

func storageBody(html string) Body {
	return Body{Storage: Storage{Value: html, Representation: "storage"}}
}

// CreatePage creates a page under parentID. A zero parentID creates a
// top-level page.
func (c *Client) CreatePage(ctx context.Context, spaceKey, title, html string, parentID int64) (*Page, error) {
	req := createRequest{Type: "page", Title: title, Ancestors: []ancestorID{}, Body: storageBody(html)}
	req.Space.Key = spaceKey
	if parentID != 0 {
		req.Ancestors = append(req.Ancestors, ancestorID{ID: parentID})
	}

	var out Page
	if err := c.call(ctx, http.MethodPost, "/rest/api/content/", nil, req, &out); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &out, nil
}

// UpdatePage replaces the body of page id and stores it as version.
func (c *Client) UpdatePage(ctx context.Context, id, title, html string, version int) (*Page, error) {
	req := updateRequest{ID: id, Type: "page", Title: title, Body: storageBody(html)}
	req.Version.Number = version

	var out Page
	if err := c.call(ctx, http.MethodPut, "/rest/api/content/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}
	return &out, nil
}

// Publish creates the page, or updates it with the next version number if a
// page with the same title already exists in spaceKey. updated reports which
// one happened.
func (c *Client) Publish(ctx context.Context, spaceKey, title, html string, parentID int64) (page *Page, updated bool, err error) {
	existing, err := c.FindByTitle(ctx, spaceKey, title)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		next := 1
		if existing.Version != nil {
			next = existing.Version.Number + 1
		}
		log.Debugf("updating page %s (%q) to version %d", existing.ID, title, next)
		page, err = c.UpdatePage(ctx, existing.ID, title, html, next)
		return page, true, err
	}
	log.Debugf("creating page %q in space %s", title, spaceKey)
	page, err = c.CreatePage(ctx, spaceKey, title, html, parentID)
	return page, false, err
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" || c.token != "" {
		req.SetBasicAuth(c.user, c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debugf("%s %s failed: %v", method, path, err)
		return err
	}
	defer resp.Body.Close()
	log.Debugf("%s %s -> %d (%v)", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &stream.RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
