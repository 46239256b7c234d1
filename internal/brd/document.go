// Package brd models a Business Requirements Document as an ordered list of
// sections with review progress.
package brd

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	godiffpatch "github.com/sourcegraph/go-diff-patch"
)

const (
	sectionPrefix  = "## "
	maxDescription = 80
	exportSep      = "\n\n---\n\n"
)

// ErrNoSection is returned when a section index or title does not exist.
var ErrNoSection = errors.New("no such section")

var titleRe = regexp.MustCompile(`^##\s*\d*\.?\s*`)

// Section is one "## " section of a BRD.
type Section struct {
	Title       string
	Description string
	Content     string
}

// ParseSections splits Markdown into sections at lines starting with "## ".
// Text before the first section header is ignored. The title drops the
// leading hashes and section number, and the description is the first
// non-heading line, shortened to 80 characters.
func ParseSections(content string) []Section {
	var sections []Section
	var cur *Section
	var body []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(strings.Join(body, "\n"))
		sections = append(sections, *cur)
	}

	for _, raw := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, sectionPrefix) {
			flush()
			cur = &Section{Title: strings.TrimSpace(titleRe.ReplaceAllString(line, ""))}
			body = nil
			continue
		}
		if cur == nil {
			continue
		}
		body = append(body, strings.TrimRight(raw, " \t"))
		if cur.Description == "" && line != "" && !strings.HasPrefix(line, "#") {
			cur.Description = truncate(line, maxDescription)
		}
	}
	flush()
	return sections
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// Document is a BRD under review.
type Document struct {
	Sections []Section
	Approved bool

	completed map[string]bool
	selected  int
}

// New creates a document with the first section selected.
func New(sections []Section) *Document {
	return &Document{Sections: sections, completed: make(map[string]bool)}
}

// Parse creates a document from Markdown.
func Parse(content string) *Document {
	return New(ParseSections(content))
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.Sections)
}

// Empty reports whether the document has no sections.
func (d *Document) Empty() bool {
	return len(d.Sections) == 0
}

// Find returns the index of the section titled title, ignoring case, or -1.
func (d *Document) Find(title string) int {
	for i, s := range d.Sections {
		if strings.EqualFold(s.Title, strings.TrimSpace(title)) {
			return i
		}
	}
	return -1
}

// Lookup resolves ref as a 1-based section number or a title.
func (d *Document) Lookup(ref string) (int, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		if n >= 1 && n <= len(d.Sections) {
			return n - 1, nil
		}
		return -1, fmt.Errorf("%w: %d", ErrNoSection, n)
	}
	if i := d.Find(ref); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrNoSection, ref)
}

// Selected returns the selected section and its index.
func (d *Document) Selected() (Section, int, bool) {
	if d.selected < 0 || d.selected >= len(d.Sections) {
		return Section{}, -1, false
	}
	return d.Sections[d.selected], d.selected, true
}

// Select makes section i the selected one.
func (d *Document) Select(i int) error {
	if i < 0 || i >= len(d.Sections) {
		return fmt.Errorf("%w: index %d", ErrNoSection, i)
	}
	d.selected = i
	return nil
}

// MarkReviewed completes the selected section and advances to the next one.
// It reports whether the selection moved.
func (d *Document) MarkReviewed() bool {
	sec, i, ok := d.Selected()
	if !ok {
		return false
	}
	if d.completed == nil {
		d.completed = make(map[string]bool)
	}
	d.completed[sec.Title] = true
	if i < len(d.Sections)-1 {
		d.selected = i + 1
		return true
	}
	return false
}

// SetCompleted restores review progress, for example from saved state.
func (d *Document) SetCompleted(titles []string) {
	d.completed = make(map[string]bool, len(titles))
	for _, t := range titles {
		d.completed[t] = true
	}
}

// IsCompleted reports whether the section titled title has been reviewed.
func (d *Document) IsCompleted(title string) bool {
	return d.completed[title]
}

// Completed returns the reviewed section titles in document order.
func (d *Document) Completed() []string {
	var out []string
	for _, s := range d.Sections {
		if d.completed[s.Title] {
			out = append(out, s.Title)
		}
	}
	return out
}

// Progress returns how many sections are reviewed out of the total.
func (d *Document) Progress() (done, total int) {
	return len(d.Completed()), len(d.Sections)
}

// Context returns the text sent with a chat request about section i: its
// content, or the description when the content is empty.
func (d *Document) Context(i int) string {
	if i < 0 || i >= len(d.Sections) {
		return ""
	}
	if s := d.Sections[i]; s.Content != "" {
		return s.Content
	}
	return d.Sections[i].Description
}

// Text is the plain export used for document download.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		parts = append(parts, s.Title+"\n\n"+s.Description+"\n\n"+s.Content)
	}
	return strings.Join(parts, exportSep)
}

// Markdown renders the document back to numbered "## " sections.
func (d *Document) Markdown() string {
	var b strings.Builder
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %d. %s\n\n%s", i+1, s.Title, s.Content)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// Edit is a proposed replacement of one section's content.
type Edit struct {
	Index int
	Title string
	Old   string
	New   string
	Diff  string
}

// Empty reports whether the edit changes nothing.
func (e Edit) Empty() bool {
	return e.Old == e.New
}

// ProposeEdit builds the edit that replaces section i's content with reply,
// including a unified diff of the change.
func (d *Document) ProposeEdit(i int, reply string) (Edit, error) {
	if i < 0 || i >= len(d.Sections) {
		return Edit{}, fmt.Errorf("%w: index %d", ErrNoSection, i)
	}
	s := d.Sections[i]
	next := strings.TrimSpace(reply)
	e := Edit{Index: i, Title: s.Title, Old: s.Content, New: next}
	if !e.Empty() {
		e.Diff = godiffpatch.GeneratePatch(fileName(s.Title), s.Content+"\n", next+"\n")
	}
	return e, nil
}

// Apply stores e in the document. The description is recomputed from the
// new content.
func (d *Document) Apply(e Edit) error {
	if e.Index < 0 || e.Index >= len(d.Sections) {
		return fmt.Errorf("%w: index %d", ErrNoSection, e.Index)
	}
	s := &d.Sections[e.Index]
	s.Content = e.New
	s.Description = ""
	for _, line := range strings.Split(e.New, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			s.Description = truncate(line, maxDescription)
			break
		}
	}
	return nil
}

// ApplyEdit replaces section i's content with reply and returns the diff.
func (d *Document) ApplyEdit(i int, reply string) (string, error) {
	e, err := d.ProposeEdit(i, reply)
	if err != nil {
		return "", err
	}
	if err := d.Apply(e); err != nil {
		return "", err
	}
	return e.Diff, nil
}

func fileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, title)
	if name == "" {
		name = "section"
	}
	return name + ".md"
}
