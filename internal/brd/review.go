package brd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ReviewStats tracks the results of an interactive review session.
type ReviewStats struct {
	// Reviewed is the count of sections marked reviewed
	Reviewed int
	// Edited is the count of AI edits applied
	Edited int
	// Skipped is the count of sections passed over
	Skipped int
}

// EditFunc asks the assistant to change section content according to request
// and returns the complete new content.
type EditFunc func(ctx context.Context, sec Section, request string) (string, error)

// Reviewer drives the section review loop. For each section the user can mark
// it reviewed (y), request an edit (e), move on (n) or stop (s). Edits are
// shown as a diff and only stored after confirmation.
type Reviewer struct {
	reader *bufio.Reader
	writer io.Writer
	edit   EditFunc
}

// NewReviewer creates a Reviewer. edit may be nil to disable edits.
func NewReviewer(reader io.Reader, writer io.Writer, edit EditFunc) *Reviewer {
	return &Reviewer{
		reader: bufio.NewReader(reader),
		writer: writer,
		edit:   edit,
	}
}

// Run reviews doc starting at the selected section and stops after the last
// section, on "s", or when input ends.
func (r *Reviewer) Run(ctx context.Context, doc *Document) ReviewStats {
	var stats ReviewStats
	if doc.Empty() {
		return stats
	}

	// Write errors are ignored; the loop keeps reading input
	_, _ = fmt.Fprintln(r.writer, strings.Repeat("-", 40))
	_, _ = fmt.Fprintln(r.writer, "REVIEW BRD")
	_, _ = fmt.Fprintln(r.writer, strings.Repeat("-", 40))

	for {
		if ctx.Err() != nil {
			break
		}
		sec, i, ok := doc.Selected()
		if !ok {
			break
		}
		r.showSection(doc, sec, i)

		last := i == doc.Len()-1
		switch r.prompt("\nMark reviewed? [y]es / [e]dit / [n]ext / [s]top: ") {
		case "y", "yes", "":
			doc.MarkReviewed()
			_, _ = fmt.Fprintln(r.writer, "  ✓ Reviewed")
			stats.Reviewed++
		case "e", "edit":
			if r.editSection(ctx, doc, sec, i) {
				stats.Edited++
			}
			continue
		case "n", "next":
			_, _ = fmt.Fprintln(r.writer, "  - Skipped")
			stats.Skipped++
			if !last {
				_ = doc.Select(i + 1)
			}
		case "s", "stop", eofAnswer:
			_, _ = fmt.Fprintln(r.writer, "  - Stopping review")
			r.summary(doc, stats)
			return stats
		default:
			_, _ = fmt.Fprintln(r.writer, "  - Unknown choice")
			continue
		}
		if last {
			break
		}
	}

	r.summary(doc, stats)
	return stats
}

func (r *Reviewer) showSection(doc *Document, sec Section, i int) {
	mark := " "
	if doc.IsCompleted(sec.Title) {
		mark = "✓"
	}
	_, _ = fmt.Fprintf(r.writer, "\n[%s] Section %d/%d: %s\n", mark, i+1, doc.Len(), sec.Title)
	if sec.Content != "" {
		for _, line := range strings.Split(sec.Content, "\n") {
			_, _ = fmt.Fprintf(r.writer, "  %s\n", line)
		}
	}
}

// editSection returns true when an edit was applied.
func (r *Reviewer) editSection(ctx context.Context, doc *Document, sec Section, i int) bool {
	if r.edit == nil {
		_, _ = fmt.Fprintln(r.writer, "  ⚠ Editing is not available")
		return false
	}
	request := r.readLine("Describe the change: ")
	if request == "" || request == eofAnswer {
		_, _ = fmt.Fprintln(r.writer, "  - No change requested")
		return false
	}

	reply, err := r.edit(ctx, sec, request)
	if err != nil {
		_, _ = fmt.Fprintf(r.writer, "  ✗ Failed: %v\n", err)
		return false
	}
	e, err := doc.ProposeEdit(i, reply)
	if err != nil {
		_, _ = fmt.Fprintf(r.writer, "  ✗ Failed: %v\n", err)
		return false
	}
	if e.Empty() {
		_, _ = fmt.Fprintln(r.writer, "  - Reply did not change the section")
		return false
	}

	_, _ = fmt.Fprintln(r.writer)
	_, _ = fmt.Fprint(r.writer, e.Diff)

	switch r.prompt("\nApply this change? [y]es / [n]o: ") {
	case "y", "yes", "":
		if err := doc.Apply(e); err != nil {
			_, _ = fmt.Fprintf(r.writer, "  ✗ Failed: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(r.writer, "  ✓ Applied")
		return true
	default:
		_, _ = fmt.Fprintln(r.writer, "  - Discarded")
		return false
	}
}

func (r *Reviewer) summary(doc *Document, stats ReviewStats) {
	done, total := doc.Progress()
	_, _ = fmt.Fprintln(r.writer)
	_, _ = fmt.Fprintf(r.writer, "Reviewed %d section(s), applied %d edit(s), skipped %d. Progress %d/%d\n",
		stats.Reviewed, stats.Edited, stats.Skipped, done, total)
}

// eofAnswer is returned by prompt when input is exhausted.
const eofAnswer = "\x04"

// prompt asks a multiple-choice question and returns the lowercased answer.
func (r *Reviewer) prompt(question string) string {
	return strings.ToLower(r.readLine(question))
}

func (r *Reviewer) readLine(question string) string {
	_, _ = fmt.Fprint(r.writer, question)
	input, err := r.reader.ReadString('\n')
	if err != nil && input == "" {
		return eofAnswer
	}
	return strings.TrimSpace(input)
}
