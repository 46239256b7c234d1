package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// SpanKind identifies the formatting of an inline span.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanBold
	SpanItalic
	SpanCode
	SpanLink
)

// Span is one run of inline text.
type Span struct {
	Kind SpanKind
	Text string
	URL  string // links only
}

// placeholders are NUL-delimited indexes, a byte sequence that never survives
// input sanitising.
const placeholderMark = "\x00"

var (
	codeRe        = regexp.MustCompile("`([^`]+)`")
	boldRe        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe      = regexp.MustCompile(`\*(.+?)\*`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	placeholderRe = regexp.MustCompile("\x00(\\d+)\x00")
)

// Spans converts one line of text into inline spans. Passes run in a fixed
// order (code, bold, italic, link) and each replaces its matches with an
// opaque placeholder, so text captured by an earlier pass is not re-parsed.
func Spans(text string) []Span {
	text = strings.ReplaceAll(text, placeholderMark, "")
	var extracted []Span

	extract := func(re *regexp.Regexp, kind SpanKind) {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			m := re.FindStringSubmatch(match)
			span := Span{Kind: kind, Text: restore(m[1], extracted)}
			if kind == SpanLink {
				span.URL = restore(m[2], extracted)
			}
			extracted = append(extracted, span)
			return placeholderMark + strconv.Itoa(len(extracted)-1) + placeholderMark
		})
	}
	extract(codeRe, SpanCode)
	extract(boldRe, SpanBold)
	extract(italicRe, SpanItalic)
	extract(linkRe, SpanLink)

	var spans []Span
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Kind: SpanPlain, Text: text[last:loc[0]]})
		}
		idx, _ := strconv.Atoi(text[loc[2]:loc[3]])
		spans = append(spans, extracted[idx])
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Kind: SpanPlain, Text: text[last:]})
	}
	return spans
}

// restore replaces placeholders inside captured text with the text they stand for.
func restore(s string, extracted []Span) string {
	if !strings.Contains(s, placeholderMark) {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		idx, err := strconv.Atoi(strings.Trim(match, placeholderMark))
		if err != nil || idx >= len(extracted) {
			return ""
		}
		return extracted[idx].Text
	})
}

// SpanText joins the text of spans, dropping formatting.
func SpanText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
