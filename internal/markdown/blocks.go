// Package markdown parses the markdown subset used in chat replies and BRD
// sections into blocks and inline spans, and renders them for the terminal.
//
// Parsing never fails. Malformed input degrades to best-effort blocks.
package markdown

import (
	"regexp"
	"strings"
)

// BlockKind identifies the type of a parsed block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindBullet
	KindNumbered
	KindCode
	KindTable
)

// String returns the block kind name.
func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindBullet:
		return "bullet"
	case KindNumbered:
		return "numbered"
	case KindCode:
		return "code"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Block is one structural unit of a document.
type Block struct {
	Kind     BlockKind
	Text     string     // paragraph, heading and list item text; raw code for code blocks
	Level    int        // heading level 1-6
	Index    string     // literal number label of a numbered item
	Language string     // info string after the opening fence
	Header   []string   // table header cells
	Rows     [][]string // table data rows
}

// Spans returns the inline spans of a text block. Code blocks and tables have none.
func (b Block) Spans() []Span {
	switch b.Kind {
	case KindCode, KindTable:
		return nil
	default:
		return Spans(b.Text)
	}
}

const (
	fence        = "```"
	cellSep      = "|"
	minTableSeps = 2
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	bulletRe   = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`)
)

type mode int

const (
	modeNone mode = iota
	modeParagraph
	modeCode
	modeTable
)

// parser holds the single accumulation in progress.
type parser struct {
	blocks []Block
	mode   mode
	buf    []string
	lang   string
}

// Parse splits text into blocks with one forward pass over its lines.
func Parse(text string) []Block {
	p := &parser{}
	for _, line := range strings.Split(text, "\n") {
		p.line(strings.TrimSuffix(line, "\r"))
	}
	if p.mode == modeCode {
		// unclosed fence keeps its content
		p.emitCode()
	}
	p.flush()
	return p.blocks
}

func (p *parser) line(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, fence) {
		if p.mode == modeCode {
			p.emitCode()
			return
		}
		p.flush()
		p.mode = modeCode
		p.lang = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
		return
	}
	if p.mode == modeCode {
		p.buf = append(p.buf, line)
		return
	}

	heading := headingRe.FindStringSubmatch(line)

	if isTableRow(trimmed) && (p.mode == modeTable || heading == nil) {
		if p.mode != modeTable {
			p.flush()
			p.mode = modeTable
		}
		p.buf = append(p.buf, trimmed)
		return
	}
	if p.mode == modeTable {
		p.flush()
		if trimmed == "" {
			return
		}
	}

	if heading != nil {
		p.flush()
		p.blocks = append(p.blocks, Block{
			Kind:  KindHeading,
			Level: len(heading[1]),
			Text:  strings.TrimSpace(heading[2]),
		})
		return
	}
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		p.flush()
		p.blocks = append(p.blocks, Block{Kind: KindBullet, Text: strings.TrimSpace(m[1])})
		return
	}
	if m := numberedRe.FindStringSubmatch(line); m != nil {
		p.flush()
		p.blocks = append(p.blocks, Block{Kind: KindNumbered, Index: m[1], Text: strings.TrimSpace(m[2])})
		return
	}
	if trimmed == "" {
		p.flush()
		return
	}

	p.mode = modeParagraph
	p.buf = append(p.buf, trimmed)
}

// flush emits the open paragraph or table accumulation.
func (p *parser) flush() {
	switch p.mode {
	case modeParagraph:
		p.blocks = append(p.blocks, Block{Kind: KindParagraph, Text: strings.Join(p.buf, " ")})
	case modeTable:
		p.blocks = append(p.blocks, tableBlock(p.buf))
	}
	p.mode = modeNone
	p.buf = nil
}

func (p *parser) emitCode() {
	p.blocks = append(p.blocks, Block{
		Kind:     KindCode,
		Text:     strings.Join(p.buf, "\n"),
		Language: p.lang,
	})
	p.mode = modeNone
	p.buf = nil
	p.lang = ""
}

func isTableRow(trimmed string) bool {
	return strings.Count(trimmed, cellSep) >= minTableSeps
}

// tableBlock builds a table from raw rows. Row 1 is the header and row 2 the
// alignment separator, which is dropped.
func tableBlock(rows []string) Block {
	b := Block{Kind: KindTable}
	if len(rows) == 0 {
		return b
	}
	b.Header = SplitRow(rows[0])
	if len(rows) > 2 {
		for _, row := range rows[2:] {
			b.Rows = append(b.Rows, SplitRow(row))
		}
	}
	return b
}

// SplitRow splits a pipe-delimited row into trimmed cells, dropping the empty
// cells produced by leading and trailing pipes. Interior empty cells are kept.
func SplitRow(row string) []string {
	parts := strings.Split(row, cellSep)
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
