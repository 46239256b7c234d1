package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/buker/brdesk/internal/logging"
)

const (
	minCodeWidth = 30
	codeTheme    = "monokai"
	bulletMark   = "•"
)

var log = logging.New("MARKDOWN")

// Theme holds the colours a Renderer uses. Unset colours render plain.
type Theme struct {
	Accent         lipgloss.TerminalColor // headings, links, bullets
	Border         lipgloss.TerminalColor // code boxes, table rules
	Code           lipgloss.TerminalColor
	CodeBackground lipgloss.TerminalColor
}

func orNone(c lipgloss.TerminalColor) lipgloss.TerminalColor {
	if c == nil {
		return lipgloss.NoColor{}
	}
	return c
}

// Renderer turns blocks into styled terminal text.
type Renderer struct {
	width     int
	formatter chroma.Formatter

	headingStyle lipgloss.Style
	codeBoxStyle lipgloss.Style
	inlineCode   lipgloss.Style
	boldStyle    lipgloss.Style
	italicStyle  lipgloss.Style
	linkStyle    lipgloss.Style
	bulletStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	headerCell   lipgloss.Style
	ruleStyle    lipgloss.Style
}

// NewRenderer returns a renderer that wraps output to width columns and
// colours it with theme.
func NewRenderer(width int, theme Theme) *Renderer {
	accent, border := orNone(theme.Accent), orNone(theme.Border)
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &Renderer{
		width:     width,
		formatter: formatter,

		headingStyle: lipgloss.NewStyle().Bold(true).Foreground(accent),
		codeBoxStyle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
		inlineCode: lipgloss.NewStyle().
			Background(orNone(theme.CodeBackground)).
			Foreground(orNone(theme.Code)),
		boldStyle:   lipgloss.NewStyle().Bold(true),
		italicStyle: lipgloss.NewStyle().Italic(true),
		linkStyle:   lipgloss.NewStyle().Underline(true).Foreground(accent),
		bulletStyle: lipgloss.NewStyle().Foreground(accent),
		cellStyle:   lipgloss.NewStyle().Padding(0, 1),
		headerCell:  lipgloss.NewStyle().Padding(0, 1).Bold(true),
		ruleStyle:   lipgloss.NewStyle().Foreground(border),
	}
}

// Render returns the display string for blocks.
func (r *Renderer) Render(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, r.block(b))
	}
	return strings.Join(parts, "\n")
}

// RenderText parses and renders text in one call.
func (r *Renderer) RenderText(text string) string {
	return r.Render(Parse(text))
}

func (r *Renderer) block(b Block) string {
	switch b.Kind {
	case KindHeading:
		style := r.headingStyle
		if b.Level == 1 {
			style = style.Underline(true)
		}
		return style.Render(r.inline(b.Spans()))
	case KindBullet:
		return r.wrap("  "+r.bulletStyle.Render(bulletMark)+" "+r.inline(b.Spans()))
	case KindNumbered:
		return r.wrap("  "+r.bulletStyle.Render(b.Index+".")+" "+r.inline(b.Spans()))
	case KindCode:
		return r.code(b.Text, b.Language)
	case KindTable:
		return r.table(b)
	default:
		return r.wrap(r.inline(b.Spans()))
	}
}

func (r *Renderer) inline(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case SpanBold:
			sb.WriteString(r.boldStyle.Render(s.Text))
		case SpanItalic:
			sb.WriteString(r.italicStyle.Render(s.Text))
		case SpanCode:
			sb.WriteString(r.inlineCode.Render(s.Text))
		case SpanLink:
			sb.WriteString(r.linkStyle.Render(s.Text) + " (" + s.URL + ")")
		default:
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

func (r *Renderer) wrap(s string) string {
	if r.width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(r.width).Render(s)
}

// code highlights a code block with chroma and draws a box around it.
func (r *Renderer) code(content, language string) string {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	highlighted := content
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		log.Debugf("tokenise failed, using plain text: %v", err)
	} else {
		var buf strings.Builder
		if err := r.formatter.Format(&buf, styles.Get(codeTheme), iterator); err != nil {
			log.Debugf("format failed, using plain text: %v", err)
		} else {
			highlighted = strings.TrimRight(buf.String(), "\n")
		}
	}

	style := r.codeBoxStyle
	if r.width > 0 {
		style = style.Width(max(r.width-2, minCodeWidth))
	}
	return style.Render(highlighted)
}

// table lays out cells in columns sized to the widest cell. Rows keep their own
// cell count.
func (r *Renderer) table(b Block) string {
	widths := columnWidths(b)
	var lines []string

	lines = append(lines, r.row(b.Header, widths, r.headerCell))
	total := 0
	for _, w := range widths {
		total += w + 3
	}
	lines = append(lines, r.ruleStyle.Render(strings.Repeat("─", total)))
	for _, row := range b.Rows {
		lines = append(lines, r.row(row, widths, r.cellStyle))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) row(cells []string, widths []int, style lipgloss.Style) string {
	rendered := make([]string, 0, len(cells))
	for i, cell := range cells {
		text := r.inline(Spans(cell))
		rendered = append(rendered, style.Width(widths[i]+2).Render(text))
	}
	return strings.Join(rendered, "│")
}

func columnWidths(b Block) []int {
	var widths []int
	measure := func(cells []string) {
		for i, cell := range cells {
			w := lipgloss.Width(SpanText(Spans(cell)))
			if i >= len(widths) {
				widths = append(widths, w)
			} else if w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(b.Header)
	for _, row := range b.Rows {
		measure(row)
	}
	return widths
}
