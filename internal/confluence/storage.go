package confluence

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/buker/brdesk/internal/markdown"
)

// StorageFromMarkdown converts Markdown text to Confluence storage HTML.
// Headings are bolded and tables always carry a tbody.
func StorageFromMarkdown(text string) string {
	var b strings.Builder
	var list string // open list tag, "ul" or "ol"

	closeList := func() {
		if list != "" {
			b.WriteString("</" + list + ">")
			list = ""
		}
	}
	openList := func(tag string) {
		if list != tag {
			closeList()
			b.WriteString("<" + tag + ">")
			list = tag
		}
	}

	for _, blk := range markdown.Parse(text) {
		switch blk.Kind {
		case markdown.KindBullet:
			openList("ul")
			b.WriteString("<li>" + spansHTML(blk.Spans()) + "</li>")
			continue
		case markdown.KindNumbered:
			openList("ol")
			b.WriteString("<li>" + spansHTML(blk.Spans()) + "</li>")
			continue
		}
		closeList()

		switch blk.Kind {
		case markdown.KindHeading:
			tag := "h" + strconv.Itoa(blk.Level)
			b.WriteString("<" + tag + "><strong>" + spansHTML(blk.Spans()) + "</strong></" + tag + ">")
		case markdown.KindCode:
			b.WriteString(codeMacro(blk.Language, blk.Text))
		case markdown.KindTable:
			b.WriteString(tableHTML(blk.Header, blk.Rows))
		default:
			b.WriteString("<p>" + spansHTML(blk.Spans()) + "</p>")
		}
	}
	closeList()
	return b.String()
}

// SectionStorage renders one BRD section: a bold h3 title followed by each
// non-empty Markdown part.
func SectionStorage(title string, parts ...string) string {
	var b strings.Builder
	b.WriteString("<h3><strong>" + html.EscapeString(title) + "</strong></h3>")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		b.WriteString(StorageFromMarkdown(p))
	}
	return b.String()
}

func spansHTML(spans []markdown.Span) string {
	var b strings.Builder
	for _, s := range spans {
		text := html.EscapeString(s.Text)
		switch s.Kind {
		case markdown.SpanBold:
			b.WriteString("<strong>" + text + "</strong>")
		case markdown.SpanItalic:
			b.WriteString("<em>" + text + "</em>")
		case markdown.SpanCode:
			b.WriteString("<code>" + text + "</code>")
		case markdown.SpanLink:
			b.WriteString(`<a href="` + html.EscapeString(s.URL) + `">` + text + "</a>")
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

func tableHTML(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="5">`)
	if len(header) > 0 {
		b.WriteString("<thead><tr>")
		for _, h := range header {
			b.WriteString("<th><strong>" + spansHTML(markdown.Spans(h)) + "</strong></th>")
		}
		b.WriteString("</tr></thead>")
	}
	b.WriteString("<tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + spansHTML(markdown.Spans(cell)) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func codeMacro(lang, code string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="code">`)
	if lang != "" {
		b.WriteString(`<ac:parameter ac:name="language">` + html.EscapeString(lang) + `</ac:parameter>`)
	}
	// CDATA cannot contain its own terminator.
	code = strings.ReplaceAll(code, "]]>", "]]]]><![CDATA[>")
	b.WriteString("<ac:plain-text-body><![CDATA[" + code + "]]></ac:plain-text-body>")
	b.WriteString("</ac:structured-macro>")
	return b.String()
}

var cdataRe = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

// MarkdownFromStorage converts storage HTML to Markdown so pages can be shown
// with the terminal renderer. Unknown elements contribute their text.
func MarkdownFromStorage(storage string) string {
	storage = cdataRe.ReplaceAllStringFunc(storage, func(m string) string {
		return html.EscapeString(cdataRe.FindStringSubmatch(m)[1])
	})
	doc, err := html.Parse(strings.NewReader("<body>" + storage + "</body>"))
	if err != nil {
		log.Debugf("storage parse failed: %v", err)
		return storage
	}
	w := &mdWriter{}
	w.walk(doc)
	w.endBlock()
	return strings.TrimSpace(strings.Join(w.blocks, "\n\n"))
}

type mdWriter struct {
	blocks []string
	cur    strings.Builder
	lists  []string // open list tags, innermost last
	items  []int    // ordered-list counters
}

func (w *mdWriter) endBlock() {
	s := strings.TrimSpace(w.cur.String())
	w.cur.Reset()
	if s != "" {
		w.blocks = append(w.blocks, s)
	}
}

func (w *mdWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if len(w.lists) > 0 && strings.TrimSpace(n.Data) == "" {
			return
		}
		w.cur.WriteString(collapseSpace(n.Data))
		return
	case html.CommentNode:
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.endBlock()
		w.cur.WriteString(strings.Repeat("#", int(n.Data[1]-'0')) + " ")
		w.cur.WriteString(strings.Trim(inlineText(n), "* "))
		w.endBlock()
	case "p", "div", "blockquote":
		w.endBlock()
		w.children(n)
		w.endBlock()
	case "br":
		w.cur.WriteString("\n")
	case "ul", "ol":
		if len(w.lists) == 0 {
			w.endBlock()
		}
		w.lists = append(w.lists, n.Data)
		w.items = append(w.items, 0)
		w.children(n)
		w.lists = w.lists[:len(w.lists)-1]
		w.items = w.items[:len(w.items)-1]
		w.flushList()
	case "li":
		w.listItem(n)
	case "strong", "b":
		w.wrap(n, "**")
	case "em", "i":
		w.wrap(n, "*")
	case "code":
		w.wrap(n, "`")
	case "a":
		text := inlineText(n)
		if href := attr(n, "href"); href != "" {
			w.cur.WriteString("[" + text + "](" + href + ")")
		} else {
			w.cur.WriteString(text)
		}
	case "table":
		w.endBlock()
		w.table(n)
	case "pre":
		w.endBlock()
		w.cur.WriteString("```\n" + strings.TrimRight(textContent(n), "\n") + "\n```")
		w.endBlock()
	case "ac:structured-macro":
		w.macro(n)
	case "ac:parameter":
		// macro parameters are not content
	default:
		w.children(n)
	}
}

func (w *mdWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *mdWriter) wrap(n *html.Node, mark string) {
	text := strings.TrimSpace(inlineText(n))
	if text == "" {
		return
	}
	w.cur.WriteString(mark + text + mark)
}

// listItem writes one item as its own line inside the current block so
// consecutive items stay together. Nested lists follow on their own lines.
func (w *mdWriter) listItem(n *html.Node) {
	var nested []*html.Node
	sub := &mdWriter{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
			nested = append(nested, c)
			continue
		}
		sub.walk(c)
	}

	depth := len(w.lists)
	marker := "- "
	if depth > 0 && w.lists[depth-1] == "ol" {
		w.items[depth-1]++
		marker = strconv.Itoa(w.items[depth-1]) + ". "
	}
	indent := ""
	if depth > 1 {
		indent = strings.Repeat("  ", depth-1)
	}
	if w.cur.Len() > 0 && !strings.HasSuffix(w.cur.String(), "\n") {
		w.cur.WriteString("\n")
	}
	w.cur.WriteString(indent + marker + sub.line() + "\n")
	for _, l := range nested {
		w.walk(l)
	}
}

func (w *mdWriter) flushList() {
	if len(w.lists) == 0 {
		w.endBlock()
	}
}

func (w *mdWriter) table(n *html.Node) {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, strings.ReplaceAll(strings.TrimSpace(inlineText(c)), "|", "/"))
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	if len(rows) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
	seps := make([]string, len(rows[0]))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |")
	for _, row := range rows[1:] {
		b.WriteString("\n| " + strings.Join(row, " | ") + " |")
	}
	w.blocks = append(w.blocks, b.String())
}

func (w *mdWriter) macro(n *html.Node) {
	if attr(n, "ac:name") != "code" {
		w.children(n)
		return
	}
	lang := ""
	body := ""
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "ac:parameter":
			if attr(c, "ac:name") == "language" {
				lang = strings.TrimSpace(textContent(c))
			}
		case "ac:plain-text-body":
			body = textContent(c)
		}
	}
	w.endBlock()
	w.cur.WriteString("```" + lang + "\n" + strings.TrimRight(body, "\n") + "\n```")
	w.endBlock()
}

// line joins everything written so far into a single line.
func (w *mdWriter) line() string {
	all := append(w.blocks, w.cur.String())
	return strings.Join(strings.Fields(strings.Join(all, " ")), " ")
}

// inlineText renders the inline content of n as Markdown on a single line.
func inlineText(n *html.Node) string {
	sub := &mdWriter{}
	sub.children(n)
	return sub.line()
}

// textContent returns the raw text below n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	lead := s[0] == ' ' || s[0] == '\n' || s[0] == '\t'
	trail := s[len(s)-1] == ' ' || s[len(s)-1] == '\n' || s[len(s)-1] == '\t'
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}
