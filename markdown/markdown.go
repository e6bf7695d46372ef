// Package markdown converts a small Markdown subset to HTML for site
// templates. Source text is always escaped; only the markup the converter
// emits reaches the page unescaped.
//
// Supported: ATX headings, paragraphs, "-"/"*" and numbered lists,
// blockquotes, fenced code, pipe tables, horizontal rules, and inline
// bold, italic, code, links and images. Links ending in ^ open in a new tab.
package markdown

import (
	"fmt"
	"html"
	"html/template"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*|\b__(.+?)__\b`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*|\b_([^_]+)_\b`)
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reImage      = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
	reLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)(\^)?`)
	reOrdered    = regexp.MustCompile(`^\d+\.\s+`)
	reHeading    = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reRule       = regexp.MustCompile(`^(-{3,}|\*{3,})\s*$`)
)

type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrdered
	blockQuote
	blockTable
	blockCode
)

// HTML is the "markdown" template helper. Non-string values are formatted
// with fmt.Sprint first; nil renders nothing.
func HTML(v any) template.HTML {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return template.HTML(ToHTML(s))
	case template.HTML:
		return template.HTML(ToHTML(string(s)))
	default:
		return template.HTML(ToHTML(fmt.Sprint(v)))
	}
}

// ToHTML converts md to HTML.
func ToHTML(md string) string {
	c := &converter{}
	for _, raw := range strings.Split(md, "\n") {
		c.line(strings.TrimRight(raw, "\r"))
	}
	c.close()
	return c.out.String()
}

type converter struct {
	out       strings.Builder
	open      block
	tableBody bool
}

// enter closes the current block unless it is already b, then opens b with tag.
func (c *converter) enter(b block, tag string) bool {
	if c.open == b {
		return false
	}
	c.close()
	c.open = b
	c.out.WriteString(tag)
	return true
}

func (c *converter) close() {
	switch c.open {
	case blockPara:
		c.out.WriteString("</p>")
	case blockList:
		c.out.WriteString("</ul>")
	case blockOrdered:
		c.out.WriteString("</ol>")
	case blockQuote:
		c.out.WriteString("</blockquote>")
	case blockCode:
		c.out.WriteString("</code></pre>")
	case blockTable:
		if c.tableBody {
			c.out.WriteString("</tbody>")
		}
		c.out.WriteString("</table>")
		c.tableBody = false
	}
	c.open = blockNone
}

func (c *converter) line(line string) {
	if strings.HasPrefix(line, "```") {
		if c.open == blockCode {
			c.close()
			return
		}
		c.close()
		c.open = blockCode
		if lang := strings.TrimSpace(line[3:]); lang != "" {
			c.out.WriteString(`<pre><code class="language-` + html.EscapeString(lang) + `">`)
		} else {
			c.out.WriteString("<pre><code>")
		}
		return
	}
	if c.open == blockCode {
		c.out.WriteString(html.EscapeString(line))
		c.out.WriteByte('\n')
		return
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		c.close()
	case reRule.MatchString(trimmed):
		c.close()
		c.out.WriteString("<hr>")
	case reHeading.MatchString(trimmed):
		c.close()
		m := reHeading.FindStringSubmatch(trimmed)
		level := strconv.Itoa(len(m[1]))
		c.out.WriteString("<h" + level + ">" + Inline(strings.TrimSpace(m[2])) + "</h" + level + ">")
	case strings.HasPrefix(trimmed, "|"):
		c.tableRow(trimmed)
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		c.enter(blockList, "<ul>")
		c.out.WriteString("<li>" + Inline(strings.TrimSpace(trimmed[2:])) + "</li>")
	case reOrdered.MatchString(trimmed):
		c.enter(blockOrdered, "<ol>")
		c.out.WriteString("<li>" + Inline(reOrdered.ReplaceAllString(trimmed, "")) + "</li>")
	case strings.HasPrefix(trimmed, ">"):
		if !c.enter(blockQuote, "<blockquote>") {
			c.out.WriteByte(' ')
		}
		c.out.WriteString(Inline(strings.TrimSpace(trimmed[1:])))
	default:
		if !c.enter(blockPara, "<p>") {
			c.out.WriteByte(' ')
		}
		c.out.WriteString(Inline(trimmed))
	}
}

// tableRow treats the first row as the header and skips |---| separators.
func (c *converter) tableRow(row string) {
	cells := splitCells(row)
	if c.enter(blockTable, "<table>") {
		c.out.WriteString("<thead><tr>")
		for _, cell := range cells {
			c.out.WriteString("<th>" + Inline(cell) + "</th>")
		}
		c.out.WriteString("</tr></thead>")
		return
	}
	if !c.tableBody {
		c.out.WriteString("<tbody>")
		c.tableBody = true
	}
	if isSeparator(cells) {
		return
	}
	c.out.WriteString("<tr>")
	for _, cell := range cells {
		c.out.WriteString("<td>" + Inline(cell) + "</td>")
	}
	c.out.WriteString("</tr>")
}

func splitCells(row string) []string {
	parts := strings.Split(strings.Trim(row, "|"), "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isSeparator(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}
	return true
}

// Inline escapes s and applies inline formatting.
func Inline(s string) string {
	out := html.EscapeString(s)

	// Code spans are swapped for placeholders so nothing inside them is
	// formatted.
	var spans []string
	out = reInlineCode.ReplaceAllStringFunc(out, func(m string) string {
		spans = append(spans, "<code>"+reInlineCode.FindStringSubmatch(m)[1]+"</code>")
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	out = reImage.ReplaceAllStringFunc(out, func(m string) string {
		match := reImage.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		return `<img src="` + src + `" alt="` + match[1] + `" loading="lazy">`
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		attrs := ""
		if match[3] == "^" {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>` + match[1] + `</a>`
	})

	out = outsideTags(out, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1$2</strong>")
		return reItalic.ReplaceAllString(seg, "<em>$1$2</em>")
	})

	for i, span := range spans {
		out = strings.Replace(out, "\x00"+strconv.Itoa(i)+"\x00", span, 1)
	}
	return out
}

// outsideTags applies fn to the text between tags so attribute values such
// as href are never rewritten.
func outsideTags(s string, fn func(string) string) string {
	var b strings.Builder
	for s != "" {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(fn(s))
			break
		}
		b.WriteString(fn(s[:lt]))
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			b.WriteString(s[lt:])
			break
		}
		b.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return b.String()
}

// SafeURL returns raw escaped for an attribute, or "" unless it is relative,
// a fragment, or uses http, https, mailto or tel.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	u, err := url.Parse(val)
	if err != nil || u.Scheme == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	}
	return ""
}
