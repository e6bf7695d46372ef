// Package htmlmin normalizes rendered HTML before it is served or exported.
//
// Minification runs in two passes. The first pass collapses whitespace
// inside attribute values and folds whitespace runs in text to one space;
// the structural pass (tdewolff/minify) strips
// comments, collapses whitespace between and inside tags, drops redundant
// quotes and boolean/empty attribute values. Content of <pre>, <textarea>,
// <script> and <style> is left untouched. Minify is idempotent.
package htmlmin

import (
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	xhtml "golang.org/x/net/html"
)

const mediaType = "text/html"

// Minifier is safe for concurrent use.
type Minifier struct {
	m *minify.M
}

// New returns a Minifier that keeps document and end tags so the output is
// still a well-formed standalone page.
func New() *Minifier {
	m := minify.New()
	m.Add(mediaType, &html.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepDefaultAttrVals: true,
	})
	return &Minifier{m: m}
}

var defaultMinifier = New()

// Minify minifies src with the package's default Minifier.
func Minify(src string) (string, error) {
	return defaultMinifier.Minify(src)
}

// Minify returns the minified form of src.
func (mf *Minifier) Minify(src string) (string, error) {
	out, err := mf.m.String(mediaType, normalizeAttributes(src))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// verbatimTags hold content whose whitespace is significant.
var verbatimTags = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

// normalizeAttributes rewrites start tags whose attribute values contain
// leading, trailing or repeated whitespace, and folds whitespace runs in text
// to one space outside verbatimTags. Every other token is copied byte for
// byte.
func normalizeAttributes(src string) string {
	z := xhtml.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	b.Grow(len(src))
	depth := 0
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			// The reader is a string, so the only error is io.EOF.
			return b.String()
		case xhtml.TextToken:
			if depth == 0 {
				b.WriteString(foldSpace(string(z.Raw())))
			} else {
				b.Write(z.Raw())
			}
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			// TagName and TagAttr rewrite the tokenizer buffer in place.
			raw := append([]byte(nil), z.Raw()...)
			name, tag, ok := rewriteTag(z, tt)
			if ok {
				b.WriteString(tag)
			} else {
				b.Write(raw)
			}
			if tt == xhtml.StartTagToken && verbatimTags[name] {
				depth++
			}
		case xhtml.EndTagToken:
			b.Write(z.Raw())
			if name, _ := z.TagName(); depth > 0 && verbatimTags[string(name)] {
				depth--
			}
		default:
			b.Write(z.Raw())
		}
	}
}

type attr struct {
	key, val string
}

// rewriteTag returns the lower-cased tag name and, when an attribute value
// changes under whitespace collapsing, the rebuilt tag. It reports false when
// the raw tag can be kept. Raw bytes are captured by the caller before
// TagName/TagAttr run.
func rewriteTag(z *xhtml.Tokenizer, tt xhtml.TokenType) (string, string, bool) {
	rawName, more := z.TagName()
	name := string(rawName)
	var (
		attrs   []attr
		changed bool
	)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		v := string(val)
		if c := collapseSpace(v); c != v {
			v = c
			changed = true
		}
		attrs = append(attrs, attr{key: string(key), val: v})
	}
	if !changed {
		return name, "", false
	}

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.key)
		b.WriteString(`="`)
		b.WriteString(xhtml.EscapeString(a.val))
		b.WriteByte('"')
	}
	if tt == xhtml.SelfClosingTagToken {
		b.WriteByte('/')
	}
	b.WriteByte('>')
	return name, b.String(), true
}

// collapseSpace trims s and folds runs of HTML whitespace into one space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSpace(c) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// foldSpace replaces every run of HTML whitespace in s with one space,
// keeping a leading or trailing space.
func foldSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSpace(c) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
