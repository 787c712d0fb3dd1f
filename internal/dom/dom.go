// Package dom wraps golang.org/x/net/html with the small query and
// mutation surface the page analyzer, the structural diff and the
// migration engine need.
//
// Aeon tags are not HTML: the tokenizer would treat "<#PARAM ...>" as text
// and escape it on render. Parse therefore swaps every tag for an opaque
// token first, and Text, Attr and Render swap them back, so callers always
// see the original tag text.
package dom

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

var tokenPattern = regexp.MustCompile(`__aeon_([0-9a-f]+)__`)

// protect replaces every Aeon tag with a token that survives parsing and
// rendering unchanged. Tokens are derived from the tag text, so identical
// tags in two documents produce identical tokens.
func protect(content string) string {
	occurrences := scanner.FindTags(content)
	if len(occurrences) == 0 {
		return content
	}
	var b strings.Builder
	last := 0
	for _, occ := range occurrences {
		b.WriteString(content[last:occ.Start])
		b.WriteString("__aeon_" + hex.EncodeToString([]byte(occ.Text)) + "__")
		last = occ.End
	}
	b.WriteString(content[last:])
	return b.String()
}

// Restore turns protection tokens in s back into the Aeon tags they stand
// for.
func Restore(s string) string {
	if !strings.Contains(s, "__aeon_") {
		return s
	}
	return tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		m := tokenPattern.FindStringSubmatch(token)
		raw, err := hex.DecodeString(m[1])
		if err != nil {
			return token
		}
		return string(raw)
	})
}

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
}

// Parse builds a document tree. The parser is lenient: malformed markup is
// repaired the way browsers repair it.
func Parse(content string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(protect(content)))
	if err != nil {
		return nil, aeonerrors.NewParseError("HTML_PARSE", "failed to parse HTML document", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Head returns the <head> element, which the parser always creates.
func (d *Document) Head() *html.Node { return d.First("head") }

// Body returns the <body> element, which the parser always creates.
func (d *Document) Body() *html.Node { return d.First("body") }

// QueryAll returns the elements matching selector in document order.
func (d *Document) QueryAll(selector string) []*html.Node {
	return QueryAll(d.root, selector)
}

// First returns the first element matching selector, or nil.
func (d *Document) First(selector string) *html.Node {
	return First(d.root, selector)
}

// ElementByID returns the element with the given id, or nil.
func (d *Document) ElementByID(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && AttrOr(n, "id", "") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Render serializes the whole document with Aeon tags restored.
func (d *Document) Render() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", aeonerrors.NewIOError("HTML_RENDER", "failed to render HTML document", err)
	}
	return Restore(b.String()), nil
}

// RenderNode serializes a single node with Aeon tags restored.
func RenderNode(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return Restore(b.String())
}

// walk visits n and its descendants depth-first in document order until
// visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// Text returns the concatenated text content of n, like the DOM
// textContent property, with Aeon tags restored.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return Restore(b.String())
}

// TrimmedText is Text with surrounding whitespace removed.
func TrimmedText(n *html.Node) string {
	return strings.TrimSpace(Text(n))
}

// Attr returns an attribute value and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return Restore(a.Val), true
		}
	}
	return "", false
}

// AttrOr returns an attribute value, or fallback when absent.
func AttrOr(n *html.Node, key, fallback string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return fallback
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// Attributes returns the element's attributes as a map.
func Attributes(n *html.Node) map[string]string {
	out := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		out[a.Key] = Restore(a.Val)
	}
	return out
}

// Classes returns the element's class list.
func Classes(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class", ""))
}

// HasClass reports whether the element carries class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// Parent returns the nearest ancestor element, or nil at the top.
func Parent(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Index returns the position of n among its parent's element children,
// or -1 when n has no parent.
func Index(n *html.Node) int {
	p := Parent(n)
	if p == nil {
		return -1
	}
	for i, c := range Children(p) {
		if c == n {
			return i
		}
	}
	return -1
}

// SiblingIndex returns the position of n among its parent's element
// children with the same tag name.
func SiblingIndex(n *html.Node) int {
	p := Parent(n)
	if p == nil {
		return 0
	}
	i := 0
	for _, c := range Children(p) {
		if c == n {
			return i
		}
		if c.Data == n.Data {
			i++
		}
	}
	return 0
}

// ElementPath describes the position of n as a "tag#id > tag.class > tag"
// chain, stopping at <body> or at the first ancestor with an id.
func ElementPath(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode && cur.DataAtom != atom.Body; cur = Parent(cur) {
		if id := AttrOr(cur, "id", ""); id != "" {
			parts = append(parts, cur.Data+"#"+id)
			break
		}
		if classes := Classes(cur); len(classes) > 0 {
			parts = append(parts, cur.Data+"."+strings.Join(classes, "."))
		} else {
			parts = append(parts, cur.Data)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// NewElement creates a detached element with attributes in the given
// key, value order.
func NewElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// NewComment creates a detached comment node.
func NewComment(text string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: text}
}
