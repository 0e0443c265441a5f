// Package interact models the behaviour the site's page script attaches to
// every rendered page: smooth scrolling on the home page, the sidebar
// toggle, the image modal and responsive article images.
//
// Each widget is an explicit state holder operating on a parsed HTML
// document, so the behaviour can be exercised without a browser. The
// builder uses the same document model to pre-apply the responsive image
// class and to check that pages carry the element ids the script needs.
package interact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element ids and classes the page script relies on.
const (
	SidebarID       = "mySidebar"
	OverlayID       = "myOverlay"
	ModalID         = "modal01"
	ModalImgID      = "img01"
	CaptionID       = "caption"
	ArticleClass    = "article-content"
	ResponsiveClass = "img-responsive"
)

// Hooks lists the ids every page must carry for the script to work.
var Hooks = []string{SidebarID, OverlayID, ModalID, ModalImgID, CaptionID}

// ErrMissingElement is returned when a lookup by id or fragment finds nothing.
var ErrMissingElement = errors.New("interact: element not found")

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("interact: parse: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseBytes parses b.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// Render writes the document back out.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Bytes renders the document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// walk calls fn for every element node in document order. fn returning
// false stops the walk.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// ByID returns the first element with the given id, or nil.
func (d *Document) ByID(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if Attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func (d *Document) mustByID(id string) (*html.Node, error) {
	n := d.ByID(id)
	if n == nil {
		return nil, fmt.Errorf("%w: #%s", ErrMissingElement, id)
	}
	return n, nil
}

// Elements returns every element with tag a.
func (d *Document) Elements(a atom.Atom) []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.DataAtom == a {
			out = append(out, n)
		}
		return true
	})
	return out
}

// ArticleImages returns every img nested in an element classed
// article-content.
func (d *Document) ArticleImages() []*html.Node {
	var out []*html.Node
	seen := make(map[*html.Node]bool)
	walk(d.root, func(n *html.Node) bool {
		if !HasClass(n, ArticleClass) {
			return true
		}
		walk(n, func(c *html.Node) bool {
			if c.DataAtom == atom.Img && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
			return true
		})
		return true
	})
	return out
}

// MissingHooks returns the Hooks ids absent from the document.
func (d *Document) MissingHooks() []string {
	var missing []string
	for _, id := range Hooks {
		if d.ByID(id) == nil {
			missing = append(missing, id)
		}
	}
	return missing
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets attribute key on n, adding it when absent.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, f := range strings.Fields(Attr(n, "class")) {
		if f == c {
			return true
		}
	}
	return false
}

// AddClass adds class c to n unless it is already there.
func AddClass(n *html.Node, c string) {
	if HasClass(n, c) {
		return
	}
	cls := strings.TrimSpace(Attr(n, "class"))
	if cls != "" {
		cls += " "
	}
	SetAttr(n, "class", cls+c)
}

// Display returns the display value of n's inline style, or "".
func Display(n *html.Node) string {
	for _, decl := range strings.Split(Attr(n, "style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == "display" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// SetDisplay sets the display property of n's inline style, keeping other
// declarations.
func SetDisplay(n *html.Node, v string) {
	var decls []string
	for _, decl := range strings.Split(Attr(n, "style"), ";") {
		k, _, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(k) == "display" {
			continue
		}
		decls = append(decls, strings.TrimSpace(decl))
	}
	decls = append(decls, "display:"+v)
	SetAttr(n, "style", strings.Join(decls, ";"))
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

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			visit(k)
		}
	}
	visit(n)
	return b.String()
}
