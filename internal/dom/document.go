// Package dom wraps a parsed HTML tree with the element helpers the node-set
// engine needs: attribute access, fragment parsing, sibling insertion and
// style resolution.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	ErrParse    = errors.New("html parse error")
	ErrSelector = errors.New("invalid selector")
)

// Document is a parsed HTML document. All mutations happen in place on Root.
type Document struct {
	Root *html.Node
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	return &Document{Root: root}, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the document, including every mutation applied so far.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.Root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// QueryAll returns the descendant elements matching a CSS selector group in
// document order.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSelector, selector, err)
	}

	return cascadia.QueryAll(d.Root, group), nil
}

// ElementByID returns the first element whose id attribute equals id.
func (d *Document) ElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}

	var found *html.Node
	Walk(d.Root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := Attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// Walk visits n and its descendants in tree order. Returning false from fn
// skips the children of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}
