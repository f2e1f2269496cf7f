package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Is reports whether n is an element with the given lowercase tag name.
func Is(n *html.Node, tag string) bool {
	return IsElement(n) && n.Data == tag
}

// Attr returns the value of an attribute without namespace.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the attribute is present, whatever its value.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr replaces the attribute value or appends the attribute.
func SetAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr drops every occurrence of the attribute.
func RemoveAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// ToggleAttr sets a boolean attribute when on is true and removes it otherwise.
func ToggleAttr(n *html.Node, key string, on bool) {
	if on {
		if !HasAttr(n, key) {
			SetAttr(n, key, "")
		}
		return
	}
	RemoveAttr(n, key)
}

// TextContent concatenates every descendant text node.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// SetTextContent replaces all children with a single text node.
func SetTextContent(n *html.Node, text string) {
	removeChildren(n)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// SetInnerHTML replaces the children of n with the parsed fragment, using n as
// the parsing context.
func SetInnerHTML(n *html.Node, fragment string) error {
	nodes, err := ParseFragment(fragment, n)
	if err != nil {
		return err
	}

	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// ParseFragment parses markup in the context of an element. Non-element
// contexts fall back to a body element.
func ParseFragment(fragment string, context *html.Node) ([]*html.Node, error) {
	if !IsElement(context) {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("%w: fragment: %v", ErrParse, err)
	}
	return nodes, nil
}

// InsertBefore puts the nodes, in order, immediately before ref.
// It reports false when ref has no parent.
func InsertBefore(ref *html.Node, nodes []*html.Node) bool {
	parent := ref.Parent
	if parent == nil {
		return false
	}
	for _, c := range nodes {
		parent.InsertBefore(c, ref)
	}
	return true
}

// InsertAfter puts the nodes, in order, immediately after ref.
// It reports false when ref has no parent.
func InsertAfter(ref *html.Node, nodes []*html.Node) bool {
	parent := ref.Parent
	if parent == nil {
		return false
	}
	next := ref.NextSibling
	for _, c := range nodes {
		// nil next appends
		parent.InsertBefore(c, next)
	}
	return true
}

// Detach removes n from its parent. It reports false when n has no parent.
func Detach(n *html.Node) bool {
	if n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}

// Closest returns the nearest ancestor (excluding n) with the given tag.
func Closest(n *html.Node, tag string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if Is(p, tag) {
			return p
		}
	}
	return nil
}

// CollapseSpace strips leading and trailing ASCII whitespace and collapses
// inner runs to a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isASCIISpace), " ")
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
