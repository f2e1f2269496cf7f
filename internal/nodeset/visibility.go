package nodeset

import (
	"github.com/jacoelho/chibi/internal/dom"
	"golang.org/x/net/html"
)

const displayNone = "none"

// Hide sets an inline display of none.
func (s *Selection) Hide() *Selection {
	return s.write(func(n *html.Node) {
		s.setInline(n, "display", displayNone)
	})
}

// Show clears the inline display and falls back to block when a style rule
// or default still hides the node.
func (s *Selection) Show() *Selection {
	return s.write(s.show)
}

// Toggle shows hidden nodes and hides the rest.
func (s *Selection) Toggle() *Selection {
	return s.write(func(n *html.Node) {
		if s.display(n) == displayNone {
			s.show(n)
			return
		}
		s.setInline(n, "display", displayNone)
	})
}

// Remove detaches every node from its parent. The selection keeps its nodes.
func (s *Selection) Remove() *Selection {
	return s.write(func(n *html.Node) {
		dom.Detach(n)
	})
}

func (s *Selection) show(n *html.Node) {
	s.setInline(n, "display", "")
	if s.display(n) == displayNone {
		s.setInline(n, "display", "block")
	}
}

func (s *Selection) display(n *html.Node) string {
	return s.resolved(n, "display")
}

func (s *Selection) resolved(n *html.Node, property string) string {
	if s.engine.doc == nil {
		v, _ := dom.InlineStyle(n).Get(property)
		return v
	}
	return s.engine.doc.ResolvedStyle(n, property)
}

func (s *Selection) setInline(n *html.Node, property, value string) {
	decls := dom.InlineStyle(n)
	decls.Set(property, value)
	dom.SetInlineStyle(n, decls)
}
