package control

import (
	"github.com/jacoelho/chibi/internal/dom"
	"golang.org/x/net/html"
)

// Elements returns the controls owned by form in tree order. A control is
// owned by the form named in its form attribute when that id resolves to a
// form, otherwise by its nearest form ancestor. root bounds the search for
// controls associated by id; nil limits it to the form's descendants.
func Elements(root, form *html.Node) []*html.Node {
	if !dom.Is(form, "form") {
		return nil
	}

	scope := root
	if scope == nil {
		scope = form
	}

	byID := func(id string) *html.Node {
		var found *html.Node
		dom.Walk(scope, func(n *html.Node) bool {
			if found != nil {
				return false
			}
			if v, ok := dom.Attr(n, "id"); ok && v == id && dom.IsElement(n) {
				found = n
			}
			return true
		})
		return found
	}

	var out []*html.Node
	dom.Walk(scope, func(n *html.Node) bool {
		if Classify(n) == None {
			return true
		}
		if Owner(n, byID) == form {
			out = append(out, n)
		}
		// controls do not nest
		return false
	})
	return out
}

// Owner returns the form a control belongs to. lookup resolves ids for the
// form attribute and may be nil.
func Owner(n *html.Node, lookup func(id string) *html.Node) *html.Node {
	if id, ok := dom.Attr(n, "form"); ok && lookup != nil {
		if f := lookup(id); dom.Is(f, "form") {
			return f
		}
		return nil
	}
	return dom.Closest(n, "form")
}
