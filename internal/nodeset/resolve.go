package nodeset

import (
	"fmt"

	"github.com/jacoelho/chibi/internal/dom"
	"golang.org/x/net/html"
)

// NodeList is any indexed collection of nodes.
type NodeList interface {
	Len() int
	Item(i int) *html.Node
}

// Resolve turns a selector value into element nodes. It accepts a CSS
// selector string, a node, a node slice, a *Selection or a NodeList.
// Anything else, and any failure, yields an empty result.
func Resolve(doc *dom.Document, selector any) []*html.Node {
	nodes, _ := resolve(doc, selector)
	return nodes
}

func resolve(doc *dom.Document, selector any) ([]*html.Node, error) {
	switch sel := selector.(type) {
	case nil:
		return nil, nil
	case string:
		if sel == "" {
			return nil, nil
		}
		if doc == nil {
			return nil, fmt.Errorf("selector %q: no document", sel)
		}
		return doc.QueryAll(sel)
	case *html.Node:
		return unique([]*html.Node{sel}), nil
	case []*html.Node:
		return unique(sel), nil
	case *Selection:
		if sel == nil {
			return nil, nil
		}
		return unique(sel.nodes), nil
	case NodeList:
		items := make([]*html.Node, 0, sel.Len())
		for i := range sel.Len() {
			items = append(items, sel.Item(i))
		}
		return unique(items), nil
	}
	return nil, fmt.Errorf("unsupported selector type %T", selector)
}

// unique copies the element nodes, keeping the first of any duplicate.
func unique(nodes []*html.Node) []*html.Node {
	seen := make(map[*html.Node]struct{}, len(nodes))
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if !dom.IsElement(n) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
