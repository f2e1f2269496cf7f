package nodeset

import (
	"strings"

	"github.com/jacoelho/chibi/internal/dom"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// CSS reads a style property per node: the inline declaration, else the
// resolved value, else null. camelCase and hyphenated names are accepted.
func (s *Selection) CSS(property string) Result {
	prop, valid := dom.PropertyName(property)
	return s.read(func(n *html.Node) (Value, bool) {
		if !valid {
			return NullValue(), true
		}
		if v, ok := dom.InlineStyle(n).Get(prop); ok && v != "" {
			return TextValue(v), true
		}
		if v := s.resolved(n, prop); v != "" {
			return TextValue(v), true
		}
		return NullValue(), true
	})
}

// SetCSS sets an inline style property. An empty value removes it. Invalid
// names or values leave the nodes untouched.
func (s *Selection) SetCSS(property, value string) *Selection {
	prop, ok := dom.PropertyName(property)
	value = strings.TrimSpace(value)
	if !ok || !dom.ValidValue(value) {
		s.debug("style property skipped", zap.String("property", property), zap.String("value", value))
		return s
	}

	return s.write(func(n *html.Node) {
		s.setInline(n, prop, value)
	})
}

// ClassAction selects how SetClass combines classes with the current value.
type ClassAction string

const (
	ClassReplace ClassAction = "replace"
	ClassAdd     ClassAction = "add"
	// ClassRemove strips every occurrence of each space-separated token,
	// including occurrences inside longer class names.
	ClassRemove ClassAction = "remove"
)

// Class reads the class attribute per node, empty when absent.
func (s *Selection) Class() Result {
	return s.read(func(n *html.Node) (Value, bool) {
		v, _ := dom.Attr(n, "class")
		return TextValue(v), true
	})
}

// SetClass changes the class attribute. An empty classes is a no-op and an
// empty action replaces.
func (s *Selection) SetClass(classes string, action ClassAction) *Selection {
	if classes == "" {
		return s
	}

	tokens := strings.Split(classes, " ")
	return s.write(func(n *html.Node) {
		current, _ := dom.Attr(n, "class")

		switch action {
		case ClassAdd:
			dom.SetAttr(n, "class", current+" "+classes)
		case ClassRemove:
			for _, token := range tokens {
				if token != "" {
					current = strings.ReplaceAll(current, token, "")
				}
			}
			dom.SetAttr(n, "class", current)
		case ClassReplace, "":
			dom.SetAttr(n, "class", classes)
		default:
			s.debug("unknown class action", zap.String("action", string(action)))
		}
	})
}

// Location is where InsertHTML places new nodes relative to each node.
type Location string

const (
	Before Location = "before"
	After  Location = "after"
)

// HTML reads the inner HTML per node.
func (s *Selection) HTML() Result {
	return s.read(func(n *html.Node) (Value, bool) {
		markup, err := dom.InnerHTML(n)
		if err != nil {
			s.debug("render failed", zap.Error(err))
			return Value{}, false
		}
		return TextValue(markup), true
	})
}

// SetHTML replaces the children of every node with the parsed markup.
func (s *Selection) SetHTML(markup string) *Selection {
	return s.write(func(n *html.Node) {
		if err := dom.SetInnerHTML(n, markup); err != nil {
			s.debug("inner html not set", zap.Error(err))
		}
	})
}

// InsertHTML inserts a fresh copy of the parsed markup as siblings before or
// after every node, keeping the markup's order. Parentless nodes and unknown
// locations are skipped.
func (s *Selection) InsertHTML(markup string, location Location) *Selection {
	if location != Before && location != After {
		s.debug("unknown insert location", zap.String("location", string(location)))
		return s
	}

	return s.write(func(n *html.Node) {
		if n.Parent == nil {
			return
		}
		nodes, err := dom.ParseFragment(markup, n.Parent)
		if err != nil {
			s.debug("fragment not inserted", zap.Error(err))
			return
		}

		switch location {
		case Before:
			dom.InsertBefore(n, nodes)
		case After:
			dom.InsertAfter(n, nodes)
		}
	})
}

// Attr reads an attribute per node, null when absent or empty. "style"
// reads the normalized declaration block.
func (s *Selection) Attr(name string) Result {
	name = strings.ToLower(name)
	if name == "" {
		return Result{}
	}

	return s.read(func(n *html.Node) (Value, bool) {
		var v string
		if name == "style" {
			v = dom.InlineStyle(n).String()
		} else {
			v, _ = dom.Attr(n, name)
		}
		if v == "" {
			return NullValue(), true
		}
		return TextValue(v), true
	})
}

// SetAttr writes an attribute on every node. "style" is parsed as a
// declaration block.
func (s *Selection) SetAttr(name, value string) *Selection {
	name = strings.ToLower(name)
	if name == "" {
		return s
	}

	return s.write(func(n *html.Node) {
		if name == "style" {
			dom.SetInlineStyle(n, dom.ParseDeclarations(value))
			return
		}
		dom.SetAttr(n, name, value)
	})
}
