// Package control models form controls as a closed set of kinds. Every
// value read, value write and serialization rule dispatches on Kind.
package control

import (
	"strings"

	"github.com/jacoelho/chibi/internal/dom"
	"golang.org/x/net/html"
)

// Kind is the variant of a form control.
type Kind int

const (
	None Kind = iota
	Text
	Checkbox
	Radio
	InputButton
	File
	SelectOne
	SelectMultiple
	Textarea
	Button
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Text:
		return "text"
	case Checkbox:
		return "checkbox"
	case Radio:
		return "radio"
	case InputButton:
		return "input-button"
	case File:
		return "file"
	case SelectOne:
		return "select-one"
	case SelectMultiple:
		return "select-multiple"
	case Textarea:
		return "textarea"
	case Button:
		return "button"
	}
	return "unknown"
}

// Classify returns the kind of n. Elements that are not form controls are None.
func Classify(n *html.Node) Kind {
	if !dom.IsElement(n) {
		return None
	}

	switch n.Data {
	case "input":
		switch InputType(n) {
		case "checkbox":
			return Checkbox
		case "radio":
			return Radio
		case "button", "submit", "reset", "image":
			return InputButton
		case "file":
			return File
		default:
			return Text
		}
	case "select":
		if dom.HasAttr(n, "multiple") {
			return SelectMultiple
		}
		return SelectOne
	case "textarea":
		return Textarea
	case "button":
		return Button
	}
	return None
}

var inputTypes = map[string]struct{}{
	"button": {}, "checkbox": {}, "color": {}, "date": {}, "datetime-local": {},
	"email": {}, "file": {}, "hidden": {}, "image": {}, "month": {}, "number": {},
	"password": {}, "radio": {}, "range": {}, "reset": {}, "search": {}, "submit": {},
	"tel": {}, "text": {}, "time": {}, "url": {}, "week": {},
}

// InputType returns the normalized type of an input element. Missing and
// unknown types are "text".
func InputType(n *html.Node) string {
	t, _ := dom.Attr(n, "type")
	t = strings.ToLower(strings.TrimSpace(t))
	if _, ok := inputTypes[t]; !ok {
		return "text"
	}
	return t
}

// Name returns the name attribute, empty when absent.
func Name(n *html.Node) string {
	name, _ := dom.Attr(n, "name")
	return name
}

// Disabled reports whether the control is disabled, directly or through an
// ancestor disabled fieldset. Controls inside the first legend of such a
// fieldset stay enabled.
func Disabled(n *html.Node) bool {
	if dom.HasAttr(n, "disabled") {
		return true
	}

	for p := n.Parent; p != nil; p = p.Parent {
		if !dom.Is(p, "fieldset") || !dom.HasAttr(p, "disabled") {
			continue
		}
		if legend := firstLegend(p); legend != nil && contains(legend, n) {
			continue
		}
		return true
	}
	return false
}

func firstLegend(fieldset *html.Node) *html.Node {
	for c := fieldset.FirstChild; c != nil; c = c.NextSibling {
		if dom.Is(c, "legend") {
			return c
		}
	}
	return nil
}

func contains(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
