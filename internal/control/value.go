package control

import (
	"github.com/jacoelho/chibi/internal/dom"
	"golang.org/x/net/html"
)

// defaultCheckValue is the value of a checkbox or radio without a value attribute.
const defaultCheckValue = "on"

// Value returns the current value of a control the way the DOM value property
// reports it.
func Value(n *html.Node) string {
	switch Classify(n) {
	case Text, InputButton, Button:
		v, _ := dom.Attr(n, "value")
		return v
	case Checkbox, Radio:
		if v, ok := dom.Attr(n, "value"); ok {
			return v
		}
		return defaultCheckValue
	case File:
		return ""
	case SelectOne, SelectMultiple:
		selected := SelectedOptions(n)
		if len(selected) == 0 {
			return ""
		}
		return OptionValue(selected[0])
	case Textarea:
		return dom.TextContent(n)
	case None:
		return ""
	}
	return ""
}

// SetValue assigns the value of a control. File inputs and non-controls are
// left untouched. Selects pick the first option whose value matches.
func SetValue(n *html.Node, value string) {
	switch Classify(n) {
	case Text, InputButton, Button, Checkbox, Radio:
		dom.SetAttr(n, "value", value)
	case File, None:
	case SelectOne, SelectMultiple:
		matched := false
		for _, opt := range Options(n) {
			on := !matched && OptionValue(opt) == value
			matched = matched || on
			SetSelected(opt, on)
		}
	case Textarea:
		dom.SetTextContent(n, value)
	}
}

// Checked reports the checkedness of a checkbox or radio.
func Checked(n *html.Node) bool {
	return dom.HasAttr(n, "checked")
}

// SetChecked sets or clears the checked attribute.
func SetChecked(n *html.Node, on bool) {
	dom.ToggleAttr(n, "checked", on)
}

// Options returns the option elements of a select, optgroups included, in
// tree order.
func Options(sel *html.Node) []*html.Node {
	var out []*html.Node
	for c := sel.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case dom.Is(c, "option"):
			out = append(out, c)
		case dom.Is(c, "optgroup"):
			for o := c.FirstChild; o != nil; o = o.NextSibling {
				if dom.Is(o, "option") {
					out = append(out, o)
				}
			}
		}
	}
	return out
}

// OptionValue returns the value attribute of an option, falling back to its
// whitespace-collapsed text.
func OptionValue(opt *html.Node) string {
	if v, ok := dom.Attr(opt, "value"); ok {
		return v
	}
	return dom.CollapseSpace(dom.TextContent(opt))
}

// SetSelected sets or clears the selected attribute of an option.
func SetSelected(opt *html.Node, on bool) {
	dom.ToggleAttr(opt, "selected", on)
}

// SelectedOptions returns the selected options of a select in option order.
// A single select with no selected option reports its first enabled option.
// When several options of a single select carry selected, the last one wins.
func SelectedOptions(sel *html.Node) []*html.Node {
	options := Options(sel)

	var selected []*html.Node
	for _, opt := range options {
		if dom.HasAttr(opt, "selected") {
			selected = append(selected, opt)
		}
	}

	if Classify(sel) != SelectOne {
		return selected
	}

	if len(selected) > 0 {
		return selected[len(selected)-1:]
	}
	for _, opt := range options {
		if !optionDisabled(opt) {
			return []*html.Node{opt}
		}
	}
	return nil
}

func optionDisabled(opt *html.Node) bool {
	if dom.HasAttr(opt, "disabled") {
		return true
	}
	return dom.Is(opt.Parent, "optgroup") && dom.HasAttr(opt.Parent, "disabled")
}
