package nodeset

import (
	"slices"

	"github.com/jacoelho/chibi/internal/control"
	"golang.org/x/net/html"
)

// Val reads form control values. A select reports null, its one selected
// value, or a list. A checkbox reports its value only when checked. Radios
// share one slot per name: the first radio walked reserves it and a later
// checked radio of the same name fills it. Non-controls contribute nothing.
func (s *Selection) Val() Result {
	var (
		walked []Value
		radios = make(map[string]int)
	)

	s.each(func(n *html.Node) {
		switch control.Classify(n) {
		case control.None:
		case control.SelectOne, control.SelectMultiple:
			walked = append(walked, selectValue(n))
		case control.Checkbox:
			walked = append(walked, checkedValue(n))
		case control.Radio:
			name := control.Name(n)
			if slot, ok := radios[name]; ok {
				if control.Checked(n) {
					walked[slot] = TextValue(control.Value(n))
				}
				return
			}
			radios[name] = len(walked)
			walked = append(walked, checkedValue(n))
		case control.Text, control.InputButton, control.File, control.Textarea, control.Button:
			walked = append(walked, TextValue(control.Value(n)))
		}
	})

	return newResult(walked)
}

// SetVal writes form control values. Select options and checkboxes or
// radios are selected or checked when their value is one of values; every
// other control takes the first value. With no values, checkboxes and radios
// are unchecked, selects are left alone and other controls are cleared.
func (s *Selection) SetVal(values ...string) *Selection {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}

	return s.write(func(n *html.Node) {
		switch control.Classify(n) {
		case control.None, control.File:
		case control.SelectOne, control.SelectMultiple:
			if len(values) == 0 {
				return
			}
			for _, opt := range control.Options(n) {
				control.SetSelected(opt, slices.Contains(values, control.OptionValue(opt)))
			}
		case control.Checkbox, control.Radio:
			control.SetChecked(n, slices.Contains(values, control.Value(n)))
		case control.Text, control.InputButton, control.Textarea, control.Button:
			control.SetValue(n, first)
		}
	})
}

func selectValue(n *html.Node) Value {
	selected := control.SelectedOptions(n)
	switch len(selected) {
	case 0:
		return NullValue()
	case 1:
		return TextValue(control.OptionValue(selected[0]))
	}

	values := make([]string, len(selected))
	for i, opt := range selected {
		values[i] = control.OptionValue(opt)
	}
	return ListValue(values)
}

func checkedValue(n *html.Node) Value {
	if control.Checked(n) {
		return TextValue(control.Value(n))
	}
	return NullValue()
}
