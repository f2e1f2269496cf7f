// Package form serializes form controls and plain key/value data into
// application/x-www-form-urlencoded payloads.
package form

import (
	"net/url"
	"strings"

	"github.com/jacoelho/chibi/internal/control"
	"github.com/jacoelho/chibi/internal/dom"
	"golang.org/x/net/html"
)

// componentUnescapes restores the characters encodeURIComponent leaves alone
// but url.QueryEscape escapes.
var componentUnescapes = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Escape encodes s like encodeURIComponent, rendering spaces as "+".
func Escape(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}

// Pair encodes one name=value pair.
func Pair(name, value string) string {
	return Escape(name) + "=" + Escape(value)
}

type builder struct {
	sb strings.Builder
}

func (b *builder) add(name, value string) {
	b.sb.WriteByte('&')
	b.sb.WriteString(Pair(name, value))
}

// String strips the leading separator.
func (b *builder) String() string {
	return strings.TrimPrefix(b.sb.String(), "&")
}

// SerializeData encodes plain data in entry order, one pair per value.
func SerializeData(data Data) string {
	var b builder
	for _, entry := range data {
		for _, v := range entry.Values {
			b.add(entry.Key, v)
		}
	}
	return b.String()
}

// SerializeForms encodes the controls of every form in nodes. Nodes are
// visited from last to first; nodes that are not forms are ignored. root is
// the document used to resolve form attributes and may be nil.
func SerializeForms(root *html.Node, nodes []*html.Node) string {
	var b builder
	for i := len(nodes) - 1; i >= 0; i-- {
		if !dom.Is(nodes[i], "form") {
			continue
		}
		for _, c := range control.Elements(root, nodes[i]) {
			collect(&b, c)
		}
	}
	return b.String()
}

func collect(b *builder, n *html.Node) {
	if control.Disabled(n) {
		return
	}

	name := control.Name(n)
	switch control.Classify(n) {
	case control.None, control.InputButton, control.File, control.Button:
	case control.SelectOne:
		if len(control.Options(n)) > 0 {
			b.add(name, control.Value(n))
		}
	case control.SelectMultiple:
		for _, opt := range control.SelectedOptions(n) {
			b.add(name, control.OptionValue(opt))
		}
	case control.Checkbox, control.Radio:
		if control.Checked(n) {
			b.add(name, control.Value(n))
		}
	case control.Text, control.Textarea:
		b.add(name, control.Value(n))
	}
}
