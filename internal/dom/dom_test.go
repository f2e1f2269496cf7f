package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()

	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func ids(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		id, _ := Attr(n, "id")
		out = append(out, id)
	}
	return out
}

func TestQueryAll(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<div id="a" class="x"><p id="b" class="x"></p></div><p id="c"></p>`)

	tests := []struct {
		name     string
		selector string
		want     []string
		wantErr  bool
	}{
		{name: "class", selector: ".x", want: []string{"a", "b"}},
		{name: "group keeps document order", selector: "#c, #a", want: []string{"a", "c"}},
		{name: "descendant", selector: "div p", want: []string{"b"}},
		{name: "no match", selector: "span", want: []string{}},
		{name: "invalid", selector: "p[", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := doc.QueryAll(tt.selector)
			if tt.wantErr {
				if err == nil {
					t.Fatal("QueryAll() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("QueryAll() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("QueryAll() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttributes(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<input id="i" value="v">`)
	n := doc.ElementByID("i")
	if n == nil {
		t.Fatal("ElementByID() = nil")
	}

	SetAttr(n, "value", "w")
	if v, _ := Attr(n, "value"); v != "w" {
		t.Errorf("Attr(value) = %q, want w", v)
	}

	ToggleAttr(n, "checked", true)
	if !HasAttr(n, "checked") {
		t.Error("ToggleAttr(true) did not set checked")
	}
	ToggleAttr(n, "checked", false)
	if HasAttr(n, "checked") {
		t.Error("ToggleAttr(false) did not remove checked")
	}

	RemoveAttr(n, "value")
	if _, ok := Attr(n, "value"); ok {
		t.Error("RemoveAttr() left the attribute")
	}
}

func TestInnerHTMLRoundTrip(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<div id="d"><b>x</b></div>`)
	n := doc.ElementByID("d")

	got, err := InnerHTML(n)
	if err != nil {
		t.Fatalf("InnerHTML() error = %v", err)
	}
	if got != "<b>x</b>" {
		t.Errorf("InnerHTML() = %q", got)
	}

	if err := SetInnerHTML(n, `<i>1</i><i>2</i>`); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	got, _ = InnerHTML(n)
	if got != "<i>1</i><i>2</i>" {
		t.Errorf("InnerHTML() after set = %q", got)
	}
}

func TestInsertSiblingsPreservesOrder(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<ul id="l"><li id="m">m</li></ul>`)
	m := doc.ElementByID("m")

	before, err := ParseFragment(`<li>a</li><li>b</li>`, m.Parent)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	after, err := ParseFragment(`<li>y</li><li>z</li>`, m.Parent)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}

	if !InsertBefore(m, before) || !InsertAfter(m, after) {
		t.Fatal("insert reported missing parent")
	}

	got, _ := InnerHTML(doc.ElementByID("l"))
	want := `<li>a</li><li>b</li><li id="m">m</li><li>y</li><li>z</li>`
	if got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}
}

func TestDetach(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<div id="d"><span id="s"></span></div>`)
	s := doc.ElementByID("s")

	if !Detach(s) {
		t.Fatal("Detach() = false")
	}
	if Detach(s) {
		t.Error("Detach() on detached node = true")
	}
	if strings.Contains(doc.String(), `id="s"`) {
		t.Error("document still renders detached node")
	}
}

func TestDeclarations(t *testing.T) {
	t.Parallel()

	decls := ParseDeclarations("color: red; DISPLAY:none")
	if v, _ := decls.Get("display"); v != "none" {
		t.Errorf("Get(display) = %q", v)
	}

	decls.Set("color", "blue")
	decls.Set("margin", "0")
	decls.Set("display", "")

	if got, want := decls.String(), "color: blue; margin: 0;"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPropertyName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "color", want: "color", ok: true},
		{in: "backgroundColor", want: "background-color", ok: true},
		{in: "background-color", want: "background-color", ok: true},
		{in: "WebkitTransform", want: "-webkit-transform", ok: true},
		{in: "cssFloat", want: "float", ok: true},
		{in: "--custom", want: "--custom", ok: true},
		{in: "", ok: false},
		{in: "col or", ok: false},
		{in: "9lives", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := PropertyName(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("PropertyName(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><head><style>
		.hidden { display: none }
		#p { color: green }
		p { color: red; text-align: center }
		.imp { color: purple !important }
		@media print { p { color: black } }
	</style></head><body>
		<div id="d" class="hidden"></div>
		<div id="inline" class="hidden" style="display: flex"></div>
		<p id="p"><span id="s"></span></p>
		<p id="q" class="imp" style="color: orange"></p>
		<span id="plain"></span>
		<li id="li" hidden></li>
	</body></html>`)
	sheet := doc.Styles()

	tests := []struct {
		id       string
		property string
		want     string
	}{
		{id: "d", property: "display", want: "none"},
		{id: "inline", property: "display", want: "flex"},
		{id: "p", property: "color", want: "green"},
		{id: "s", property: "color", want: "green"},
		{id: "s", property: "text-align", want: "center"},
		{id: "q", property: "color", want: "purple"},
		{id: "plain", property: "display", want: "inline"},
		{id: "p", property: "display", want: "block"},
		{id: "li", property: "display", want: "none"},
		{id: "plain", property: "margin", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.property, func(t *testing.T) {
			if got := sheet.Resolve(doc.ElementByID(tt.id), tt.property); got != tt.want {
				t.Errorf("Resolve(%s, %s) = %q, want %q", tt.id, tt.property, got, tt.want)
			}
		})
	}
}
