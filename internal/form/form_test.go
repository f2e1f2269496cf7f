package form

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/jacoelho/chibi/internal/dom"
	"golang.org/x/net/html"
)

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a b", want: "a+b"},
		{in: "a+b", want: "a%2Bb"},
		{in: "&=?/#", want: "%26%3D%3F%2F%23"},
		{in: "!'()*-_.~", want: "!'()*-_.~"},
		{in: "é", want: "%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Escape(tt.in); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSerializeData(t *testing.T) {
	t.Parallel()

	var data Data
	data.Add("a", 1)
	data.Add("b", []any{2, 3})
	data.Add("c d", "e&f")
	data.Add("none", []string{})

	if got, want := SerializeData(data), "a=1&b=2&b=3&c+d=e%26f"; got != want {
		t.Errorf("SerializeData() = %q, want %q", got, want)
	}

	if got := SerializeData(nil); got != "" {
		t.Errorf("SerializeData(nil) = %q, want empty", got)
	}
}

func TestFromMapSortsKeys(t *testing.T) {
	t.Parallel()

	data := FromMap(map[string]any{"z": true, "a": 1.5, "m": nil})
	if got, want := SerializeData(data), "a=1.5&m=&z=true"; got != want {
		t.Errorf("SerializeData(FromMap()) = %q, want %q", got, want)
	}
}

func TestDataUnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want Data
	}{
		{
			name: "mapping preserves order",
			src:  "z: 1\na: [2, 3]\nn: null\n",
			want: Data{
				{Key: "z", Values: []string{"1"}},
				{Key: "a", Values: []string{"2", "3"}},
				{Key: "n", Values: []string{""}},
			},
		},
		{
			name: "sequence form",
			src:  "- key: q\n  value: true\n- key: q\n  value: [x]\n",
			want: Data{
				{Key: "q", Values: []string{"true"}},
				{Key: "q", Values: []string{"x"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Data
			if err := yaml.Unmarshal([]byte(tt.src), &got); err != nil {
				t.Fatalf("yaml.Unmarshal() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDataUnmarshalYAMLErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"just a string",
		"- key: a\n",
		"- value: a\n",
		"- key: a\n  value: b\n  extra: c\n",
		"a: {nested: map}\n",
	} {
		var got Data
		if err := yaml.Unmarshal([]byte(src), &got); err == nil {
			t.Errorf("yaml.Unmarshal(%q) expected error", src)
		}
	}
}

func forms(t *testing.T, src string) (*html.Node, []*html.Node) {
	t.Helper()

	doc, err := dom.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	nodes, err := doc.QueryAll("form")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	return doc.Root, nodes
}

func TestSerializeForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "disabled text and checked checkbox",
			src:  `<form><input name="t" value="skip" disabled><input type="checkbox" name="x" value="y" checked></form>`,
			want: "x=y",
		},
		{
			name: "non data controls skipped",
			src: `<form>
				<input type="submit" name="s" value="1">
				<input type="reset" name="r">
				<input type="button" name="b">
				<input type="image" name="i">
				<input type="file" name="f">
				<button name="btn" value="v">go</button>
				<input type="hidden" name="h" value="kept">
			</form>`,
			want: "h=kept",
		},
		{
			name: "selects",
			src: `<form>
				<select name="one"><option value="a">a</option><option value="b" selected>b</option></select>
				<select name="empty"></select>
				<select name="many" multiple><option selected>x y</option><option>z</option><option selected value="w"></option></select>
				<select name="default"><option>first</option><option>second</option></select>
			</form>`,
			want: "one=b&many=x+y&many=w&default=first",
		},
		{
			name: "unchecked boxes and radios skipped",
			src: `<form>
				<input type="checkbox" name="c">
				<input type="radio" name="r" value="1">
				<input type="radio" name="r" value="2" checked>
				<input type="checkbox" name="d" checked>
			</form>`,
			want: "r=2&d=on",
		},
		{
			name: "text like controls emit unconditionally",
			src:  `<form><input name="a"><textarea name="b">line one</textarea><input name="">` + `<input type="email" name="e" value="a@b.c"></form>`,
			want: "a=&b=line+one&=&e=a%40b.c",
		},
		{
			name: "forms visited last to first",
			src:  `<form><input name="first" value="1"></form><form><input name="second" value="2"></form>`,
			want: "second=2&first=1",
		},
		{
			name: "form attribute association",
			src:  `<form id="f"><input name="in" value="1"></form><input form="f" name="out" value="2">`,
			want: "in=1&out=2",
		},
		{
			name: "disabled fieldset",
			src:  `<form><fieldset disabled><legend><input name="l" value="1"></legend><input name="x" value="2"></fieldset></form>`,
			want: "l=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root, nodes := forms(t, tt.src)
			if got := SerializeForms(root, nodes); got != tt.want {
				t.Errorf("SerializeForms() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeFormsIgnoresNonForms(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<div><input name="a" value="1"></div>`)
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := doc.QueryAll("div, input")

	if got := SerializeForms(doc.Root, nodes); got != "" {
		t.Errorf("SerializeForms() = %q, want empty", got)
	}
}
