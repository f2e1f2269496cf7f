package dom

import (
	"strings"
	"unicode"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Declaration is one property: value pair of a style declaration block.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Declarations is an ordered declaration block, as held by a style attribute.
type Declarations []Declaration

// ParseDeclarations parses a declaration block. Unparsable input yields an
// empty block.
func ParseDeclarations(text string) Declarations {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parsed, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil
	}

	out := make(Declarations, 0, len(parsed))
	for _, d := range parsed {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		if prop == "" {
			continue
		}
		out.set(Declaration{
			Property:  prop,
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return out
}

// Get returns the value of a hyphenated property name.
func (d Declarations) Get(property string) (string, bool) {
	for _, decl := range d {
		if decl.Property == property {
			return decl.Value, true
		}
	}
	return "", false
}

// Set assigns a property in place, keeping its position. An empty value
// removes the property.
func (d *Declarations) Set(property, value string) {
	if value == "" {
		d.Remove(property)
		return
	}
	d.set(Declaration{Property: property, Value: value})
}

func (d *Declarations) set(decl Declaration) {
	for i := range *d {
		if (*d)[i].Property == decl.Property {
			(*d)[i] = decl
			return
		}
	}
	*d = append(*d, decl)
}

// Remove drops a property.
func (d *Declarations) Remove(property string) {
	kept := (*d)[:0]
	for _, decl := range *d {
		if decl.Property != property {
			kept = append(kept, decl)
		}
	}
	*d = kept
}

// String renders the block the way cssText does: "a: b; c: d;".
func (d Declarations) String() string {
	parts := make([]string, 0, len(d))
	for _, decl := range d {
		value := decl.Value
		if decl.Important {
			value += " !important"
		}
		parts = append(parts, decl.Property+": "+value+";")
	}
	return strings.Join(parts, " ")
}

// InlineStyle parses the style attribute of n.
func InlineStyle(n *html.Node) Declarations {
	text, _ := Attr(n, "style")
	return ParseDeclarations(text)
}

// SetInlineStyle writes the block back to the style attribute. An empty block
// removes the attribute.
func SetInlineStyle(n *html.Node, decls Declarations) {
	if len(decls) == 0 {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", decls.String())
}

// PropertyName normalizes a style property name to its hyphenated form.
// "backgroundColor" and "background-color" both yield "background-color".
// It reports false for names that are not valid CSS identifiers.
func PropertyName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if name == "cssFloat" {
		return "float", true
	}

	var sb strings.Builder
	for _, r := range name {
		// a leading capital is a vendor prefix: WebkitTransform
		if unicode.IsUpper(r) {
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}

	prop := sb.String()
	if !validProperty(prop) {
		return "", false
	}
	return prop, true
}

func validProperty(prop string) bool {
	body := strings.TrimLeft(prop, "-")
	if body == "" || len(prop)-len(body) > 2 {
		return false
	}
	if body[0] < 'a' || body[0] > 'z' {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return false
	}
	return true
}

// ValidValue reports whether a value can be stored in a declaration block
// without breaking it.
func ValidValue(value string) bool {
	return !strings.ContainsAny(value, ";{}")
}
