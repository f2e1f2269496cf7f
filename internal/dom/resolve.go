package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// uaDisplay holds the user agent default for display, by tag. Tags not listed
// are inline.
var uaDisplay = map[string]string{
	"html": "block", "body": "block", "address": "block", "article": "block",
	"aside": "block", "blockquote": "block", "dd": "block", "details": "block",
	"dialog": "block", "div": "block", "dl": "block", "dt": "block",
	"fieldset": "block", "figcaption": "block", "figure": "block", "footer": "block",
	"form": "block", "h1": "block", "h2": "block", "h3": "block", "h4": "block",
	"h5": "block", "h6": "block", "header": "block", "hr": "block", "legend": "block",
	"main": "block", "nav": "block", "ol": "block", "p": "block", "pre": "block",
	"section": "block", "summary": "block", "ul": "block", "menu": "block",
	"li": "list-item", "table": "table", "caption": "table-caption", "colgroup": "table-column-group",
	"col": "table-column", "thead": "table-header-group", "tbody": "table-row-group",
	"tfoot": "table-footer-group", "tr": "table-row", "td": "table-cell", "th": "table-cell",
	"head": "none", "script": "none", "style": "none", "title": "none", "meta": "none",
	"link": "none", "base": "none", "template": "none", "noscript": "none",
	"datalist": "none", "area": "none", "param": "none",
	"button": "inline-block", "select": "inline-block", "textarea": "inline-block",
	"input": "inline-block",
}

// inherited lists the properties whose resolved value falls back to the parent.
var inherited = map[string]bool{
	"color":           true,
	"cursor":          true,
	"direction":       true,
	"font":            true,
	"font-family":     true,
	"font-size":       true,
	"font-style":      true,
	"font-variant":    true,
	"font-weight":     true,
	"letter-spacing":  true,
	"line-height":     true,
	"list-style":      true,
	"list-style-type": true,
	"text-align":      true,
	"text-indent":     true,
	"text-transform":  true,
	"visibility":      true,
	"white-space":     true,
	"word-spacing":    true,
}

type styleRule struct {
	selectors []cascadia.Sel
	decls     Declarations
}

// StyleSheet is the set of rules collected from the style elements of a
// document at the time Styles was called.
type StyleSheet struct {
	rules []styleRule
}

// Styles collects the qualified rules of every style element. At-rules and
// selectors that fail to parse are ignored.
func (d *Document) Styles() *StyleSheet {
	sheet := &StyleSheet{}
	Walk(d.Root, func(n *html.Node) bool {
		if Is(n, "style") {
			sheet.add(TextContent(n))
			return false
		}
		return true
	})
	return sheet
}

func (s *StyleSheet) add(text string) {
	parsed, err := parser.Parse(text)
	if err != nil {
		return
	}

	for _, r := range parsed.Rules {
		if r.Kind != css.QualifiedRule {
			continue
		}

		rule := styleRule{}
		for _, raw := range r.Selectors {
			sel, err := cascadia.Parse(strings.TrimSpace(raw))
			if err != nil || sel.PseudoElement() != "" {
				continue
			}
			rule.selectors = append(rule.selectors, sel)
		}
		if len(rule.selectors) == 0 {
			continue
		}

		for _, d := range r.Declarations {
			rule.decls = append(rule.decls, Declaration{
				Property:  strings.ToLower(strings.TrimSpace(d.Property)),
				Value:     strings.TrimSpace(d.Value),
				Important: d.Important,
			})
		}
		s.rules = append(s.rules, rule)
	}
}

type candidate struct {
	value       string
	important   bool
	specificity cascadia.Specificity
	found       bool
}

func (c *candidate) offer(value string, important bool, spec cascadia.Specificity) {
	if !c.found ||
		(important && !c.important) ||
		(important == c.important && !spec.Less(c.specificity)) {
		*c = candidate{value: value, important: important, specificity: spec, found: true}
	}
}

// Resolve returns the resolved value of a hyphenated property for n, or ""
// when no source defines it.
func (s *StyleSheet) Resolve(n *html.Node, property string) string {
	if !IsElement(n) {
		return ""
	}

	var best candidate
	for _, rule := range s.rules {
		spec, ok := matchSpecificity(rule.selectors, n)
		if !ok {
			continue
		}
		for _, decl := range rule.decls {
			if decl.Property == property {
				best.offer(decl.Value, decl.Important, spec)
			}
		}
	}

	for _, decl := range InlineStyle(n) {
		if decl.Property != property {
			continue
		}
		// inline normal declarations lose only to important sheet declarations
		if decl.Important || !best.important {
			best = candidate{value: decl.Value, important: decl.Important, found: true}
		}
	}

	if best.found && best.value != "" && !strings.EqualFold(best.value, "inherit") {
		return best.value
	}

	if inherited[property] || strings.EqualFold(best.value, "inherit") {
		if IsElement(n.Parent) {
			return s.Resolve(n.Parent, property)
		}
		return ""
	}

	if property == "display" {
		if HasAttr(n, "hidden") {
			return "none"
		}
		if v, ok := uaDisplay[n.Data]; ok {
			return v
		}
		return "inline"
	}

	return ""
}

func matchSpecificity(selectors []cascadia.Sel, n *html.Node) (cascadia.Specificity, bool) {
	var (
		best    cascadia.Specificity
		matched bool
	)
	for _, sel := range selectors {
		if !sel.Match(n) {
			continue
		}
		spec := sel.Specificity()
		if !matched || best.Less(spec) {
			best = spec
		}
		matched = true
	}
	return best, matched
}

// ResolvedStyle resolves a single property against the current style elements.
func (d *Document) ResolvedStyle(n *html.Node, property string) string {
	return d.Styles().Resolve(n, property)
}
