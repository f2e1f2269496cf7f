// Package script runs YAML chain scripts against a document.
package script

import (
	"errors"
	"fmt"
	"io"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/jacoelho/chibi/internal/form"
)

var (
	// ErrScript is the sentinel for malformed or invalid scripts.
	ErrScript = errors.New("script error")
	// ErrExpectation marks a step whose expectation did not hold.
	ErrExpectation = errors.New("expectation failed")
)

// Step is one chain call. A step without query or data reuses the previous
// step's selection.
type Step struct {
	Query    string     `yaml:"query,omitempty"`
	Data     *form.Data `yaml:"data,omitempty"`
	Find     string     `yaml:"find,omitempty"`
	On       string     `yaml:"on,omitempty"`
	Op       string     `yaml:"op"`
	Name     string     `yaml:"name,omitempty"`
	Value    *Values    `yaml:"value,omitempty"`
	From     string     `yaml:"from,omitempty"`
	Action   string     `yaml:"action,omitempty"`
	Location string     `yaml:"location,omitempty"`
	Request  *Request   `yaml:"request,omitempty"`
	Expect   *Expect    `yaml:"expect,omitempty"`
}

// Writes reports whether the step writes rather than reads.
func (s Step) Writes() bool {
	return s.Value != nil || s.From != ""
}

// Request configures an ajax step.
type Request struct {
	URL     string    `yaml:"url"`
	Method  string    `yaml:"method,omitempty"`
	NoCache bool      `yaml:"nocache,omitempty"`
	Target  string    `yaml:"target,omitempty"`
	Extract []Extract `yaml:"extract,omitempty"`
}

// Extract captures one response value by JSONPath or regex.
type Extract struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path,omitempty"`
	Regex string `yaml:"regex,omitempty"`
	Group int    `yaml:"group,omitempty"`
}

// Values holds a written value: a scalar or a list of scalars. Its presence
// in a step marks a write.
type Values struct {
	Items []string
}

func (v *Values) UnmarshalYAML(node ast.Node) error {
	switch n := node.(type) {
	case *ast.NullNode:
		v.Items = nil
		return nil
	case *ast.SequenceNode:
		items := make([]string, 0, len(n.Values))
		for i, item := range n.Values {
			s, err := form.ScalarString(item)
			if err != nil {
				return fmt.Errorf("%w: value at index %d: %v", ErrScript, i, err)
			}
			items = append(items, s)
		}
		v.Items = items
		return nil
	default:
		s, err := form.ScalarString(node)
		if err != nil {
			return fmt.Errorf("%w: value: %v", ErrScript, err)
		}
		v.Items = []string{s}
		return nil
	}
}

// Expect is a predicate over the step's read result, or over a capture
// when Capture is set.
type Expect struct {
	Op       string
	Value    any
	HasValue bool
	Capture  string
}

// UnmarshalYAML decodes:
//
//	op: <operator>
//	value: <any>      # omitted for exists and null
//	capture: <name>   # optional
func (e *Expect) UnmarshalYAML(node ast.Node) error {
	mapNode, ok := node.(*ast.MappingNode)
	if !ok {
		if mv, isPair := node.(*ast.MappingValueNode); isPair {
			mapNode = &ast.MappingNode{Values: []*ast.MappingValueNode{mv}}
		} else {
			return fmt.Errorf("%w: expect must be a mapping", ErrScript)
		}
	}

	for _, pair := range mapNode.Values {
		key, ok := pair.Key.(*ast.StringNode)
		if !ok {
			return fmt.Errorf("%w: expect key must be a string", ErrScript)
		}

		switch key.Value {
		case "op":
			op, err := form.ScalarString(pair.Value)
			if err != nil {
				return fmt.Errorf("%w: expect op: %v", ErrScript, err)
			}
			e.Op = strings.TrimSpace(op)
		case "value":
			value, err := nodeToValue(pair.Value)
			if err != nil {
				return fmt.Errorf("%w: expect value: %v", ErrScript, err)
			}
			e.Value = value
			e.HasValue = true
		case "capture":
			name, err := form.ScalarString(pair.Value)
			if err != nil {
				return fmt.Errorf("%w: expect capture: %v", ErrScript, err)
			}
			e.Capture = name
		default:
			return fmt.Errorf("%w: unsupported expect key %q: use op, value and capture", ErrScript, key.Value)
		}
	}

	if e.Op == "" {
		return fmt.Errorf("%w: expect must specify an op", ErrScript)
	}
	return nil
}

// nodeToValue extracts scalars and sequences of scalars.
func nodeToValue(node ast.Node) (any, error) {
	switch n := node.(type) {
	case *ast.NullNode:
		return nil, nil
	case *ast.SequenceNode:
		out := make([]any, 0, len(n.Values))
		for i, item := range n.Values {
			v, err := nodeToValue(item)
			if err != nil {
				return nil, fmt.Errorf("invalid value at index %d: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return form.ScalarString(node)
	}
}

// Parse decodes a YAML sequence of steps.
func Parse(r io.Reader) ([]Step, error) {
	decoder := yaml.NewDecoder(r)
	var steps []Step

	if err := decoder.Decode(&steps); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: script is empty", ErrScript)
		}
		return nil, fmt.Errorf("%w: failed to decode YAML: %v", ErrScript, err)
	}

	return steps, nil
}
