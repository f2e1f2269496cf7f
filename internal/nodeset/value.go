package nodeset

import (
	"strings"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is one read value: null, a string, or a list of strings.
type Value struct {
	kind ValueKind
	text string
	list []string
}

func NullValue() Value {
	return Value{kind: KindNull}
}

func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

func ListValue(items []string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Text returns the string of a text value.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// List returns the items of the value. A text value is a one-item list and
// null is empty.
func (v Value) List() []string {
	switch v.kind {
	case KindText:
		return []string{v.text}
	case KindList:
		return append([]string(nil), v.list...)
	case KindNull:
	}
	return nil
}

// Interface returns nil, a string, or a []string.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindList:
		return v.List()
	case KindNull:
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindList:
		return "[" + strings.Join(v.list, ", ") + "]"
	case KindNull:
	}
	return "null"
}

// Result is the ordered outcome of a read: zero or one Value per node.
type Result struct {
	values []Value
}

// newResult reverses values accumulated while walking nodes tail to head.
func newResult(walked []Value) Result {
	out := make([]Value, len(walked))
	for i, v := range walked {
		out[len(walked)-1-i] = v
	}
	return Result{values: out}
}

// Ok reports whether anything was read.
func (r Result) Ok() bool {
	return len(r.values) > 0
}

func (r Result) Len() int {
	return len(r.values)
}

func (r Result) Values() []Value {
	return append([]Value(nil), r.values...)
}

// One returns the sole value of a single-value result.
func (r Result) One() (Value, bool) {
	if len(r.values) != 1 {
		return Value{}, false
	}
	return r.values[0], true
}

// Interface collapses the result: nil when empty, the sole value's
// Interface when single, otherwise a []any of each value's Interface.
func (r Result) Interface() any {
	switch len(r.values) {
	case 0:
		return nil
	case 1:
		return r.values[0].Interface()
	}

	out := make([]any, len(r.values))
	for i, v := range r.values {
		out[i] = v.Interface()
	}
	return out
}

func (r Result) String() string {
	switch len(r.values) {
	case 0:
		return ""
	case 1:
		return r.values[0].String()
	}

	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
