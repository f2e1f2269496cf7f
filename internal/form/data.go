package form

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml/ast"
)

var ErrData = errors.New("form data error")

// Entry is one key of a plain data structure. A scalar carries one value, a
// sequence carries one value per element.
type Entry struct {
	Key    string
	Values []string
}

// Data is a plain key/value structure that preserves insertion order.
type Data []Entry

// Add appends a key. value may be a scalar or a slice; slices emit one pair
// per element.
func (d *Data) Add(key string, value any) {
	*d = append(*d, Entry{Key: key, Values: toStrings(value)})
}

// Get returns the values of the last entry with key.
func (d Data) Get(key string) ([]string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Key == key {
			return d[i].Values, true
		}
	}
	return nil, false
}

// FromMap builds Data from a Go map. Map iteration order is random, so keys
// are sorted.
func FromMap(m map[string]any) Data {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(Data, 0, len(keys))
	for _, k := range keys {
		out.Add(k, m[k])
	}
	return out
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out
	default:
		return []string{scalarString(v)}
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// UnmarshalYAML supports both mapping and sequence forms:
// data:
//
//	a: 1
//	b: [2, 3]
//
// or:
// data:
//   - key: a
//     value: 1
func (d *Data) UnmarshalYAML(node ast.Node) error {
	switch n := node.(type) {
	case *ast.MappingValueNode:
		return d.UnmarshalYAML(&ast.MappingNode{Values: []*ast.MappingValueNode{n}})
	case *ast.MappingNode:
		out := make(Data, 0, len(n.Values))
		for _, pair := range n.Values {
			key, err := ScalarString(pair.Key)
			if err != nil {
				return fmt.Errorf("%w: data key must be scalar: %v", ErrData, err)
			}

			values, err := nodeToStrings(pair.Value)
			if err != nil {
				return fmt.Errorf("%w: invalid value for key %q: %v", ErrData, key, err)
			}
			out = append(out, Entry{Key: key, Values: values})
		}
		*d = out
		return nil
	case *ast.SequenceNode:
		out := make(Data, 0, len(n.Values))
		for index, item := range n.Values {
			mapNode, ok := item.(*ast.MappingNode)
			if !ok {
				return fmt.Errorf("%w: data entry at index %d must be mapping", ErrData, index)
			}

			var (
				entry    Entry
				hasKey   bool
				hasValue bool
			)

			for _, pair := range mapNode.Values {
				field, ok := pair.Key.(*ast.StringNode)
				if !ok {
					return fmt.Errorf("%w: data entry field key must be string", ErrData)
				}

				switch field.Value {
				case "key":
					key, err := ScalarString(pair.Value)
					if err != nil {
						return fmt.Errorf("%w: data entry key: %v", ErrData, err)
					}
					entry.Key = key
					hasKey = true
				case "value":
					values, err := nodeToStrings(pair.Value)
					if err != nil {
						return fmt.Errorf("%w: invalid data entry value: %v", ErrData, err)
					}
					entry.Values = values
					hasValue = true
				default:
					return fmt.Errorf("%w: data entry unknown field %q", ErrData, field.Value)
				}
			}

			if !hasKey {
				return fmt.Errorf("%w: data entry at index %d missing key", ErrData, index)
			}
			if !hasValue {
				return fmt.Errorf("%w: data entry at index %d missing value", ErrData, index)
			}
			out = append(out, entry)
		}
		*d = out
		return nil
	default:
		return fmt.Errorf("%w: data must be mapping or sequence", ErrData)
	}
}

func nodeToStrings(node ast.Node) ([]string, error) {
	seq, ok := node.(*ast.SequenceNode)
	if !ok {
		v, err := ScalarString(node)
		if err != nil {
			return nil, err
		}
		return []string{v}, nil
	}

	out := make([]string, 0, len(seq.Values))
	for _, item := range seq.Values {
		v, err := ScalarString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ScalarString renders a YAML scalar node as text. Null renders empty.
func ScalarString(node ast.Node) (string, error) {
	switch n := node.(type) {
	case *ast.NullNode:
		return "", nil
	case *ast.StringNode:
		return n.Value, nil
	case *ast.LiteralNode:
		if n.Value == nil {
			return "", nil
		}
		return n.Value.Value, nil
	case *ast.IntegerNode:
		if n.Value == nil {
			return "", fmt.Errorf("integer node has nil value")
		}
		if v, ok := n.Value.(int64); ok {
			return strconv.FormatInt(v, 10), nil
		}
		if v, ok := n.Value.(uint64); ok {
			return strconv.FormatUint(v, 10), nil
		}
		return "", fmt.Errorf("unexpected integer node value type: %T", n.Value)
	case *ast.FloatNode:
		return strconv.FormatFloat(n.Value, 'f', -1, 64), nil
	case *ast.BoolNode:
		if n.Value {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("value must be scalar, got %T", node)
	}
}
