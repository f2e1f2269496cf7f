// Package predicate evaluates expectations against read results. Actual
// values are nil, a string, or a list; expected scalars compare by their
// string form.
package predicate

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrInvalidInput = errors.New("invalid predicate input")
	ErrUnsupported  = errors.New("unsupported predicate operation")
)

type Operator string

const (
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "not_equals"
	OpContains   Operator = "contains"
	OpRegex      Operator = "regex"
	OpExists     Operator = "exists"
	OpNull       Operator = "null"
	OpLength     Operator = "length"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpIn         Operator = "in"
)

type Expr struct {
	Op       Operator
	Value    any
	HasValue bool
}

var supportedOperatorSet = map[Operator]struct{}{
	OpEquals:     {},
	OpNotEquals:  {},
	OpContains:   {},
	OpRegex:      {},
	OpExists:     {},
	OpNull:       {},
	OpLength:     {},
	OpStartsWith: {},
	OpEndsWith:   {},
	OpIn:         {},
}

// valueless operators must not carry an expected value.
var valueless = map[Operator]bool{
	OpExists: true,
	OpNull:   true,
}

type cachedRegexCompiler struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func newCachedRegexCompiler() *cachedRegexCompiler {
	return &cachedRegexCompiler{
		patterns: make(map[string]*regexp.Regexp),
	}
}

func (c *cachedRegexCompiler) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	if compiled, ok := c.patterns[pattern]; ok {
		c.mu.RUnlock()
		return compiled, nil
	}
	c.mu.RUnlock()

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex %q: %v", ErrInvalidInput, pattern, err)
	}

	c.mu.Lock()
	c.patterns[pattern] = compiled
	c.mu.Unlock()

	return compiled, nil
}

type operationFunc func(actual any, expected any) (bool, error)

type Evaluator struct {
	regex      *cachedRegexCompiler
	operations map[Operator]operationFunc
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{regex: newCachedRegexCompiler()}

	e.operations = map[Operator]operationFunc{
		OpEquals: func(actual, expected any) (bool, error) {
			return equalValues(actual, expected), nil
		},
		OpNotEquals: func(actual, expected any) (bool, error) {
			return !equalValues(actual, expected), nil
		},
		OpContains: evaluateContains,
		OpRegex:    e.evaluateRegex,
		OpExists: func(actual, _ any) (bool, error) {
			return evaluateExists(actual), nil
		},
		OpNull: func(actual, _ any) (bool, error) {
			return actual == nil, nil
		},
		OpLength: evaluateLength,
		OpStartsWith: func(actual, expected any) (bool, error) {
			return evaluateStringComparison(OpStartsWith, actual, expected, strings.HasPrefix)
		},
		OpEndsWith: func(actual, expected any) (bool, error) {
			return evaluateStringComparison(OpEndsWith, actual, expected, strings.HasSuffix)
		},
		OpIn: evaluateIn,
	}

	return e
}

func ParseOperator(input string) (Operator, error) {
	op := Operator(input)
	if _, ok := supportedOperatorSet[op]; ok {
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, input)
}

func ValidateExpr(expr Expr) error {
	if _, ok := supportedOperatorSet[expr.Op]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupported, expr.Op)
	}

	if valueless[expr.Op] {
		if expr.HasValue {
			return fmt.Errorf("%w: operation %q does not accept a value", ErrInvalidInput, expr.Op)
		}
		return nil
	}

	if !expr.HasValue {
		return fmt.Errorf("%w: operation %q requires a value", ErrInvalidInput, expr.Op)
	}
	return nil
}

func (e *Evaluator) Evaluate(expr Expr, actual any) (bool, error) {
	if err := ValidateExpr(expr); err != nil {
		return false, err
	}

	opFunc, ok := e.operations[expr.Op]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnsupported, expr.Op)
	}

	return opFunc(Normalize(actual), Normalize(expr.Value))
}

// Normalize maps a value to nil, a string, or []any of normalized items.
// Numbers and booleans become their string form.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Normalize(item)
		}
		return out
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

func equalValues(actual, expected any) bool {
	switch a := actual.(type) {
	case nil:
		return expected == nil
	case string:
		e, ok := expected.(string)
		return ok && a == e
	case []any:
		e, ok := expected.([]any)
		return ok && slices.EqualFunc(a, e, equalValues)
	}
	return false
}

// evaluateContains matches a substring of a string or an item of a list.
func evaluateContains(actual, expected any) (bool, error) {
	switch a := actual.(type) {
	case []any:
		return slices.ContainsFunc(a, func(item any) bool {
			return equalValues(item, expected)
		}), nil
	default:
		return evaluateStringComparison(OpContains, actual, expected, strings.Contains)
	}
}

func (e *Evaluator) evaluateRegex(actual any, expected any) (bool, error) {
	actualString, expectedString, err := requireStringPair(OpRegex, actual, expected)
	if err != nil {
		return false, err
	}

	regex, err := e.regex.Compile(expectedString)
	if err != nil {
		return false, err
	}
	return regex.MatchString(actualString), nil
}

func evaluateExists(actual any) bool {
	switch a := actual.(type) {
	case nil:
		return false
	case string:
		return a != ""
	case []any:
		return len(a) > 0
	}
	return true
}

// evaluateLength counts list items or string bytes. Null has length 0.
func evaluateLength(actual, expected any) (bool, error) {
	want, err := strconv.Atoi(fmt.Sprint(expected))
	if err != nil {
		return false, fmt.Errorf("%w: %q requires integer expected value: %v", ErrInvalidInput, OpLength, err)
	}

	switch a := actual.(type) {
	case nil:
		return want == 0, nil
	case string:
		return len(a) == want, nil
	case []any:
		return len(a) == want, nil
	}
	return false, fmt.Errorf("%w: %q requires string or list actual value, got %T", ErrInvalidInput, OpLength, actual)
}

func evaluateIn(actual, expected any) (bool, error) {
	candidates, ok := expected.([]any)
	if !ok {
		return false, fmt.Errorf("%w: %q requires list expected value, got %T", ErrInvalidInput, OpIn, expected)
	}

	return slices.ContainsFunc(candidates, func(candidate any) bool {
		return equalValues(actual, candidate)
	}), nil
}

func evaluateStringComparison(op Operator, actual, expected any, compare func(actual string, expected string) bool) (bool, error) {
	actualString, expectedString, err := requireStringPair(op, actual, expected)
	if err != nil {
		return false, err
	}

	return compare(actualString, expectedString), nil
}

func requireStringPair(op Operator, actual, expected any) (string, string, error) {
	actualString, ok := actual.(string)
	if !ok {
		return "", "", fmt.Errorf("%w: %q requires string actual value, got %T", ErrInvalidInput, op, actual)
	}

	expectedString, ok := expected.(string)
	if !ok {
		return "", "", fmt.Errorf("%w: %q requires string expected value, got %T", ErrInvalidInput, op, expected)
	}

	return actualString, expectedString, nil
}
