package predicate

import (
	"errors"
	"testing"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "supported", input: "equals"},
		{name: "supported_null", input: "null"},
		{name: "unsupported", input: "bad", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOperator(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOperator() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateExpr(t *testing.T) {
	tests := []struct {
		name    string
		expr    Expr
		wantErr error
	}{
		{name: "exists_without_value", expr: Expr{Op: OpExists}},
		{name: "null_with_value", expr: Expr{Op: OpNull, Value: "x", HasValue: true}, wantErr: ErrInvalidInput},
		{name: "equals_without_value", expr: Expr{Op: OpEquals}, wantErr: ErrInvalidInput},
		{name: "equals_with_null_value", expr: Expr{Op: OpEquals, HasValue: true}},
		{name: "unknown", expr: Expr{Op: "bogus"}, wantErr: ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpr(tt.expr)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateExpr() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateExpr() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	evaluator := NewEvaluator()

	tests := []struct {
		name   string
		op     Operator
		actual any
		value  any
		want   bool
	}{
		{name: "equals_string", op: OpEquals, actual: "a", value: "a", want: true},
		{name: "equals_number_as_string", op: OpEquals, actual: "1", value: uint64(1), want: true},
		{name: "equals_bool_as_string", op: OpEquals, actual: "true", value: true, want: true},
		{name: "equals_null", op: OpEquals, actual: nil, value: nil, want: true},
		{name: "equals_string_slice_and_list", op: OpEquals, actual: []string{"a", "c"}, value: []any{"a", "c"}, want: true},
		{name: "equals_nested_null", op: OpEquals, actual: []any{"2", nil}, value: []any{"2", nil}, want: true},
		{name: "equals_mismatch", op: OpEquals, actual: "a", value: "b"},
		{name: "not_equals", op: OpNotEquals, actual: "a", value: "b", want: true},
		{name: "contains_substring", op: OpContains, actual: "hello", value: "ell", want: true},
		{name: "contains_item", op: OpContains, actual: []string{"a", "b"}, value: "b", want: true},
		{name: "contains_missing_item", op: OpContains, actual: []any{"a"}, value: "b"},
		{name: "regex", op: OpRegex, actual: "a=1&b=2", value: `^a=\d`, want: true},
		{name: "exists_string", op: OpExists, actual: "x", want: true},
		{name: "exists_empty_string", op: OpExists, actual: ""},
		{name: "exists_nil", op: OpExists, actual: nil},
		{name: "null", op: OpNull, actual: nil, want: true},
		{name: "null_on_text", op: OpNull, actual: "x"},
		{name: "length_list", op: OpLength, actual: []any{"a", nil}, value: 2, want: true},
		{name: "length_string", op: OpLength, actual: "abc", value: "3", want: true},
		{name: "length_null", op: OpLength, actual: nil, value: uint64(0), want: true},
		{name: "starts_with", op: OpStartsWith, actual: "display: none;", value: "display", want: true},
		{name: "ends_with", op: OpEndsWith, actual: "display: none;", value: "none;", want: true},
		{name: "in", op: OpIn, actual: "b", value: []any{"a", "b"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := Expr{Op: tt.op, Value: tt.value, HasValue: !valueless[tt.op]}
			got, err := evaluator.Evaluate(expr, tt.actual)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateInvalidInput(t *testing.T) {
	evaluator := NewEvaluator()

	tests := []struct {
		name   string
		expr   Expr
		actual any
	}{
		{name: "regex_on_list", expr: Expr{Op: OpRegex, Value: "a", HasValue: true}, actual: []string{"a"}},
		{name: "bad_regex", expr: Expr{Op: OpRegex, Value: "(", HasValue: true}, actual: "a"},
		{name: "length_not_integer", expr: Expr{Op: OpLength, Value: "x", HasValue: true}, actual: "a"},
		{name: "in_scalar", expr: Expr{Op: OpIn, Value: "a", HasValue: true}, actual: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := evaluator.Evaluate(tt.expr, tt.actual); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Evaluate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
