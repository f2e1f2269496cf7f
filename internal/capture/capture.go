// Package capture extracts values from response bodies.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/theory/jsonpath"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid capture input")
	ErrExtraction   = errors.New("extraction failed")
)

// ParseJSONBody decodes a JSON response payload once so several paths can
// reuse it.
func ParseJSONBody(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrInvalidInput)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON data: %v", ErrExtraction, err)
	}

	return data, nil
}

// JSONPath selects the first value matching pathExpr from decoded data.
func JSONPath(data any, pathExpr string) (any, error) {
	if pathExpr == "" {
		return nil, fmt.Errorf("%w: JSONPath expression is empty", ErrInvalidInput)
	}

	path, err := jsonpath.Parse(pathExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSONPath %s: %v", ErrExtraction, pathExpr, err)
	}

	results := path.Select(data)
	if len(results) > 0 {
		return results[0], nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, pathExpr)
}

// Regex returns a capture group of the first match: 0 is the whole match.
func Regex(body []byte, pattern string, group int) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("%w: regex pattern is empty", ErrInvalidInput)
	}
	if group < 0 {
		return "", fmt.Errorf("%w: capture group must be >= 0, got: %d", ErrInvalidInput, group)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: invalid regex pattern %s: %v", ErrInvalidInput, pattern, err)
	}

	matches := re.FindSubmatch(body)
	if matches == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, pattern)
	}
	if group >= len(matches) {
		return "", fmt.Errorf("%w: invalid capture group %d for pattern (found %d groups)",
			ErrExtraction, group, len(matches)-1)
	}

	return string(matches[group]), nil
}
