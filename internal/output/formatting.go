// Package output renders script run summaries as text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// OutputFormat represents the report format.
type OutputFormat int

const (
	FormatText OutputFormat = iota
	FormatJSON
)

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unsupported format %q: use text or json", s)
}

// Format formats the summary in the specified format to the given writer.
func (s *Summary) Format(format OutputFormat, w io.Writer) error {
	switch format {
	case FormatJSON:
		return s.formatJSON(w)
	case FormatText:
		fallthrough
	default:
		return s.formatText(w)
	}
}

// FormatText is a convenience method for formatting as text.
func (s *Summary) FormatText(w io.Writer) error {
	return s.Format(FormatText, w)
}

func (s *Summary) formatText(w io.Writer) error {
	for _, record := range s.Records {
		if _, err := fmt.Fprintln(w, recordLine(record)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "--------------------------------------------------------------------------------"); err != nil {
		return err
	}

	for _, name := range sortedKeys(s.Captures) {
		if _, err := fmt.Fprintf(w, "Captured %s = %s\n", name, renderValue(s.Captures[name])); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Executed steps:    %d\n", s.ExecutedSteps); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Executed requests: %d (%.2f/s)\n", s.ExecutedRequests, s.RequestsPerSecond()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Succeeded steps:   %d (%.1f%%)\n", s.SucceededSteps, s.SuccessPercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Failed steps:      %d (%.1f%%)\n", s.FailedSteps, s.FailurePercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Duration:          %d ms\n", s.TotalDuration.Milliseconds()); err != nil {
		return err
	}

	return nil
}

func recordLine(record Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "step %d %s", record.Step, record.Op)
	if record.Phase != "" {
		fmt.Fprintf(&sb, " [%s]", record.Phase)
	}
	if record.Query != "" {
		fmt.Fprintf(&sb, " %s", record.Query)
	}
	sb.WriteString(": ")

	switch {
	case record.Error != nil:
		fmt.Fprintf(&sb, "FAILED: %v", record.Error)
	case record.HasValue:
		sb.WriteString(renderValue(record.Value))
	default:
		sb.WriteString("ok")
	}
	return sb.String()
}

func renderValue(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type jsonRecord struct {
	Step    int    `json:"step"`
	Phase   string `json:"phase,omitempty"`
	Op      string `json:"op"`
	Query   string `json:"query,omitempty"`
	Value   any    `json:"value,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type jsonSummary struct {
	Records              []jsonRecord   `json:"records"`
	Captures             map[string]any `json:"captures,omitempty"`
	ExecutedSteps        int            `json:"executed_steps"`
	ExecutedRequests     int            `json:"executed_requests"`
	SucceededSteps       int            `json:"succeeded_steps"`
	FailedSteps          int            `json:"failed_steps"`
	DurationMilliseconds int64          `json:"duration_ms"`
	RequestsPerSecond    float64        `json:"requests_per_second"`
	SuccessPercentage    float64        `json:"success_percentage"`
	FailurePercentage    float64        `json:"failure_percentage"`
}

func (s *Summary) toJSONSummary() jsonSummary {
	records := make([]jsonRecord, 0, len(s.Records))
	for _, record := range s.Records {
		item := jsonRecord{
			Step:    record.Step,
			Phase:   record.Phase,
			Op:      record.Op,
			Query:   record.Query,
			Success: record.Error == nil,
		}
		if record.HasValue {
			item.Value = jsonValue(record.Value)
		}
		if record.Error != nil {
			item.Error = record.Error.Error()
		}
		records = append(records, item)
	}

	return jsonSummary{
		Records:              records,
		Captures:             s.Captures,
		ExecutedSteps:        s.ExecutedSteps,
		ExecutedRequests:     s.ExecutedRequests,
		SucceededSteps:       s.SucceededSteps,
		FailedSteps:          s.FailedSteps,
		DurationMilliseconds: s.TotalDuration.Milliseconds(),
		RequestsPerSecond:    s.RequestsPerSecond(),
		SuccessPercentage:    s.SuccessPercentage(),
		FailurePercentage:    s.FailurePercentage(),
	}
}

// jsonValue keeps a read null distinct from an omitted write value.
func jsonValue(value any) any {
	if value == nil {
		return json.RawMessage("null")
	}
	return value
}

func (s *Summary) formatJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.toJSONSummary())
}
