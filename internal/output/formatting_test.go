package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sampleSummary() *Summary {
	s := NewSummary(3)
	s.Add(NewRecordBuilder(1, "hide").WithQuery("#a"))
	s.Add(NewRecordBuilder(2, "val").WithPhase("ready").WithQuery("input").WithValue([]any{"2", nil}))
	s.Add(NewRecordBuilder(3, "attr").WithValue(nil).WithError(errors.New("expected equals \"x\"")))
	s.AddRequest()
	s.Captures["token"] = "abc"
	s.SetTotalDuration(2 * time.Second)
	return s
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleSummary().Format(FormatText, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := strings.Join([]string{
		`step 1 hide #a: ok`,
		`step 2 val [ready] input: ["2",null]`,
		`step 3 attr: FAILED: expected equals "x"`,
		`--------------------------------------------------------------------------------`,
		`Captured token = "abc"`,
		`Executed steps:    3`,
		`Executed requests: 1 (0.50/s)`,
		`Succeeded steps:   2 (66.7%)`,
		`Failed steps:      1 (33.3%)`,
		`Duration:          2000 ms`,
		``,
	}, "\n")

	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleSummary().Format(FormatJSON, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var got struct {
		Records []map[string]any `json:"records"`
		Failed  int              `json:"failed_steps"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if got.Failed != 1 || len(got.Records) != 3 {
		t.Fatalf("summary = %+v", got)
	}
	if _, ok := got.Records[0]["value"]; ok {
		t.Errorf("write record carries a value: %v", got.Records[0])
	}
	if v, ok := got.Records[2]["value"]; !ok || v != nil {
		t.Errorf("null read value = %v, present %v", v, ok)
	}
	if got.Records[2]["success"] != false {
		t.Errorf("failed record success = %v", got.Records[2]["success"])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "TEXT", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSummaryPercentages(t *testing.T) {
	empty := NewSummary(0)
	if empty.SuccessPercentage() != 0 || empty.FailurePercentage() != 0 || empty.RequestsPerSecond() != 0 {
		t.Error("empty summary percentages are not zero")
	}
	if empty.Failed() {
		t.Error("empty summary Failed() = true")
	}
	if !sampleSummary().Failed() {
		t.Error("Failed() = false with a failed step")
	}
}
