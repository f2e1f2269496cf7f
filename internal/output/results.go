package output

import (
	"time"
)

// Record is the outcome of one script step.
type Record struct {
	Step  int
	Phase string
	Op    string
	Query string
	// Value is the read result: nil, a string, or a slice. HasValue is
	// false for writes.
	Value    any
	HasValue bool
	Error    error
}

type RecordBuilder struct {
	record Record
}

func NewRecordBuilder(step int, op string) *RecordBuilder {
	return &RecordBuilder{record: Record{Step: step, Op: op}}
}

func (b *RecordBuilder) WithPhase(phase string) *RecordBuilder {
	b.record.Phase = phase
	return b
}

func (b *RecordBuilder) WithQuery(query string) *RecordBuilder {
	b.record.Query = query
	return b
}

func (b *RecordBuilder) WithValue(value any) *RecordBuilder {
	b.record.Value = value
	b.record.HasValue = true
	return b
}

func (b *RecordBuilder) WithError(err error) *RecordBuilder {
	b.record.Error = err
	return b
}

func (b *RecordBuilder) Build() Record {
	return b.record
}

type Summary struct {
	Records          []Record
	Captures         map[string]any
	ExecutedSteps    int
	SucceededSteps   int
	FailedSteps      int
	ExecutedRequests int
	TotalDuration    time.Duration
}

func NewSummary(expectedSteps int) *Summary {
	return &Summary{
		Records:  make([]Record, 0, expectedSteps),
		Captures: make(map[string]any),
	}
}

func (s *Summary) Add(builder *RecordBuilder) {
	record := builder.Build()

	s.Records = append(s.Records, record)
	s.ExecutedSteps++

	if record.Error != nil {
		s.FailedSteps++
	} else {
		s.SucceededSteps++
	}
}

// AddRequest counts one completed transport request.
func (s *Summary) AddRequest() {
	s.ExecutedRequests++
}

func (s *Summary) SetTotalDuration(duration time.Duration) {
	s.TotalDuration = duration
}

// Failed reports whether any step failed.
func (s *Summary) Failed() bool {
	return s.FailedSteps > 0
}

func (s *Summary) RequestsPerSecond() float64 {
	if s.TotalDuration == 0 {
		return 0
	}
	return float64(s.ExecutedRequests) / s.TotalDuration.Seconds()
}

func (s *Summary) SuccessPercentage() float64 {
	if s.ExecutedSteps == 0 {
		return 0
	}
	return (float64(s.SucceededSteps) / float64(s.ExecutedSteps)) * 100
}

func (s *Summary) FailurePercentage() float64 {
	if s.ExecutedSteps == 0 {
		return 0
	}
	return (float64(s.FailedSteps) / float64(s.ExecutedSteps)) * 100
}
