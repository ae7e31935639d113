// Package cdr defines the call detail record types shared by the parser,
// the enrichment orchestrator and the sinks
package cdr

import (
	"fmt"
	"time"
)

// CallType is the kind of call a record describes
type CallType string

const (
	CallTypeVoice CallType = "voice"
	CallTypeVideo CallType = "video"
)

// CallRecord is one validated data row. Only the parser constructs it; ID and
// Region are trimmed, every other field is the raw token that passed validation.
type CallRecord struct {
	ID            string   `json:"id"`
	CallStartTime string   `json:"callStartTime"`
	CallEndTime   string   `json:"callEndTime"`
	FromNumber    string   `json:"fromNumber"`
	ToNumber      string   `json:"toNumber"`
	CallType      CallType `json:"callType"`
	Region        string   `json:"region"`
}

// ParseDiagnostic reports why one row was rejected. Row is 1-based over
// non-empty lines with the header as row 1. Message may hold several
// violations joined by "; ".
type ParseDiagnostic struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (d ParseDiagnostic) String() string { return fmt.Sprintf("row %d: %s", d.Row, d.Message) }

// ParseResult is the parser output; both slices are in row order
type ParseResult struct {
	Records     []CallRecord      `json:"records"`
	Diagnostics []ParseDiagnostic `json:"diagnostics"`
}

// OperatorInfo is what the operator lookup service reports for a number on a day
type OperatorInfo struct {
	Operator               string  `json:"operator" yaml:"operator" validate:"required,max=128"`
	Country                string  `json:"country" yaml:"country" validate:"required,max=64"`
	EstimatedCostPerMinute float64 `json:"estimatedCostPerMinute" yaml:"estimatedCostPerMinute" validate:"gte=0"`
}

// EnrichedCallRecord is a CallRecord plus derived and looked-up attributes.
// Nil optional fields mean the corresponding lookup failed.
type EnrichedCallRecord struct {
	CallRecord

	Duration      float64  `json:"duration"`
	FromOperator  *string  `json:"fromOperator,omitempty"`
	FromCountry   *string  `json:"fromCountry,omitempty"`
	ToOperator    *string  `json:"toOperator,omitempty"`
	ToCountry     *string  `json:"toCountry,omitempty"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
}

// DayRef is a calendar day used as the operator lookup key
type DayRef struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the UTC calendar day of t
func DayOf(t time.Time) DayRef {
	y, m, d := t.UTC().Date()
	return DayRef{Year: y, Month: m, Day: d}
}

// String renders the day as 2006-01-02
func (d DayRef) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day) }

// IsZero reports whether d is unset
func (d DayRef) IsZero() bool { return d == DayRef{} }

// ParseDay parses a 2006-01-02 date
func ParseDay(s string) (DayRef, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return DayRef{}, err
	}
	return DayOf(t), nil
}

// Batch is the unit handed from intake to the collector
type Batch struct {
	ID         string       `json:"id"`
	ReceivedAt time.Time    `json:"receivedAt"`
	Source     string       `json:"source,omitempty"`
	Records    []CallRecord `json:"records"`
}
