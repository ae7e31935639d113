// Package domain defines the ports of the enrichment service
package domain

import (
	"context"

	"cdrflow/internal/core/cdr"
)

// OperatorLookup resolves the operator serving number on day. Implementations
// own their timeouts, retries and concurrency limits.
type OperatorLookup interface {
	Lookup(ctx context.Context, number string, day cdr.DayRef) (cdr.OperatorInfo, error)
}

// LookupFunc adapts a function to OperatorLookup
type LookupFunc func(ctx context.Context, number string, day cdr.DayRef) (cdr.OperatorInfo, error)

// Lookup calls f
func (f LookupFunc) Lookup(ctx context.Context, number string, day cdr.DayRef) (cdr.OperatorInfo, error) {
	return f(ctx, number, day)
}

// EnricherPort is what the collector depends on
type EnricherPort interface {
	Enrich(ctx context.Context, rec cdr.CallRecord) cdr.EnrichedCallRecord
	EnrichAll(ctx context.Context, recs []cdr.CallRecord) []cdr.EnrichedCallRecord
	EnrichAllWithStats(ctx context.Context, recs []cdr.CallRecord) ([]cdr.EnrichedCallRecord, Stats)
}

// Stats counts lookup outcomes for one EnrichAll call
type Stats struct {
	Records    int `json:"records"`
	FromFailed int `json:"from_failed"`
	ToFailed   int `json:"to_failed"`
}
