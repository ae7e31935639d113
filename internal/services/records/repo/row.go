// Package repo provides the Postgres and ClickHouse call record sinks
package repo

import (
	"cdrflow/internal/core/cdr"
	"cdrflow/internal/core/fieldcheck"
	perr "cdrflow/internal/platform/errors"
)

// columns is the column order shared by call_records and call_records_search
var columns = []string{
	"id", "call_start_time", "call_end_time", "from_number", "to_number",
	"call_type", "region", "duration_s", "from_operator", "from_country",
	"to_operator", "to_country", "estimated_cost", "batch_id",
}

// values flattens one record in column order. Absent enrichment stays a nil
// pointer so both drivers write NULL.
func values(batchID string, r cdr.EnrichedCallRecord) ([]any, error) {
	start, ok := fieldcheck.ParseTimestamp(r.CallStartTime)
	if !ok {
		return nil, perr.InvalidArgf("record %s: bad callStartTime %q", r.ID, r.CallStartTime)
	}
	end, ok := fieldcheck.ParseTimestamp(r.CallEndTime)
	if !ok {
		return nil, perr.InvalidArgf("record %s: bad callEndTime %q", r.ID, r.CallEndTime)
	}
	return []any{
		r.ID, start.UTC(), end.UTC(), r.FromNumber, r.ToNumber,
		string(r.CallType), r.Region, r.Duration, r.FromOperator, r.FromCountry,
		r.ToOperator, r.ToCountry, r.EstimatedCost, batchID,
	}, nil
}

func rowsOf(batchID string, recs []cdr.EnrichedCallRecord) ([][]any, error) {
	out := make([][]any, 0, len(recs))
	for _, r := range recs {
		v, err := values(batchID, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

