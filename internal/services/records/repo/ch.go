package repo

import (
	"context"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/modkit/repokit"
	perr "cdrflow/internal/platform/errors"
)

// SearchTable is the ClickHouse table the index writes to
const SearchTable = "call_records_search"

// CHSink indexes enriched records into ClickHouse
type CHSink struct {
	ch    repokit.Clickhouse
	table string
}

// NewCHSink builds an index sink; an empty table means SearchTable
func NewCHSink(ch repokit.Clickhouse, table string) *CHSink {
	if table == "" {
		table = SearchTable
	}
	return &CHSink{ch: ch, table: table}
}

// Index sends recs as one ClickHouse batch
func (c *CHSink) Index(ctx context.Context, batchID string, recs []cdr.EnrichedCallRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows, err := rowsOf(batchID, recs)
	if err != nil {
		return err
	}
	if err := c.ch.Insert(ctx, c.table, rows); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "index batch %s", batchID)
	}
	return nil
}
