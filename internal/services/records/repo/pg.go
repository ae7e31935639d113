package repo

import (
	"context"
	"fmt"
	"strings"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/modkit/repokit"
	perr "cdrflow/internal/platform/errors"
)

// Storage is the call_records table bound to a Queryer
type Storage interface {
	// InsertRecords writes rows, skipping ids already present, and returns
	// how many were inserted
	InsertRecords(ctx context.Context, rows [][]any) (int64, error)
}

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// InsertRecords implements Storage
func (s *pg) InsertRecords(ctx context.Context, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n := len(columns)

	var sb strings.Builder
	sb.WriteString("INSERT INTO call_records (" + strings.Join(columns, ", ") + ") VALUES ")
	args := make([]any, 0, len(rows)*n)
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for j := range n {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", i*n+j+1)
		}
		sb.WriteByte(')')
		args = append(args, r...)
	}
	// Re-delivered batches are harmless
	sb.WriteString(" ON CONFLICT (id) DO NOTHING")

	tag, err := s.q.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ChunkRows caps rows per statement; 14 columns keeps it well under the
// 65535 bind parameter limit
const ChunkRows = 1000

// PGSink persists enriched records into Postgres
type PGSink struct {
	tx     repokit.TxRunner
	binder repokit.Binder[Storage]
}

// NewPGSink builds a sink over tx. Hooks such as repokit.StatementTimeout
// are applied by the caller through repokit.WithBeginHooks.
func NewPGSink(tx repokit.TxRunner) *PGSink {
	return &PGSink{tx: tx, binder: NewPG()}
}

// Persist writes recs in one transaction
func (p *PGSink) Persist(ctx context.Context, batchID string, recs []cdr.EnrichedCallRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows, err := rowsOf(batchID, recs)
	if err != nil {
		return err
	}
	err = repokit.WithTx(ctx, p.tx, func(q repokit.Queryer) error {
		st := repokit.MustBind(p.binder, q)
		for lo := 0; lo < len(rows); lo += ChunkRows {
			hi := min(lo+ChunkRows, len(rows))
			if _, err := st.InsertRecords(ctx, rows[lo:hi]); err != nil {
				return err
			}
		}
		return nil
	})
	return perr.FromPostgresf(err, "persist batch %s", batchID)
}
