// Package repokit provides the SQL seams and helpers repositories are built on
package repokit

import (
	"context"

	"cdrflow/internal/platform/store"
)

// Queryer is the read and write surface SQL repos bind to
type Queryer = store.RowQuerier

// TxRunner runs a function inside a transaction
type TxRunner = store.TxRunner

type (
	// Rows are the result set of a query
	Rows = store.Rows
	// Row is a single row result
	Row = store.Row
	// CommandTag is the outcome of a write
	CommandTag = store.CommandTag
	// Clickhouse is the columnar seam
	Clickhouse = store.Clickhouse
)

// WithTx runs fn inside a transaction on tx
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}
