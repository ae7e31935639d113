// Package domain defines the sinks enriched call records are written to
package domain

import (
	"context"

	"cdrflow/internal/core/cdr"
)

// Persister durably stores enriched records. Writing the same record twice
// must not create a duplicate.
type Persister interface {
	Persist(ctx context.Context, batchID string, recs []cdr.EnrichedCallRecord) error
}

// Indexer feeds enriched records to the search index
type Indexer interface {
	Index(ctx context.Context, batchID string, recs []cdr.EnrichedCallRecord) error
}

// StorePort writes a batch to every configured sink
type StorePort interface {
	Store(ctx context.Context, batchID string, recs []cdr.EnrichedCallRecord) error
}
