// Package service writes enriched batches to the configured sinks
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/platform/logger"
	dom "cdrflow/internal/services/records/domain"
)

// Service implements domain.StorePort. Either sink may be nil.
type Service struct {
	persist dom.Persister
	index   dom.Indexer
}

// New constructs the records service
func New(persist dom.Persister, index dom.Indexer) *Service {
	return &Service{persist: persist, index: index}
}

// Store runs both sinks concurrently and joins their errors, so a failing
// index never hides a failed persist or the other way around
func (s *Service) Store(ctx context.Context, batchID string, recs []cdr.EnrichedCallRecord) error {
	if len(recs) == 0 {
		return nil
	}

	var (
		wg                   sync.WaitGroup
		persistErr, indexErr error
	)
	start := time.Now()
	if s.persist != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			persistErr = s.persist.Persist(ctx, batchID, recs)
		}()
	}
	if s.index != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			indexErr = s.index.Index(ctx, batchID, recs)
		}()
	}
	wg.Wait()

	logger.C(ctx).Debug().
		Int("records", len(recs)).
		Bool("persisted", s.persist != nil && persistErr == nil).
		Bool("indexed", s.index != nil && indexErr == nil).
		Dur("elapsed", time.Since(start)).
		Msg("batch stored")
	return errors.Join(persistErr, indexErr)
}
