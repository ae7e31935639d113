// Package service consumes handed-off batches: enrich every record, then
// write the batch to the record sinks
package service

import (
	"context"
	"time"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/platform/logger"
	"cdrflow/internal/platform/queue"
	enrich "cdrflow/internal/services/enrich/domain"
	records "cdrflow/internal/services/records/domain"
)

// Config tunes the collector
type Config struct {
	// StoreTimeout bounds the sink writes of one batch; 0 means no bound
	StoreTimeout time.Duration
}

// Collector is the batch handler subscribed to the handoff queue
type Collector struct {
	enricher enrich.EnricherPort
	store    records.StorePort
	cfg      Config
}

// New constructs a collector. Both ports are required.
func New(enricher enrich.EnricherPort, store records.StorePort, cfg Config) *Collector {
	if enricher == nil || store == nil {
		panic("collector: nil enricher or store")
	}
	return &Collector{enricher: enricher, store: store, cfg: cfg}
}

// Subscriber is the part of the handoff queue the collector attaches to
type Subscriber interface {
	Subscribe(h queue.Handler[cdr.Batch]) error
}

// Attach subscribes Handle to q
func (c *Collector) Attach(q Subscriber) error { return q.Subscribe(c.Handle) }

// Handle processes one batch. Failures are logged, never returned.
func (c *Collector) Handle(ctx context.Context, b cdr.Batch) {
	ctx = logger.WithBatch(ctx, b.ID)
	log := logger.C(ctx)
	start := time.Now()

	enriched, stats := c.enricher.EnrichAllWithStats(ctx, b.Records)
	if stats.FromFailed > 0 || stats.ToFailed > 0 {
		log.Warn().
			Int("records", stats.Records).
			Int("from_failed", stats.FromFailed).
			Int("to_failed", stats.ToFailed).
			Msg("batch enriched with lookup failures")
	}

	sctx := ctx
	if c.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, c.cfg.StoreTimeout)
		defer cancel()
	}
	if err := c.store.Store(sctx, b.ID, enriched); err != nil {
		log.Error().Err(err).Int("records", len(enriched)).Msg("batch store failed")
		return
	}

	log.Info().
		Int("records", len(enriched)).
		Str("source", b.Source).
		Dur("lag", time.Since(b.ReceivedAt)).
		Dur("elapsed", time.Since(start)).
		Msg("batch processed")
}
