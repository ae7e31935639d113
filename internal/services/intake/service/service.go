// Package service implements batch intake: parse, report, hand off
package service

import (
	"context"
	"fmt"
	"time"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/core/csvparse"
	"cdrflow/internal/platform/logger"
	dom "cdrflow/internal/services/intake/domain"

	"github.com/google/uuid"
)

// Service implements domain.IntakePort
type Service struct {
	handoff dom.HandoffPort

	parse func(string) cdr.ParseResult
	newID func() string
	now   func() time.Time
}

// New constructs the intake service. handoff must not be nil.
func New(handoff dom.HandoffPort) *Service {
	if handoff == nil {
		panic("intake: nil handoff")
	}
	return &Service{
		handoff: handoff,
		parse:   csvparse.Parse,
		newID:   func() string { return uuid.NewString() },
		now:     time.Now,
	}
}

// HandleBatch is HandleBatchFrom with no source label
func (s *Service) HandleBatch(ctx context.Context, payload string) dom.Ack {
	return s.HandleBatchFrom(ctx, payload, "")
}

// HandleBatchFrom parses payload and submits its valid records. The Ack is
// returned as soon as parsing is done and never reflects downstream outcome.
func (s *Service) HandleBatchFrom(ctx context.Context, payload, source string) (ack dom.Ack) {
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().Str("panic", fmt.Sprint(r)).Msg("intake panicked")
			ack = dom.Rejected("internal error")
		}
	}()

	batchID := s.newID()
	ctx = logger.WithBatch(ctx, batchID)
	log := logger.C(ctx)

	res := s.parse(payload)
	recs, diags := csvparse.Summary(res)
	if diags > 0 {
		sample := res.Diagnostics[:min(diags, maxLoggedDiagnostics)]
		log.Warn().
			Int("diagnostics", diags).
			Int("records", recs).
			Interface("sample", sample).
			Msg("batch has parse diagnostics")
	}

	ack = dom.Ack{Accepted: true, Records: recs, Diagnostics: res.Diagnostics}
	if ack.Diagnostics == nil {
		ack.Diagnostics = []cdr.ParseDiagnostic{}
	}
	if recs == 0 {
		log.Info().Str("source", source).Msg("batch has no valid records; nothing to hand off")
		return ack
	}

	ack.BatchID = batchID
	s.handoff.Submit(ctx, cdr.Batch{
		ID:         batchID,
		ReceivedAt: s.now().UTC(),
		Source:     source,
		Records:    res.Records,
	})
	log.Info().Int("records", recs).Str("source", source).Msg("batch handed off")
	return ack
}

const maxLoggedDiagnostics = 20
