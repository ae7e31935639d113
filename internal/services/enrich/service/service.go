// Package service enriches validated call records with duration, operator
// and cost. Enrichment never fails: a failed lookup is logged and leaves the
// corresponding optional fields unset.
package service

import (
	"context"
	"sync/atomic"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/core/fieldcheck"
	perr "cdrflow/internal/platform/errors"
	"cdrflow/internal/platform/logger"
	dom "cdrflow/internal/services/enrich/domain"

	"golang.org/x/sync/errgroup"
)

// Service implements domain.EnricherPort over an OperatorLookup
type Service struct {
	lookup dom.OperatorLookup
}

var _ dom.EnricherPort = (*Service)(nil)

// New constructs the service; lookup is required
func New(lookup dom.OperatorLookup) *Service {
	if lookup == nil {
		panic("enrich: nil OperatorLookup")
	}
	return &Service{lookup: lookup}
}

type side string

const (
	sideFrom side = "from"
	sideTo   side = "to"
)

// outcome of one lookup; exactly one of info/err is meaningful
type outcome struct {
	info cdr.OperatorInfo
	err  error
}

// Enrich computes duration, runs both lookups concurrently and waits for both
// to settle before merging
func (s *Service) Enrich(ctx context.Context, rec cdr.CallRecord) cdr.EnrichedCallRecord {
	out, _, _ := s.enrich(ctx, rec)
	return out
}

// EnrichAll enriches every record concurrently. The result is index-aligned
// with recs regardless of completion order.
func (s *Service) EnrichAll(ctx context.Context, recs []cdr.CallRecord) []cdr.EnrichedCallRecord {
	out, _ := s.EnrichAllWithStats(ctx, recs)
	return out
}

// EnrichAllWithStats is EnrichAll plus lookup failure counts
func (s *Service) EnrichAllWithStats(ctx context.Context, recs []cdr.CallRecord) ([]cdr.EnrichedCallRecord, dom.Stats) {
	out := make([]cdr.EnrichedCallRecord, len(recs))
	var fromFailed, toFailed atomic.Int64

	var g errgroup.Group
	for i := range recs {
		g.Go(func() error {
			rec, fromOK, toOK := s.enrich(ctx, recs[i])
			out[i] = rec
			if !fromOK {
				fromFailed.Add(1)
			}
			if !toOK {
				toFailed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return out, dom.Stats{
		Records:    len(recs),
		FromFailed: int(fromFailed.Load()),
		ToFailed:   int(toFailed.Load()),
	}
}

func (s *Service) enrich(ctx context.Context, rec cdr.CallRecord) (cdr.EnrichedCallRecord, bool, bool) {
	start, _ := fieldcheck.ParseTimestamp(rec.CallStartTime)
	end, _ := fieldcheck.ParseTimestamp(rec.CallEndTime)
	duration := end.Sub(start).Seconds()
	day := cdr.DayOf(start)

	var from, to outcome
	var g errgroup.Group
	g.Go(func() error {
		from = s.resolve(ctx, rec.ID, sideFrom, rec.FromNumber, day)
		return nil
	})
	g.Go(func() error {
		to = s.resolve(ctx, rec.ID, sideTo, rec.ToNumber, day)
		return nil
	})
	_ = g.Wait()

	out := cdr.EnrichedCallRecord{CallRecord: rec, Duration: duration}
	if from.err == nil {
		cost := (duration / 60) * from.info.EstimatedCostPerMinute
		out.FromOperator = ptr(from.info.Operator)
		out.FromCountry = ptr(from.info.Country)
		out.EstimatedCost = &cost
	}
	if to.err == nil {
		out.ToOperator = ptr(to.info.Operator)
		out.ToCountry = ptr(to.info.Country)
	}
	return out, from.err == nil, to.err == nil
}

// resolve runs one lookup and logs its failure. A panicking lookup counts as
// a failure so one bad collaborator cannot take the batch down.
func (s *Service) resolve(ctx context.Context, recordID string, sd side, number string, day cdr.DayRef) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: perr.PanicErrf("operator lookup panicked: %v", r)}
		}
		if o.err != nil {
			logger.C(ctx).Warn().
				Err(o.err).
				Str("record_id", recordID).
				Str("side", string(sd)).
				Str("number", number).
				Str("day", day.String()).
				Str("code", perr.CodeOf(o.err).String()).
				Msg("operator lookup failed")
		}
	}()
	info, err := s.lookup.Lookup(ctx, number, day)
	return outcome{info: info, err: err}
}

func ptr[T any](v T) *T { return &v }
