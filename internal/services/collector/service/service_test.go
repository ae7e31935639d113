package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"cdrflow/internal/core/cdr"
	perr "cdrflow/internal/platform/errors"
	"cdrflow/internal/platform/logger"
	"cdrflow/internal/platform/queue"
	kit "cdrflow/internal/platform/testkit"
	enrichdom "cdrflow/internal/services/enrich/domain"
	enrich "cdrflow/internal/services/enrich/service"
)

type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

var logs syncBuf

func TestMain(m *testing.M) {
	logger.Init(logger.Options{Level: "debug", Format: "json", Writer: &logs})
	os.Exit(m.Run())
}

type stored struct {
	batchID string
	recs    []cdr.EnrichedCallRecord
	ctx     context.Context
}

type fakeStore struct {
	mu    sync.Mutex
	calls []stored
	err   error
}

func (f *fakeStore) Store(ctx context.Context, batchID string, recs []cdr.EnrichedCallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stored{batchID, recs, ctx})
	return f.err
}

var lookup = enrichdom.LookupFunc(func(_ context.Context, number string, _ cdr.DayRef) (cdr.OperatorInfo, error) {
	if number == "+14155551234" {
		return cdr.OperatorInfo{Operator: "Pacific Bell", Country: "US", EstimatedCostPerMinute: 0.02}, nil
	}
	return cdr.OperatorInfo{}, perr.NotFoundf("no operator for %s", number)
})

func batch(id string) cdr.Batch {
	return cdr.Batch{
		ID:         id,
		ReceivedAt: time.Now(),
		Source:     "test",
		Records: []cdr.CallRecord{{
			ID:            "c-1",
			CallStartTime: "2026-01-21T10:00:00Z",
			CallEndTime:   "2026-01-21T10:03:00Z",
			FromNumber:    "+14155551234",
			ToNumber:      "+442071234567",
			CallType:      cdr.CallTypeVoice,
			Region:        "us-west",
		}},
	}
}

func TestNew_RequiresPorts(t *testing.T) {
	t.Parallel()
	kit.MustPanic(t, func() { New(nil, &fakeStore{}, Config{}) })
	kit.MustPanic(t, func() { New(enrich.New(lookup), nil, Config{}) })
}

func TestHandle_EnrichesAndStores(t *testing.T) {
	t.Parallel()
	st := &fakeStore{}
	c := New(enrich.New(lookup), st, Config{StoreTimeout: time.Second})

	c.Handle(context.Background(), batch("b-enrich"))

	if len(st.calls) != 1 {
		t.Fatalf("store calls = %d", len(st.calls))
	}
	got := st.calls[0]
	if got.batchID != "b-enrich" || len(got.recs) != 1 {
		t.Fatalf("stored %+v", got)
	}
	r := got.recs[0]
	if r.Duration != 180 || r.FromOperator == nil || *r.FromOperator != "Pacific Bell" || r.ToOperator != nil {
		t.Fatalf("record = %+v", r)
	}
	if r.EstimatedCost == nil || math.Abs(*r.EstimatedCost-0.06) > 1e-9 {
		t.Fatalf("cost = %v", r.EstimatedCost)
	}
	if _, ok := got.ctx.Deadline(); !ok {
		t.Fatalf("store timeout not applied")
	}
	if logger.BatchID(got.ctx) != "b-enrich" {
		t.Fatalf("batch id not on context")
	}
	kit.MustContain(t, logs.String(), "batch enriched with lookup failures")
}

func TestHandle_StoreFailureIsLogged(t *testing.T) {
	t.Parallel()
	st := &fakeStore{err: errors.New("sinks unreachable")}
	c := New(enrich.New(lookup), st, Config{})

	kit.MustNotPanic(t, func() { c.Handle(context.Background(), batch("b-fail")) })
	out := logs.String()
	kit.MustContain(t, out, "batch store failed")
	kit.MustContain(t, out, `"batch_id":"b-fail"`)
}

func TestAttach_ProcessesQueuedBatches(t *testing.T) {
	t.Parallel()
	st := &fakeStore{}
	q := queue.New[cdr.Batch]("handoff", 4)
	if err := New(enrich.New(lookup), st, Config{}).Attach(q); err != nil {
		t.Fatalf("attach: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Run(context.Background()) }()

	q.Submit(context.Background(), batch("q-1"))
	q.Submit(context.Background(), batch("q-2"))
	q.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("queue did not drain")
	}
	if len(st.calls) != 2 || st.calls[0].batchID != "q-1" || st.calls[1].batchID != "q-2" {
		t.Fatalf("calls = %+v", st.calls)
	}
}
