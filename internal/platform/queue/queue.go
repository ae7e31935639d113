// Package queue is the in-process handoff between request handlers and
// background workers. Delivery is at most once: a job that cannot be queued
// is logged and dropped, and nothing is persisted across restarts.
package queue

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	perr "cdrflow/internal/platform/errors"
	"cdrflow/internal/platform/logger"
)

// Handler consumes one job. It must not assume it is the only subscriber.
type Handler[T any] func(ctx context.Context, job T)

// Stats is a point-in-time view of queue counters
type Stats struct {
	Submitted int64 `json:"submitted"`
	Dropped   int64 `json:"dropped"`
	Handled   int64 `json:"handled"`
	Pending   int   `json:"pending"`
}

// Queue is a bounded FIFO with explicit subscribers. Subscribe before Run;
// Run hands each job to every subscriber in registration order, one job at a
// time.
type Queue[T any] struct {
	name string
	ch   chan T
	done chan struct{}

	mu      sync.RWMutex
	subs    []Handler[T]
	closed  bool
	running bool

	closeOnce sync.Once
	submitted atomic.Int64
	dropped   atomic.Int64
	handled   atomic.Int64

	log logger.Logger
}

// New makes a queue holding up to capacity pending jobs. capacity < 1 is treated as 1.
func New[T any](name string, capacity int) *Queue[T] {
	return &Queue[T]{
		name: name,
		ch:   make(chan T, max(1, capacity)),
		done: make(chan struct{}),
		log:  logger.Named("queue").With().Str("queue", name).Logger(),
	}
}

// Name returns the queue name used in logs
func (q *Queue[T]) Name() string { return q.name }

// Subscribe registers h. It fails once Run has started or the queue is closed.
func (q *Queue[T]) Subscribe(h Handler[T]) error {
	if h == nil {
		return perr.InvalidArgf("queue %s: nil handler", q.name)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.closed {
		return perr.Newf(perr.ErrorCodeConflict, "queue %s: subscribe after start", q.name)
	}
	q.subs = append(q.subs, h)
	return nil
}

// Submit enqueues job and returns without waiting for it to be handled.
// When the buffer is full it waits until there is room, ctx ends or the
// queue closes. Jobs that cannot be queued are dropped with a warning.
func (q *Queue[T]) Submit(ctx context.Context, job T) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	switch {
	case q.closed:
		q.drop(ctx, "closed")
		return
	case len(q.subs) == 0:
		q.drop(ctx, "no subscriber")
		return
	}

	select {
	case q.ch <- job:
		q.submitted.Add(1)
	case <-ctx.Done():
		q.drop(ctx, "context done while queue full")
	case <-q.done:
		q.drop(ctx, "closed")
	}
}

func (q *Queue[T]) drop(ctx context.Context, reason string) {
	q.dropped.Add(1)
	l := logger.C(ctx)
	l.Warn().Str("queue", q.name).Str("reason", reason).Msg("job dropped")
}

// Run dispatches jobs until the queue is closed and drained, or ctx ends.
// Jobs still pending when ctx ends are abandoned.
func (q *Queue[T]) Run(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return perr.Newf(perr.ErrorCodeConflict, "queue %s: already running", q.name)
	}
	q.running = true
	subs := slices.Clone(q.subs)
	q.mu.Unlock()

	q.log.Info().Int("subscribers", len(subs)).Int("capacity", cap(q.ch)).Msg("queue running")
	for {
		select {
		case <-ctx.Done():
			q.log.Warn().Int("abandoned", len(q.ch)).Msg("queue stopped before drain")
			return ctx.Err()
		case job, ok := <-q.ch:
			if !ok {
				q.log.Info().Int64("handled", q.handled.Load()).Msg("queue drained")
				return nil
			}
			for i, h := range subs {
				q.dispatch(ctx, i, h, job)
			}
			q.handled.Add(1)
		}
	}
}

func (q *Queue[T]) dispatch(ctx context.Context, idx int, h Handler[T], job T) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().
				Int("subscriber", idx).
				Str("panic", fmt.Sprint(r)).
				Msg("subscriber panicked")
		}
	}()
	h(ctx, job)
}

// Close stops intake. Jobs already queued are still delivered by Run.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}

// Stats returns current counters
func (q *Queue[T]) Stats() Stats {
	return Stats{
		Submitted: q.submitted.Load(),
		Dropped:   q.dropped.Load(),
		Handled:   q.handled.Load(),
		Pending:   len(q.ch),
	}
}
