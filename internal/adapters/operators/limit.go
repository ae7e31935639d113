package operators

import (
	"context"

	"cdrflow/internal/core/cdr"
	perr "cdrflow/internal/platform/errors"
)

// Limited caps the number of lookups in flight against next
type Limited struct {
	next Lookup
	sem  chan struct{}
}

// NewLimited wraps next with a limit of max concurrent calls. max <= 0 returns next.
func NewLimited(next Lookup, max int) Lookup {
	if max <= 0 {
		return next
	}
	return &Limited{next: next, sem: make(chan struct{}, max)}
}

// Lookup waits for a slot, or for ctx to end
func (l *Limited) Lookup(ctx context.Context, number string, day cdr.DayRef) (cdr.OperatorInfo, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return cdr.OperatorInfo{}, perr.Wrap(ctx.Err(), perr.ErrorCodeTimeout, "operators limiter: gave up waiting for a slot")
	}
	defer func() { <-l.sem }()
	return l.next.Lookup(ctx, number, day)
}

// InFlight reports how many calls currently hold a slot
func (l *Limited) InFlight() int { return len(l.sem) }
