package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyFetches is returned when every fetch slot stayed occupied for
// the whole wait. Callers should retry shortly.
var ErrTooManyFetches = errors.New("too many concurrent upstream fetches")

// Limiter bounds how many full upstream walks run at once. Airtable allows
// five requests per second per base, and every relay call walks all pages.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewLimiter allows at most maxConcurrent fetches; a caller waits up to
// maxWait for a slot.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it exactly once.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx := ctx
	if l.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.maxWait)
		defer cancel()
	}

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTooManyFetches
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active reports fetches currently holding a slot.
func (l *Limiter) Active() int { return int(l.active.Load()) }

// Available reports free slots.
func (l *Limiter) Available() int { return cap(l.slots) - len(l.slots) }
