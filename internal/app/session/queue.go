package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Vibe/internal/domain"
	"golang.org/x/sync/semaphore"
)

// opQueue serializes device mutations of one kind. It has a single slot:
// queuing a new operation cancels the one in flight and any one still
// waiting, so only the newest request runs to completion.
type opQueue struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelCauseFunc
}

func newOpQueue() *opQueue {
	return &opQueue{sem: semaphore.NewWeighted(1)}
}

// Do runs fn once the slot is free. A superseded operation returns an error
// wrapping domain.ErrSuperseded; fn sees its context cancelled and must
// leave state consistent.
func (q *opQueue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	q.mu.Lock()
	q.gen++
	gen := q.gen
	if q.cancel != nil {
		q.cancel(domain.ErrSuperseded)
	}
	q.cancel = cancel
	q.mu.Unlock()

	if err := q.sem.Acquire(opCtx, 1); err != nil {
		return q.cause(ctx, opCtx)
	}
	defer q.sem.Release(1)

	q.mu.Lock()
	stale := gen != q.gen
	q.mu.Unlock()
	if stale {
		return domain.ErrSuperseded
	}

	err := fn(opCtx)
	if err != nil && opCtx.Err() != nil {
		return q.cause(ctx, opCtx)
	}
	return err
}

func (q *opQueue) cause(parent, opCtx context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if cause := context.Cause(opCtx); cause != nil {
		return fmt.Errorf("kind operation: %w", cause)
	}
	return opCtx.Err()
}

// wait blocks until no operation holds the slot.
func (q *opQueue) wait() {
	if err := q.sem.Acquire(context.Background(), 1); err == nil {
		q.sem.Release(1)
	}
}
