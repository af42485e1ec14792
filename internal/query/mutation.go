package query

import (
	"context"
	"errors"
	"sync/atomic"
)

var ErrMutationPending = errors.New("another submission is still in progress")

// Mutation guards one control: while a run is in flight, further runs are refused
// instead of queued.
type Mutation struct {
	pending atomic.Bool
}

func (m *Mutation) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.pending.CompareAndSwap(false, true) {
		return ErrMutationPending
	}
	defer m.pending.Store(false)
	return fn(ctx)
}

func (m *Mutation) Pending() bool {
	return m.pending.Load()
}
