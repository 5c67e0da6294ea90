package xcontext

import (
	"context"
	"time"
)

// DetachDone returns a context carrying the values (logger included) of
// ctx but none of its cancellation: used for work that must outlive the
// caller, like an installer launch during shutdown.
func DetachDone(ctx context.Context) context.Context {
	return ctxDetached{
		Context: ctx,
	}
}

type ctxDetached struct {
	context.Context
}

func (ctx ctxDetached) Deadline() (time.Time, bool) {
	return context.Background().Deadline()
}

func (ctx ctxDetached) Done() <-chan struct{} {
	return context.Background().Done()
}

func (ctx ctxDetached) Err() error {
	return context.Background().Err()
}
