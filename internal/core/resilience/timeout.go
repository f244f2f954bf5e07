package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/dbguard/internal/core/dberr"
)

// Operation is a single data-access call. It receives a context that is
// cancelled when its attempt times out.
type Operation[T any] func(ctx context.Context) (T, error)

// WithTimeout runs op and returns its result, or an error wrapping
// dberr.ErrTimeout once limit elapses. On timeout the operation's context is
// cancelled but the guard does not wait for op to return: an operation that
// ignores its context keeps running in the background and its result is
// discarded. A limit <= 0 disables the deadline.
func WithTimeout[T any](ctx context.Context, limit time.Duration, op Operation[T]) (T, error) {
	var (
		attemptCtx context.Context
		cancel     context.CancelFunc
	)
	if limit > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, limit)
	} else {
		attemptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type result struct {
		value T
		err   error
	}

	// Buffered so an abandoned operation can still deliver and exit.
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &dberr.EnginePanicError{
					Message: fmt.Sprintf("operation panicked: %v", r),
				}}
			}
		}()
		v, err := op(attemptCtx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-attemptCtx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w after %s", dberr.ErrTimeout, limit)
	}
}
