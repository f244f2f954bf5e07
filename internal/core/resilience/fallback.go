package resilience

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/metrics"
)

// CreateFallback logs the substitution and returns defaultValue unchanged.
func CreateFallback[T any](e *Executor, operation string, defaultValue T, err *dberr.DatabaseError) T {
	log := slog.Default()
	if e != nil {
		log = e.log
	}

	code, msg := dberr.CodeUnknown, ""
	if err != nil {
		code, msg = err.Code, err.Message
	}
	metrics.Fallbacks.WithLabelValues(operation, code).Inc()
	log.Warn("Serving fallback response",
		"operation", operation,
		"code", code,
		"error", msg,
		"default_type", fmt.Sprintf("%T", defaultValue),
	)
	return defaultValue
}

// ExecuteOrError runs op through Execute and returns the classified error on
// failure. The returned error is always a *dberr.DatabaseError.
func ExecuteOrError[T any](
	ctx context.Context,
	e *Executor,
	op Operation[T],
	name string,
	opCtx domain.OperationContext,
) (T, error) {
	opCtx.Operation = name
	out := Execute(ctx, e, op, opCtx)
	if !out.Success {
		var zero T
		return zero, out.Err
	}
	return out.Data, nil
}

// ExecuteWithFallback runs op through Execute and returns defaultValue on any
// unrecoverable failure.
func ExecuteWithFallback[T any](
	ctx context.Context,
	e *Executor,
	op Operation[T],
	defaultValue T,
	name string,
	opCtx domain.OperationContext,
) T {
	opCtx.Operation = name
	out := Execute(ctx, e, op, opCtx)
	if !out.Success {
		return CreateFallback(e, name, defaultValue, out.Err)
	}
	return out.Data
}
