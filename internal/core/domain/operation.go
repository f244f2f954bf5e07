package domain

import (
	"context"
	"time"
)

// OperationContext identifies one logical data-access call across all of its
// retry attempts. Values are copied per attempt; only RetryAttempt differs.
type OperationContext struct {
	Operation    string    `json:"operation"`
	Query        string    `json:"query,omitempty"`
	Params       any       `json:"-"`
	Timestamp    time.Time `json:"timestamp"`
	RetryAttempt int       `json:"retry_attempt"`
	UserID       string    `json:"user_id,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
}

// WithAttempt returns a copy of the context stamped with the given attempt index.
func (c OperationContext) WithAttempt(attempt int) OperationContext {
	c.RetryAttempt = attempt
	return c
}

// HealthResult is the outcome of a single store reachability probe.
type HealthResult struct {
	IsHealthy bool          `json:"is_healthy"`
	Latency   time.Duration `json:"-"`
	LatencyMs int64         `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
}

type callerKey struct{}

// Caller carries correlation identifiers through a request context.
type Caller struct {
	UserID    string
	RequestID string
}

// WithCaller returns a context carrying the caller's identifiers.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

// NewOperationContext builds an operation context for name, correlated with
// the caller found in ctx.
func NewOperationContext(ctx context.Context, name string) OperationContext {
	c := CallerFrom(ctx)
	return OperationContext{Operation: name, UserID: c.UserID, RequestID: c.RequestID}
}
