// Package resilience runs data-access operations under a timeout, classifies
// their failures and retries transient ones with exponential backoff.
package resilience

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/metrics"
)

const (
	DefaultOperationTimeout = 30 * time.Second
	DefaultHealthTimeout    = 5 * time.Second
)

// Outcome is the result of Execute. Exactly one of Data and Err is meaningful.
type Outcome[T any] struct {
	Success    bool
	Data       T
	Err        *dberr.DatabaseError
	RetryCount int
	Duration   time.Duration
}

// Executor holds the retry policy and collaborators shared by all calls.
type Executor struct {
	policy        atomic.Pointer[Policy]
	classifier    dberr.Classifier
	prober        Prober
	log           *slog.Logger
	sleep         func(ctx context.Context, d time.Duration) error
	now           func() time.Time
	opTimeout     time.Duration
	healthTimeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for attempt and fallback logs.
func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithSleeper replaces the backoff delay function.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// WithClock replaces the clock used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithOperationTimeout sets the per-attempt deadline.
func WithOperationTimeout(d time.Duration) Option {
	return func(e *Executor) { e.opTimeout = d }
}

// WithHealthTimeout sets the deadline for health probes.
func WithHealthTimeout(d time.Duration) Option {
	return func(e *Executor) { e.healthTimeout = d }
}

// WithProber sets the probe used by CheckHealth.
func WithProber(p Prober) Option {
	return func(e *Executor) { e.prober = p }
}

// New creates an Executor. A nil classifier falls back to dberr.Base.
func New(policy Policy, classifier dberr.Classifier, opts ...Option) *Executor {
	if classifier == nil {
		classifier = dberr.Base
	}
	e := &Executor{
		classifier:    classifier,
		log:           slog.Default(),
		sleep:         sleepContext,
		now:           time.Now,
		opTimeout:     DefaultOperationTimeout,
		healthTimeout: DefaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.policy.Store(&policy)
	return e
}

// Policy returns the current retry policy.
func (e *Executor) Policy() Policy {
	return *e.policy.Load()
}

// SetPolicy replaces the retry policy. Calls in flight pick it up on their
// next attempt.
func (e *Executor) SetPolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.policy.Store(&p)
	e.log.Info("Database retry policy updated",
		"max_retries", p.MaxRetries,
		"base_delay", p.BaseDelay,
		"max_delay", p.MaxDelay,
		"backoff_multiplier", p.BackoffMultiplier,
		"retryable_codes", p.RetryableCodes,
	)
	return nil
}

// Stats describes the executor's current configuration.
type Stats struct {
	Policy           Policy
	OperationTimeout time.Duration
	HealthTimeout    time.Duration
}

// Stats returns the current configuration.
func (e *Executor) Stats() Stats {
	return Stats{
		Policy:           e.Policy(),
		OperationTimeout: e.opTimeout,
		HealthTimeout:    e.healthTimeout,
	}
}

// Execute runs op until it succeeds, fails with a non-retryable error or the
// policy's retries are exhausted. It never panics; failures are returned in
// the outcome. opCtx.Timestamp is set once if empty and opCtx.RetryAttempt
// seeds the attempt counter.
func Execute[T any](
	ctx context.Context,
	e *Executor,
	op Operation[T],
	opCtx domain.OperationContext,
) Outcome[T] {
	start := e.now()
	if opCtx.Timestamp.IsZero() {
		opCtx.Timestamp = start
	}

	finish := func(out Outcome[T]) Outcome[T] {
		out.Duration = e.now().Sub(start)
		if opCtx.Operation != "" {
			metrics.OperationDuration.WithLabelValues(opCtx.Operation).Observe(out.Duration.Seconds())
		}
		return out
	}

	if opCtx.Operation == "" {
		return finish(Outcome[T]{Err: dberr.New(
			"operation name is required", dberr.CodeValidation, false, false, opCtx, nil,
		)})
	}

	first := max(opCtx.RetryAttempt, 0)
	for attempt := first; ; attempt++ {
		policy := e.Policy()
		attemptCtx := opCtx.WithAttempt(attempt)

		result, err := WithTimeout(ctx, e.opTimeout, op)
		if err == nil {
			metrics.OperationAttempts.WithLabelValues(opCtx.Operation, "success").Inc()
			if attempt > first {
				e.log.Info("Database operation succeeded after retries",
					"operation", opCtx.Operation,
					"retries", attempt,
					"request_id", opCtx.RequestID,
				)
			}
			return finish(Outcome[T]{Success: true, Data: result, RetryCount: attempt})
		}

		classified := e.classify(ctx, err, attemptCtx, policy)
		e.logAttempt(classified, attempt, policy)
		metrics.OperationErrors.WithLabelValues(opCtx.Operation, classified.Code).Inc()

		if !classified.IsRetryable || attempt >= policy.MaxRetries {
			metrics.OperationAttempts.WithLabelValues(opCtx.Operation, "terminal").Inc()
			return finish(Outcome[T]{Err: classified, RetryCount: attempt})
		}
		metrics.OperationAttempts.WithLabelValues(opCtx.Operation, "retryable").Inc()

		delay := policy.Delay(attempt)
		e.log.Warn("Retrying database operation",
			"operation", opCtx.Operation,
			"delay", delay,
			"next_attempt", attempt+2,
			"max_attempts", policy.MaxRetries+1,
		)
		metrics.OperationRetries.WithLabelValues(opCtx.Operation).Inc()

		if err := e.sleep(ctx, delay); err != nil {
			return finish(Outcome[T]{Err: dberr.Cancelled(err, attemptCtx), RetryCount: attempt})
		}
	}
}

func (e *Executor) classify(
	ctx context.Context,
	err error,
	attemptCtx domain.OperationContext,
	policy Policy,
) *dberr.DatabaseError {
	if ctx.Err() != nil {
		return dberr.Cancelled(err, attemptCtx)
	}
	classified := e.classifier.Classify(err, attemptCtx)
	if classified == nil {
		classified = dberr.Base.Classify(err, attemptCtx)
	}
	return policy.promote(classified)
}

func (e *Executor) logAttempt(d *dberr.DatabaseError, attempt int, policy Policy) {
	attrs := []any{
		"operation", d.Context.Operation,
		"attempt", attempt + 1,
		"max_attempts", policy.MaxRetries + 1,
		"code", d.Code,
		"message", d.Message,
		"retryable", d.IsRetryable,
		"temporary", d.IsTemporary,
		"timestamp", d.Context.Timestamp.Format(time.RFC3339),
	}
	if d.Context.RequestID != "" {
		attrs = append(attrs, "request_id", d.Context.RequestID)
	}
	if d.Context.UserID != "" {
		attrs = append(attrs, "user_id", d.Context.UserID)
	}

	switch {
	case d.Code == dberr.CodeEnginePanic:
		e.log.Error("Database engine failure", append(attrs, "fatal", true)...)
	case d.IsRetryable:
		e.log.Warn("Database operation failed", attrs...)
	default:
		e.log.Error("Database operation failed", attrs...)
	}

	if d.Original != nil {
		e.log.Debug("Original database error",
			"operation", d.Context.Operation,
			"attempt", attempt+1,
			"error", d.Original,
		)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
