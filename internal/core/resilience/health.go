package resilience

import (
	"context"
	"errors"

	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/metrics"
)

// Prober issues one trivial round trip against a store.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

var errNoProber = errors.New("no health probe configured")

// CheckHealth probes the executor's store once under the health timeout.
func (e *Executor) CheckHealth(ctx context.Context) domain.HealthResult {
	return e.Probe(ctx, "database", e.prober)
}

// Probe runs p once under the health timeout, without retries. Latency is
// reported whatever the outcome.
func (e *Executor) Probe(ctx context.Context, name string, p Prober) domain.HealthResult {
	start := e.now()

	var err error
	if p == nil {
		err = errNoProber
	} else {
		_, err = WithTimeout(ctx, e.healthTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.Probe(ctx)
		})
	}

	latency := e.now().Sub(start)
	res := domain.HealthResult{
		IsHealthy: err == nil,
		Latency:   latency,
		LatencyMs: latency.Milliseconds(),
	}
	metrics.HealthLatency.WithLabelValues(name).Observe(latency.Seconds())
	if err != nil {
		res.Error = err.Error()
		metrics.Healthy.WithLabelValues(name).Set(0)
		e.log.Warn("Health probe failed", "probe", name, "latency", latency, "error", err)
		return res
	}
	metrics.Healthy.WithLabelValues(name).Set(1)
	return res
}
