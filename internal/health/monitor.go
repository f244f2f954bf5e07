package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/dbguard/internal/core/resilience"
)

// Probe is a named store check. A failing critical probe makes the whole
// system critical; any other failing probe only degrades it.
type Probe struct {
	Name     string
	Prober   resilience.Prober
	Critical bool
}

// Monitor aggregates health status from the configured probes.
type Monitor struct {
	exec        *resilience.Executor
	probes      []Probe
	minInterval time.Duration
	lastCheck   time.Time
	lastReport  HealthReport
	mu          sync.Mutex
}

// NewMonitor creates a new health monitor. Probes run through exec so they
// share its health timeout.
func NewMonitor(exec *resilience.Executor, probes ...Probe) *Monitor {
	return &Monitor{
		exec:        exec,
		probes:      probes,
		minInterval: 5 * time.Second,
	}
}

// SetMinInterval sets how long a report is reused before probing again.
func (m *Monitor) SetMinInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.minInterval = d
}

// CheckHealth probes every store concurrently, once per probe.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering the stores
	if m.lastReport.Probes != nil && time.Since(m.lastCheck) < m.minInterval {
		return m.lastReport
	}

	results := make([]ProbeHealth, len(m.probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range m.probes {
		g.Go(func() error {
			res := m.exec.Probe(gctx, p.Name, p.Prober)
			status := StatusHealthy
			if !res.IsHealthy {
				status = StatusDegraded
				if p.Critical {
					status = StatusCritical
				}
			}
			results[i] = ProbeHealth{Name: p.Name, Status: status, Critical: p.Critical, HealthResult: res}
			return nil
		})
	}
	_ = g.Wait()

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Probes:       make(map[string]ProbeHealth, len(results)),
	}
	// Aggregate status (worst case wins)
	for _, r := range results {
		report.Probes[r.Name] = r
		switch {
		case r.Status == StatusCritical:
			report.SystemStatus = StatusCritical
		case r.Status == StatusDegraded && report.SystemStatus == StatusHealthy:
			report.SystemStatus = StatusDegraded
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
