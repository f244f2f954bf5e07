package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/resilience"
)

func newTestExecutor() *resilience.Executor {
	return resilience.New(resilience.DefaultPolicy(), dberr.Base,
		resilience.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		resilience.WithHealthTimeout(200*time.Millisecond),
	)
}

func up() resilience.Prober {
	return resilience.ProberFunc(func(ctx context.Context) error { return nil })
}

func down() resilience.Prober {
	return resilience.ProberFunc(func(ctx context.Context) error { return errors.New("connection refused") })
}

func TestMonitorAggregation(t *testing.T) {
	tests := []struct {
		name   string
		probes []Probe
		want   SystemStatus
	}{
		{
			name:   "all healthy",
			probes: []Probe{{Name: "database", Prober: up(), Critical: true}, {Name: "cache", Prober: up()}},
			want:   StatusHealthy,
		},
		{
			name:   "non-critical failure degrades",
			probes: []Probe{{Name: "database", Prober: up(), Critical: true}, {Name: "cache", Prober: down()}},
			want:   StatusDegraded,
		},
		{
			name:   "critical failure",
			probes: []Probe{{Name: "database", Prober: down(), Critical: true}, {Name: "cache", Prober: up()}},
			want:   StatusCritical,
		},
		{
			name:   "no probes",
			probes: nil,
			want:   StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(newTestExecutor(), tt.probes...)
			report := m.CheckHealth(context.Background())
			if report.SystemStatus != tt.want {
				t.Errorf("SystemStatus = %s, want %s", report.SystemStatus, tt.want)
			}
			if len(report.Probes) != len(tt.probes) {
				t.Errorf("got %d probe results, want %d", len(report.Probes), len(tt.probes))
			}
		})
	}
}

func TestMonitorReportsProbeError(t *testing.T) {
	m := NewMonitor(newTestExecutor(), Probe{Name: "cache", Prober: down()})
	report := m.CheckHealth(context.Background())

	ph, ok := report.Probes["cache"]
	if !ok {
		t.Fatal("missing cache probe")
	}
	if ph.IsHealthy || ph.Error == "" {
		t.Errorf("expected unhealthy probe with error, got %+v", ph)
	}
	if ph.Status != StatusDegraded {
		t.Errorf("Status = %s, want %s", ph.Status, StatusDegraded)
	}
}

func TestMonitorCachesReport(t *testing.T) {
	var calls atomic.Int32
	p := resilience.ProberFunc(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	m := NewMonitor(newTestExecutor(), Probe{Name: "database", Prober: p, Critical: true})
	m.CheckHealth(context.Background())
	m.CheckHealth(context.Background())
	if got := calls.Load(); got != 1 {
		t.Errorf("probe called %d times within interval, want 1", got)
	}

	m.SetMinInterval(0)
	m.CheckHealth(context.Background())
	if got := calls.Load(); got != 2 {
		t.Errorf("probe called %d times after interval reset, want 2", got)
	}
}
