package resilience

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		prober  Prober
		healthy bool
		errText string
	}{
		{
			name:    "healthy",
			prober:  ProberFunc(func(ctx context.Context) error { return nil }),
			healthy: true,
		},
		{
			name:    "failing",
			prober:  ProberFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
			errText: "connection refused",
		},
		{
			name:    "no prober",
			errText: "no health probe configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.prober != nil {
				opts = append(opts, WithProber(tt.prober))
			}
			e := newTestExecutor(testPolicy(3), &fakeSleeper{}, opts...)

			res := e.CheckHealth(context.Background())
			if res.IsHealthy != tt.healthy {
				t.Errorf("IsHealthy = %v, want %v", res.IsHealthy, tt.healthy)
			}
			if tt.errText != "" && !strings.Contains(res.Error, tt.errText) {
				t.Errorf("Error = %q, want it to contain %q", res.Error, tt.errText)
			}
			if tt.healthy && res.Error != "" {
				t.Errorf("unexpected error %q", res.Error)
			}
		})
	}
}

func TestCheckHealth_TimeoutNoRetry(t *testing.T) {
	var calls atomic.Int32
	block := make(chan struct{})
	defer close(block)

	prober := ProberFunc(func(ctx context.Context) error {
		calls.Add(1)
		<-block
		return nil
	})
	e := newTestExecutor(testPolicy(3), &fakeSleeper{},
		WithProber(prober), WithHealthTimeout(20*time.Millisecond))

	res := e.CheckHealth(context.Background())
	if res.IsHealthy {
		t.Fatal("expected unhealthy")
	}
	if !strings.Contains(res.Error, "timeout") {
		t.Errorf("expected timeout error, got %q", res.Error)
	}
	if res.Latency < 20*time.Millisecond {
		t.Errorf("latency %v shorter than the probe deadline", res.Latency)
	}
	if res.LatencyMs != res.Latency.Milliseconds() {
		t.Errorf("LatencyMs = %d, want %d", res.LatencyMs, res.Latency.Milliseconds())
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("health probe must not retry, got %d calls", n)
	}
}
