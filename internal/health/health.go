// Package health provides store health monitoring and status reporting.
package health

import "github.com/vietddude/dbguard/internal/core/domain"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ProbeHealth contains the latest result of one store probe.
type ProbeHealth struct {
	Name     string       `json:"name"`
	Status   SystemStatus `json:"status"`
	Critical bool         `json:"critical"`
	domain.HealthResult
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus           `json:"system_status"`
	Probes       map[string]ProbeHealth `json:"probes"`
}
