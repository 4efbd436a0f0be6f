package obs

import "context"

// CheckResult is the outcome of a single named health probe.
type CheckResult struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}

// HealthStatus aggregates every probe's result.
type HealthStatus struct {
	Status string                  `json:"status"`
	Checks map[string]*CheckResult `json:"checks"`
}

// Probe is a single named health check the engine can run periodically.
type Probe func(ctx context.Context) *CheckResult

// HealthChecker runs a set of named probes and aggregates their results.
type HealthChecker struct {
	probes map[string]Probe
}

// NewHealthChecker creates a health checker with the given named probes.
func NewHealthChecker(probes map[string]Probe) *HealthChecker {
	return &HealthChecker{probes: probes}
}

// Check runs every registered probe and reports the aggregate status.
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{Status: "healthy", Checks: make(map[string]*CheckResult, len(hc.probes))}
	for name, probe := range hc.probes {
		result := probe(ctx)
		status.Checks[name] = result
		if !result.Healthy {
			status.Status = "degraded"
		}
	}
	return status
}
