// Package health aggregates component probes into a single status report.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Pinger is satisfied by storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker is satisfied by external providers.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Probe is a named component check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// PingProbe adapts a Pinger.
func PingProbe(name string, p Pinger) Probe {
	return Probe{Name: name, Check: p.Ping}
}

// CheckerProbe adapts a Checker.
func CheckerProbe(name string, c Checker) Probe {
	return Probe{Name: name, Check: c.HealthCheck}
}

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// DefaultTimeout bounds each probe.
const DefaultTimeout = 3 * time.Second

// Service coordinates health checks.
type Service struct {
	probes  []Probe
	timeout time.Duration
}

// New creates a Service over the given probes.
func New(probes ...Probe) *Service {
	return &Service{probes: probes, timeout: DefaultTimeout}
}

// Check runs every probe with its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	failed := 0

	for _, p := range s.probes {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.Check(pctx)
		cancel()

		if err != nil {
			checks[p.Name] = CheckError
			failed++
			continue
		}
		checks[p.Name] = CheckOK
	}

	status := Healthy
	switch {
	case len(s.probes) > 0 && failed == len(s.probes):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
