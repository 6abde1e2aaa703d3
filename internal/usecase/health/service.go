package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type component struct {
	name   string
	pinger Pinger
}

// Service coordinates health checks.
type Service struct {
	components []component
}

// New creates a Service checking the record database.
func New(db Pinger) *Service {
	return (&Service{}).With("database", db)
}

// With adds a named component to the checks.
func (s *Service) With(name string, p Pinger) *Service {
	s.components = append(s.components, component{name: name, pinger: p})
	return s
}

// Check pings every component. All failing is Unhealthy, some failing Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.components))
	failed := 0
	for _, c := range s.components {
		if err := c.pinger.Ping(ctx); err != nil {
			checks[c.name] = CheckError
			failed++
		} else {
			checks[c.name] = CheckOK
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.components):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
