package taginput

import (
	"context"

	healthuc "github.com/kailas-cloud/taginput/internal/usecase/health"
	"github.com/kailas-cloud/taginput/internal/version"
)

// HealthStatus reports whether the record store behind the client answers.
type HealthStatus struct {
	Status  string            // ok, degraded or error
	Version string            // library build version
	Checks  map[string]string // "database" -> ok or error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Health pings the record store. Unlike Ping it never returns an error; the
// outcome is in Status.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	out := HealthStatus{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  make(map[string]string, len(report.Checks)),
	}
	for component, result := range report.Checks {
		out.Checks[component] = string(result)
	}
	return out
}
