package blogdex

import (
	"context"
	"sort"

	healthuc "github.com/kailas-cloud/blogdex/internal/usecase/health"
)

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Health is a point-in-time view of the client's backing services.
type Health struct {
	// Status is "ok", "degraded" or "error".
	Status string
	// Failing lists the components whose probe failed, sorted by name.
	Failing []string
	// Checked lists every probed component, sorted by name.
	Checked []string
}

// OK reports whether every probe passed.
func (h Health) OK() bool { return len(h.Failing) == 0 }

// Health probes the post store. It never returns an error; failures are
// reported in the result.
func (c *Client) Health(ctx context.Context) Health {
	report := c.healthSvc.Check(ctx)
	h := Health{Status: string(report.Status)}
	for name, res := range report.Checks {
		h.Checked = append(h.Checked, name)
		if res != healthuc.CheckOK {
			h.Failing = append(h.Failing, name)
		}
	}
	sort.Strings(h.Checked)
	sort.Strings(h.Failing)
	return h
}
