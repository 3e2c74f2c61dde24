package provider

import (
	"context"

	"sovereign-veritas/internal/domain"
)

// Provider is one external data source for a single validation stage.
// Implementations must honour ctx cancellation and treat rate limiting by the
// upstream service as an ordinary error; the collector turns errors into
// Failed/TimedOut results rather than propagating them.
type Provider interface {
	ID() string
	Stage() domain.Stage
	Fetch(ctx context.Context, symbol string, prior domain.StageContext) (domain.Payload, error)
}
