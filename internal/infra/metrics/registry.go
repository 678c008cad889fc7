package metrics

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/perimeterlabs/tenantgrid/internal/application/orchestrator"
)

const namespace = "tenantgrid"

// Registry provides access to all metric implementations.
// It centralizes the creation and management of metrics instances.
type Registry struct {
	Provisioning orchestrator.ProvisioningMetrics
}

// NewRegistry creates and initializes all metrics implementations.
// It uses a single meter provider to ensure consistent configuration.
func NewRegistry(mp metric.MeterProvider) (*Registry, error) {
	provisioningMetrics, err := newProvisioningMetrics(mp)
	if err != nil {
		return nil, err
	}

	return &Registry{Provisioning: provisioningMetrics}, nil
}
