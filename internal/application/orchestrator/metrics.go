package orchestrator

import (
	"context"
	"time"
)

// ProvisioningMetrics defines metrics for tenant infrastructure workflows.
type ProvisioningMetrics interface {
	// IncProvisioningSuccess increments the count of successful provisioning workflows.
	IncProvisioningSuccess(ctx context.Context, provider string, tier string)

	// IncProvisioningFailure increments the count of failed provisioning workflows.
	IncProvisioningFailure(ctx context.Context, provider string, tier string, reason string)

	// ObserveProvisioningDuration records how long a whole provisioning workflow took.
	ObserveProvisioningDuration(ctx context.Context, provider string, tier string, duration time.Duration)

	// ObserveResourceDuration records how long one resource descriptor took to provision.
	ObserveResourceDuration(ctx context.Context, provider string, resourceType string, duration time.Duration)

	// IncDeprovisioningSuccess increments the count of successful deprovisioning workflows.
	IncDeprovisioningSuccess(ctx context.Context, provider string)

	// IncDeprovisioningFailure increments the count of failed deprovisioning workflows.
	IncDeprovisioningFailure(ctx context.Context, provider string, reason string)

	// ObserveDeprovisioningDuration records how long a deprovisioning workflow took.
	ObserveDeprovisioningDuration(ctx context.Context, provider string, duration time.Duration)
}
