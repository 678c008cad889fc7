// Package cloud contains the provider adapters. The simulated adapter in
// this package is the default implementation behind the orchestrator's
// adapter interface: it synthesizes resource identifiers instead of calling
// a vendor control plane, which keeps unit tests deterministic and free of
// network access. A real vendor SDK integration replaces this body without
// touching the orchestrator.
package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/perimeterlabs/tenantgrid/internal/application/orchestrator"
	"github.com/perimeterlabs/tenantgrid/internal/domain/plan"
	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
	"github.com/perimeterlabs/tenantgrid/pkg/common/timeutil"
)

var _ orchestrator.ProviderAdapter = (*SimulatedAdapter)(nil)

// fallbackTypes are the categories every tenant carries; deletion falls back
// to them when the adapter has no record of what was created (for example
// after a process restart).
var fallbackTypes = []resource.Type{
	resource.TypeNetwork,
	resource.TypeIdentity,
	resource.TypeSecurity,
	resource.TypeMonitoring,
}

// SimulatedAdapter fakes one provider's control plane. It remembers what it
// created per tenant so deprovisioning returns matching deletion markers.
type SimulatedAdapter struct {
	provider tenant.CloudProvider
	clock    timeutil.Provider

	mu      sync.Mutex
	created map[string][]resource.Record
}

// SimulatedOption customizes a SimulatedAdapter.
type SimulatedOption func(*SimulatedAdapter)

// WithClock replaces the adapter's time source for deterministic tests.
func WithClock(clock timeutil.Provider) SimulatedOption {
	return func(a *SimulatedAdapter) { a.clock = clock }
}

// NewSimulated creates a simulated adapter for one provider.
func NewSimulated(p tenant.CloudProvider, opts ...SimulatedOption) *SimulatedAdapter {
	a := &SimulatedAdapter{
		provider: p,
		clock:    timeutil.Default(),
		created:  make(map[string][]resource.Record),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Provider returns the cloud provider this adapter simulates.
func (a *SimulatedAdapter) Provider() tenant.CloudProvider { return a.provider }

// CreateResource materializes one plan descriptor. The identifier is derived
// from provider, category, tenant and creation time, with a short random
// suffix to keep ids unique within one timestamp tick.
func (a *SimulatedAdapter) CreateResource(ctx context.Context, pl *plan.Plan, d resource.Descriptor) (resource.Record, error) {
	if err := ctx.Err(); err != nil {
		return resource.Record{}, err
	}

	now := a.clock.Now()
	rec := resource.Record{
		ID:            fmt.Sprintf("%s-%s-%s-%d-%s", a.provider, d.Type, pl.TenantID, now.UnixNano(), uuid.NewString()[:8]),
		Type:          d.Type,
		Name:          d.Name,
		TenantID:      pl.TenantID,
		Provider:      a.provider,
		Region:        pl.Region,
		Status:        resource.StatusActive,
		Config:        d.Config,
		ProvisionedAt: now,
	}

	a.mu.Lock()
	a.created[pl.TenantID] = append(a.created[pl.TenantID], rec)
	a.mu.Unlock()

	return rec, nil
}

// DeleteTenant removes everything tracked for the tenant and returns one
// deletion marker per resource, in creation order. Without tracked state it
// synthesizes markers for the always-provisioned categories so teardown stays
// symmetric.
func (a *SimulatedAdapter) DeleteTenant(ctx context.Context, tenantID string) ([]resource.Deletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	records := a.created[tenantID]
	delete(a.created, tenantID)
	a.mu.Unlock()

	now := a.clock.Now()
	if len(records) == 0 {
		deletions := make([]resource.Deletion, 0, len(fallbackTypes))
		for _, t := range fallbackTypes {
			deletions = append(deletions, resource.Deletion{
				ResourceID: fmt.Sprintf("%s-%s-%s", a.provider, t, tenantID),
				Type:       t,
				TenantID:   tenantID,
				Status:     resource.StatusDeleted,
				DeletedAt:  now,
			})
		}
		return deletions, nil
	}

	deletions := make([]resource.Deletion, 0, len(records))
	for _, rec := range records {
		deletions = append(deletions, resource.Deletion{
			ResourceID: rec.ID,
			Type:       rec.Type,
			TenantID:   tenantID,
			Status:     resource.StatusDeleted,
			DeletedAt:  now,
		})
	}
	return deletions, nil
}

// NewSimulatedFleet builds one simulated adapter per supported provider,
// keyed the way the orchestrator expects.
func NewSimulatedFleet(opts ...SimulatedOption) map[tenant.CloudProvider]orchestrator.ProviderAdapter {
	fleet := make(map[tenant.CloudProvider]orchestrator.ProviderAdapter, 3)
	for _, p := range []tenant.CloudProvider{tenant.ProviderAzure, tenant.ProviderAWS, tenant.ProviderGCP} {
		fleet[p] = NewSimulated(p, opts...)
	}
	return fleet
}
