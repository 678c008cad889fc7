package orchestrator

import (
	"context"
	"fmt"

	"github.com/perimeterlabs/tenantgrid/internal/domain/plan"
	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

// ProviderAdapter is the replaceable boundary between the orchestrator and a
// cloud control plane. Simulated adapters satisfy it without network access;
// a real vendor integration replaces the body without changing this contract.
//
// CreateResource is called once per plan descriptor, in plan order; each call
// is the workflow's unit of asynchronous work. DeleteTenant removes
// everything the provider holds for a tenant and returns deletion markers in
// the order the resources were created.
type ProviderAdapter interface {
	CreateResource(ctx context.Context, p *plan.Plan, d resource.Descriptor) (resource.Record, error)
	DeleteTenant(ctx context.Context, tenantID string) ([]resource.Deletion, error)
}

// AdapterError wraps a failure raised by a provider adapter call, keeping the
// original provider error reachable through errors.Unwrap.
type AdapterError struct {
	Provider tenant.CloudProvider
	Resource resource.Type
	Err      error
}

// Error returns the error message, implementing the error interface.
func (e *AdapterError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("provider %s failed provisioning %s: %v", e.Provider, e.Resource, e.Err)
	}
	return fmt.Sprintf("provider %s adapter call failed: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *AdapterError) Unwrap() error { return e.Err }
