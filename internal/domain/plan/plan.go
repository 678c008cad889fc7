// Package plan turns one tenant provisioning request into the ordered list of
// resource descriptors the orchestrator will execute. Generation is pure:
// identical requests always yield identical plans, which is what makes
// idempotent retries and deterministic tests possible.
package plan

import (
	"fmt"

	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

// Plan is the ordered sequence of resource descriptors for one tenant
// request. The network descriptor always precedes compute, storage and
// database so dependents can reference network placement.
type Plan struct {
	TenantID    string
	Provider    tenant.CloudProvider
	Region      string
	Descriptors []resource.Descriptor
}

// Generate builds the plan for a provisioning request. It returns a
// tenant.ValidationError when the tenant id, provider, or region is missing.
// Network, identity, security and monitoring descriptors are always present;
// compute, storage and database only when the request asks for them.
func Generate(req tenant.ProvisioningRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	in := resource.BuildInput{
		Tier:       req.Tier,
		Isolation:  req.Isolation,
		Compliance: req.Compliance,
		Provider:   req.Provider,
		Region:     req.Region,
	}

	descriptors := make([]resource.Descriptor, 0, 7)
	add := func(t resource.Type, cfg resource.Config) {
		descriptors = append(descriptors, resource.Descriptor{
			Type:   t,
			Name:   fmt.Sprintf("%s-%s", req.TenantID, t),
			Config: cfg,
		})
	}

	add(resource.TypeNetwork, resource.NewNetworkConfig(in))

	if req.Requirements.Compute {
		add(resource.TypeCompute, resource.NewComputeConfig(in))
	}
	if req.Requirements.Storage {
		add(resource.TypeStorage, resource.NewStorageConfig(in))
	}
	if req.Requirements.Database {
		add(resource.TypeDatabase, resource.NewDatabaseConfig(in))
	}

	add(resource.TypeIdentity, resource.NewIdentityConfig(in))
	add(resource.TypeSecurity, resource.NewSecurityConfig(in))
	add(resource.TypeMonitoring, resource.NewMonitoringConfig(in))

	return &Plan{
		TenantID:    req.TenantID,
		Provider:    req.Provider,
		Region:      req.Region,
		Descriptors: descriptors,
	}, nil
}
