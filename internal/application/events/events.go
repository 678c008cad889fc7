// Package events carries the orchestrator's lifecycle and progress events to
// any number of independent subscribers (logging, persistence bridges, UI
// feeds). Payload shapes are the cross-component contract and must stay
// stable.
package events

import (
	"time"

	"github.com/perimeterlabs/tenantgrid/internal/domain/lifecycle"
	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

// Type identifies an event on the bus.
type Type string

// Predefined event types
const (
	TypeTenantProvisioned   Type = "tenant-provisioned"
	TypeTenantDeprovisioned Type = "tenant-deprovisioned"
	TypeResourceProvisioned Type = "resource-provisioned"
	TypeProvisioningError   Type = "provisioning-error"
	TypeDeprovisioningError Type = "deprovisioning-error"
)

// Event is one published occurrence. Payload holds exactly one of the typed
// payload structs below, matching Type.
type Event struct {
	Type       Type
	OccurredAt time.Time
	Payload    any
}

// TenantProvisioned is the terminal event of a successful provisioning
// workflow. It is always the last event for that workflow.
type TenantProvisioned struct {
	TenantID  string
	Provider  tenant.CloudProvider
	Resources []resource.Record
	Status    lifecycle.Status
	StartTime time.Time
	EndTime   time.Time
}

// TenantDeprovisioned is the terminal event of a successful deprovisioning
// workflow.
type TenantDeprovisioned struct {
	TenantID               string
	Provider               tenant.CloudProvider
	DeprovisionedResources []resource.Deletion
	Status                 lifecycle.Status
	StartTime              time.Time
	EndTime                time.Time
}

// ResourceProvisioned is emitted once per plan descriptor, in plan order.
type ResourceProvisioned struct {
	ResourceID    string
	ResourceType  resource.Type
	ResourceName  string
	CloudProvider tenant.CloudProvider
	Region        string
	Status        resource.Status
	Config        resource.Config
	ProvisionedAt time.Time
}

// ProvisioningError reports an adapter failure during provisioning.
type ProvisioningError struct {
	TenantID string
	Error    string
}

// DeprovisioningError reports an adapter failure during deprovisioning.
type DeprovisioningError struct {
	TenantID string
	Error    string
}
