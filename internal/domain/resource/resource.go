// Package resource defines the resource categories a tenant plan is made of,
// the per-category configuration values, and the records produced when a
// provider adapter materializes them.
package resource

import (
	"encoding/json"
	"time"

	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

// Type identifies a resource category.
type Type string

// The seven resource categories, in dependency order.
const (
	TypeNetwork    Type = "network"
	TypeCompute    Type = "compute"
	TypeStorage    Type = "storage"
	TypeDatabase   Type = "database"
	TypeIdentity   Type = "identity"
	TypeSecurity   Type = "security"
	TypeMonitoring Type = "monitoring"
)

// IsValid checks if the type is one of the seven resource categories.
func (t Type) IsValid() bool {
	switch t {
	case TypeNetwork, TypeCompute, TypeStorage, TypeDatabase,
		TypeIdentity, TypeSecurity, TypeMonitoring:
		return true
	default:
		return false
	}
}

// String returns the string representation of the type.
func (t Type) String() string { return string(t) }

// Config is implemented by every per-category configuration value.
type Config interface {
	ResourceType() Type
}

// StoredConfig is a configuration read back from storage. The typed builder
// value is marshaled on save; on load the JSON is carried verbatim so the
// audit trail round-trips without rehydrating category-specific types.
type StoredConfig struct {
	Type Type
	Raw  json.RawMessage
}

// ResourceType returns the category the stored configuration belongs to.
func (c StoredConfig) ResourceType() Type { return c.Type }

// MarshalJSON emits the stored JSON unchanged.
func (c StoredConfig) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("null"), nil
	}
	return c.Raw, nil
}

// Descriptor is one entry of a provisioning plan: a category, the logical
// name the resource will carry, and its category-specific configuration.
// Descriptors are immutable once produced by the plan generator.
type Descriptor struct {
	Type   Type
	Name   string
	Config Config
}

// Status represents the lifecycle status of a provisioned resource.
type Status string

// Predefined resource statuses
const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
	StatusFailed  Status = "failed"
)

// Record is the outcome of one adapter call for one descriptor.
type Record struct {
	ID            string
	Type          Type
	Name          string
	TenantID      string
	Provider      tenant.CloudProvider
	Region        string
	Status        Status
	Config        Config
	ProvisionedAt time.Time
}

// Deletion marks one resource removed during deprovisioning.
type Deletion struct {
	ResourceID string
	Type       Type
	TenantID   string
	Status     Status
	DeletedAt  time.Time
}
