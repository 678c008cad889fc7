package tenant

import (
	"errors"
	"fmt"
	"regexp"
)

// Common errors
var (
	ErrInvalidTenantID  = errors.New("invalid tenant id")
	ErrInvalidProvider  = errors.New("invalid cloud provider")
	ErrInvalidRegion    = errors.New("invalid region")
	ErrInvalidIsolation = errors.New("invalid isolation model")
	ErrInvalidTier      = errors.New("invalid service tier")
)

// CloudProvider identifies a supported cloud control plane.
type CloudProvider string

// Supported cloud providers
const (
	ProviderAzure CloudProvider = "azure"
	ProviderAWS   CloudProvider = "aws"
	ProviderGCP   CloudProvider = "gcp"
)

// IsValid checks if the provider is one of the supported control planes.
func (p CloudProvider) IsValid() bool {
	switch p {
	case ProviderAzure, ProviderAWS, ProviderGCP:
		return true
	default:
		return false
	}
}

// String returns the string representation of the provider.
func (p CloudProvider) String() string { return string(p) }

// ParseProvider converts a string to a CloudProvider with validation.
func ParseProvider(s string) (CloudProvider, error) {
	p := CloudProvider(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidProvider, s)
	}
	return p, nil
}

// IsolationModel describes how strictly a tenant's resources are segregated
// from other tenants.
type IsolationModel string

// Predefined isolation models
const (
	IsolationSilo   IsolationModel = "silo"
	IsolationPool   IsolationModel = "pool"
	IsolationHybrid IsolationModel = "hybrid"
)

// IsValid checks if the isolation model is valid.
func (m IsolationModel) IsValid() bool {
	switch m {
	case IsolationSilo, IsolationPool, IsolationHybrid:
		return true
	default:
		return false
	}
}

// Normalize maps unknown isolation values to the shared-pool default,
// the safest assumption for capacity planning.
func (m IsolationModel) Normalize() IsolationModel {
	if !m.IsValid() {
		return IsolationPool
	}
	return m
}

// ServiceTier represents a tenant's purchased quality level.
type ServiceTier string

// Predefined service tiers
const (
	TierPremium  ServiceTier = "premium"
	TierStandard ServiceTier = "standard"
	TierBasic    ServiceTier = "basic"
)

// IsValid checks if the tier is valid.
func (t ServiceTier) IsValid() bool {
	switch t {
	case TierPremium, TierStandard, TierBasic:
		return true
	default:
		return false
	}
}

// Normalize maps unknown tier values to the standard tier rather than failing.
func (t ServiceTier) Normalize() ServiceTier {
	if !t.IsValid() {
		return TierStandard
	}
	return t
}

// ResourceRequirements flags which optional resource categories a tenant
// requested. Network, identity, security and monitoring are always provisioned
// and have no flag.
type ResourceRequirements struct {
	Compute  bool
	Storage  bool
	Database bool
}

// ProvisioningRequest is the business-level input describing the
// infrastructure one tenant needs.
type ProvisioningRequest struct {
	TenantID     string
	Name         string
	Provider     CloudProvider
	Region       string
	Isolation    IsolationModel
	Tier         ServiceTier
	Compliance   []string
	Requirements ResourceRequirements
}

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate checks the fields the orchestrator cannot default.
// Isolation and tier are normalized later by the config builders and are
// deliberately not rejected here.
func (r ProvisioningRequest) Validate() error {
	if r.TenantID == "" {
		return NewValidationError("tenantId", "must not be empty")
	}
	if !tenantIDPattern.MatchString(r.TenantID) {
		return NewValidationError("tenantId", "must contain only lowercase letters, numbers, and hyphens")
	}
	if r.Provider == "" {
		return NewValidationError("provider", "must not be empty")
	}
	if r.Region == "" {
		return NewValidationError("region", "must not be empty")
	}
	return nil
}

// ValidationError represents a request validation failure.
// The caller must fix the input; retrying the same request cannot succeed.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message for a ValidationError,
// implementing the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError with the given field and message.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}
