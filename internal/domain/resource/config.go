package resource

import (
	"strings"

	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

// BuildInput carries the business-level choices every config builder maps
// from. Builders are total: unknown tier or isolation values fall back to
// the standard tier and pooled isolation instead of erroring.
type BuildInput struct {
	Tier       tenant.ServiceTier
	Isolation  tenant.IsolationModel
	Compliance []string
	Provider   tenant.CloudProvider
	Region     string
}

// EncryptionAES256 is the at-rest cipher forced whenever the compliance set
// carries a regulated-data marker.
const (
	EncryptionAES256          = "AES-256"
	EncryptionProviderManaged = "provider-managed"
)

// regulatedMarkers are the compliance standards that imply regulated data at
// rest (health or payment records).
var regulatedMarkers = map[string]struct{}{
	"HIPAA":   {},
	"PCI-DSS": {},
	"HITRUST": {},
}

// HasRegulatedData reports whether the compliance set contains a
// regulated-data marker.
func HasRegulatedData(compliance []string) bool {
	for _, c := range compliance {
		if _, ok := regulatedMarkers[strings.ToUpper(strings.TrimSpace(c))]; ok {
			return true
		}
	}
	return false
}

// NetworkConfig describes the tenant's network placement.
type NetworkConfig struct {
	DedicatedVNet bool
	Subnets       []string
	Isolated      bool
}

func (NetworkConfig) ResourceType() Type { return TypeNetwork }

// NewNetworkConfig maps the isolation model onto network topology. Silo
// tenants get a dedicated, isolated virtual network with the full subnet set;
// pooled tenants share a subnet; hybrid tenants get a dedicated network with
// a reduced subnet set.
func NewNetworkConfig(in BuildInput) NetworkConfig {
	switch in.Isolation.Normalize() {
	case tenant.IsolationSilo:
		return NetworkConfig{
			DedicatedVNet: true,
			Subnets:       []string{"web", "app", "data", "management"},
			Isolated:      true,
		}
	case tenant.IsolationHybrid:
		return NetworkConfig{
			DedicatedVNet: true,
			Subnets:       []string{"web", "app"},
			Isolated:      true,
		}
	default:
		return NetworkConfig{
			DedicatedVNet: false,
			Subnets:       []string{"shared"},
			Isolated:      false,
		}
	}
}

// ComputeConfig sizes the tenant's compute fleet.
type ComputeConfig struct {
	VMSize            string
	InstanceCount     int
	AutoScaling       bool
	AvailabilityZones int
}

func (ComputeConfig) ResourceType() Type { return TypeCompute }

var vmSizes = map[tenant.CloudProvider]map[tenant.ServiceTier]string{
	tenant.ProviderAzure: {
		tenant.TierPremium:  "Standard_D8s_v5",
		tenant.TierStandard: "Standard_D4s_v5",
		tenant.TierBasic:    "Standard_D2s_v5",
	},
	tenant.ProviderAWS: {
		tenant.TierPremium:  "m5.2xlarge",
		tenant.TierStandard: "m5.xlarge",
		tenant.TierBasic:    "m5.large",
	},
	tenant.ProviderGCP: {
		tenant.TierPremium:  "n2-standard-8",
		tenant.TierStandard: "n2-standard-4",
		tenant.TierBasic:    "n2-standard-2",
	},
}

// genericSizes covers providers the size table does not know; builders must
// not fail for any enum combination.
var genericSizes = map[tenant.ServiceTier]string{
	tenant.TierPremium:  "large",
	tenant.TierStandard: "medium",
	tenant.TierBasic:    "small",
}

// NewComputeConfig scales instance and availability-zone counts
// monotonically with the tier. Autoscaling is reserved for premium and
// standard tenants.
func NewComputeConfig(in BuildInput) ComputeConfig {
	tier := in.Tier.Normalize()

	size := genericSizes[tier]
	if sizes, ok := vmSizes[in.Provider]; ok {
		size = sizes[tier]
	}

	cfg := ComputeConfig{VMSize: size}
	switch tier {
	case tenant.TierPremium:
		cfg.InstanceCount = 4
		cfg.AvailabilityZones = 3
		cfg.AutoScaling = true
	case tenant.TierStandard:
		cfg.InstanceCount = 2
		cfg.AvailabilityZones = 2
		cfg.AutoScaling = true
	default:
		cfg.InstanceCount = 1
		cfg.AvailabilityZones = 1
	}
	return cfg
}

// StorageConfig describes the tenant's object/file storage account.
type StorageConfig struct {
	Replication string
	Encryption  string
	AccessTier  string
}

func (StorageConfig) ResourceType() Type { return TypeStorage }

// NewStorageConfig picks geo-redundant replication for premium tenants and
// locally-redundant otherwise. A regulated-data compliance marker forces
// AES-256 at rest regardless of tier.
func NewStorageConfig(in BuildInput) StorageConfig {
	tier := in.Tier.Normalize()

	cfg := StorageConfig{
		Replication: "locally-redundant",
		Encryption:  EncryptionProviderManaged,
		AccessTier:  "hot",
	}
	if tier == tenant.TierPremium {
		cfg.Replication = "geo-redundant"
	}
	if tier == tenant.TierBasic {
		cfg.AccessTier = "cool"
	}
	if HasRegulatedData(in.Compliance) {
		cfg.Encryption = EncryptionAES256
	}
	return cfg
}

// DatabaseConfig describes the tenant's relational database deployment.
type DatabaseConfig struct {
	HighAvailability    bool
	ReadReplicas        int
	Isolated            bool
	BackupRetentionDays int
}

func (DatabaseConfig) ResourceType() Type { return TypeDatabase }

// NewDatabaseConfig scales high availability and read replicas with the tier
// and mirrors silo isolation onto the database instance.
func NewDatabaseConfig(in BuildInput) DatabaseConfig {
	cfg := DatabaseConfig{
		Isolated: in.Isolation.Normalize() == tenant.IsolationSilo,
	}
	switch in.Tier.Normalize() {
	case tenant.TierPremium:
		cfg.HighAvailability = true
		cfg.ReadReplicas = 2
		cfg.BackupRetentionDays = 35
	case tenant.TierStandard:
		cfg.HighAvailability = true
		cfg.ReadReplicas = 1
		cfg.BackupRetentionDays = 14
	default:
		cfg.BackupRetentionDays = 7
	}
	return cfg
}

// IdentityConfig describes the tenant's identity and access setup.
type IdentityConfig struct {
	DedicatedIdentityProvider bool
	MFAEnabled                bool
	ConditionalAccess         bool
	RBACEnabled               bool
}

func (IdentityConfig) ResourceType() Type { return TypeIdentity }

// NewIdentityConfig requests a dedicated identity provider only under silo
// isolation. MFA, conditional access and RBAC are non-negotiable.
func NewIdentityConfig(in BuildInput) IdentityConfig {
	return IdentityConfig{
		DedicatedIdentityProvider: in.Isolation.Normalize() == tenant.IsolationSilo,
		MFAEnabled:                true,
		ConditionalAccess:         true,
		RBACEnabled:               true,
	}
}

// SecurityConfig describes the tenant's security posture.
type SecurityConfig struct {
	EncryptionAtRest    bool
	EncryptionInTransit bool
	KeyManagement       string
	Compliance          []string
}

func (SecurityConfig) ResourceType() Type { return TypeSecurity }

// NewSecurityConfig always requests encryption at rest and in transit.
// Key management is dedicated under silo isolation, shared otherwise. The
// compliance set is carried through unmodified for downstream audit.
func NewSecurityConfig(in BuildInput) SecurityConfig {
	keyManagement := "shared"
	if in.Isolation.Normalize() == tenant.IsolationSilo {
		keyManagement = "dedicated"
	}

	compliance := make([]string, len(in.Compliance))
	copy(compliance, in.Compliance)

	return SecurityConfig{
		EncryptionAtRest:    true,
		EncryptionInTransit: true,
		KeyManagement:       keyManagement,
		Compliance:          compliance,
	}
}

// MonitoringConfig describes the tenant's telemetry collection.
type MonitoringConfig struct {
	LogLevel           string
	DiagnosticsEnabled bool
	RetentionDays      int
}

func (MonitoringConfig) ResourceType() Type { return TypeMonitoring }

// NewMonitoringConfig scales log verbosity and diagnostics with the tier.
// Retention is 90 days for premium tenants and 30 otherwise.
func NewMonitoringConfig(in BuildInput) MonitoringConfig {
	switch in.Tier.Normalize() {
	case tenant.TierPremium:
		return MonitoringConfig{LogLevel: "verbose", DiagnosticsEnabled: true, RetentionDays: 90}
	case tenant.TierStandard:
		return MonitoringConfig{LogLevel: "standard", DiagnosticsEnabled: true, RetentionDays: 30}
	default:
		return MonitoringConfig{LogLevel: "minimal", DiagnosticsEnabled: false, RetentionDays: 30}
	}
}
