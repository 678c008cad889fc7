package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CloudProvider
		wantErr bool
	}{
		{name: "azure", input: "azure", want: ProviderAzure},
		{name: "aws", input: "aws", want: ProviderAWS},
		{name: "gcp", input: "gcp", want: ProviderGCP},
		{name: "unknown provider", input: "digitalocean", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "case sensitive", input: "AWS", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsolationModel_Normalize(t *testing.T) {
	assert.Equal(t, IsolationSilo, IsolationSilo.Normalize())
	assert.Equal(t, IsolationPool, IsolationPool.Normalize())
	assert.Equal(t, IsolationHybrid, IsolationHybrid.Normalize())

	// Unknown values fall back to the shared pool.
	assert.Equal(t, IsolationPool, IsolationModel("dedicated-rack").Normalize())
	assert.Equal(t, IsolationPool, IsolationModel("").Normalize())
}

func TestServiceTier_Normalize(t *testing.T) {
	assert.Equal(t, TierPremium, TierPremium.Normalize())
	assert.Equal(t, TierStandard, TierStandard.Normalize())
	assert.Equal(t, TierBasic, TierBasic.Normalize())

	// Unknown values fall back to standard.
	assert.Equal(t, TierStandard, ServiceTier("platinum").Normalize())
	assert.Equal(t, TierStandard, ServiceTier("").Normalize())
}

func TestProvisioningRequest_Validate(t *testing.T) {
	valid := ProvisioningRequest{
		TenantID: "acme-corp",
		Provider: ProviderAzure,
		Region:   "eastus",
	}

	tests := []struct {
		name      string
		mutate    func(r *ProvisioningRequest)
		wantField string
	}{
		{name: "valid request", mutate: func(r *ProvisioningRequest) {}},
		{
			name:      "missing tenant id",
			mutate:    func(r *ProvisioningRequest) { r.TenantID = "" },
			wantField: "tenantId",
		},
		{
			name:      "tenant id with uppercase",
			mutate:    func(r *ProvisioningRequest) { r.TenantID = "AcmeCorp" },
			wantField: "tenantId",
		},
		{
			name:      "tenant id with underscore",
			mutate:    func(r *ProvisioningRequest) { r.TenantID = "acme_corp" },
			wantField: "tenantId",
		},
		{
			name:      "tenant id starting with hyphen",
			mutate:    func(r *ProvisioningRequest) { r.TenantID = "-acme" },
			wantField: "tenantId",
		},
		{
			name:      "missing provider",
			mutate:    func(r *ProvisioningRequest) { r.Provider = "" },
			wantField: "provider",
		},
		{
			name:      "missing region",
			mutate:    func(r *ProvisioningRequest) { r.Region = "" },
			wantField: "region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestProvisioningRequest_ValidateAllowsUnknownTierAndIsolation(t *testing.T) {
	// Unknown tiers and isolation models are normalized downstream, not
	// rejected at validation time.
	req := ProvisioningRequest{
		TenantID:  "acme-corp",
		Provider:  ProviderGCP,
		Region:    "us-central1",
		Isolation: IsolationModel("mystery"),
		Tier:      ServiceTier("mystery"),
	}
	assert.NoError(t, req.Validate())
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("region", "must not be empty")
	assert.Equal(t, "validation error on field 'region': must not be empty", err.Error())
}
