package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

func TestNewProvisionRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := NewProvisionRecord("acme", tenant.ProviderAzure, now)

	assert.Equal(t, "acme", record.TenantID)
	assert.Equal(t, tenant.ProviderAzure, record.Provider)
	assert.Equal(t, OperationProvision, record.Operation)
	assert.Equal(t, StatusProvisioning, record.Status)
	assert.Equal(t, now, record.StartedAt)
	assert.Nil(t, record.CompletedAt)
	assert.False(t, record.IsTerminal())
}

func TestNewDeprovisionRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := NewDeprovisionRecord("acme", tenant.ProviderAWS, now)

	assert.Equal(t, OperationDeprovision, record.Operation)
	assert.Equal(t, StatusDeprovisioning, record.Status)
	assert.False(t, record.IsTerminal())
}

func TestRecord_AppendResourcePreservesOrder(t *testing.T) {
	record := NewProvisionRecord("acme", tenant.ProviderGCP, time.Now())

	record.AppendResource(resource.Record{ID: "r1", Type: resource.TypeNetwork})
	record.AppendResource(resource.Record{ID: "r2", Type: resource.TypeIdentity})
	record.AppendResource(resource.Record{ID: "r3", Type: resource.TypeSecurity})

	require.Len(t, record.Resources, 3)
	assert.Equal(t, "r1", record.Resources[0].ID)
	assert.Equal(t, "r2", record.Resources[1].ID)
	assert.Equal(t, "r3", record.Resources[2].ID)
}

func TestRecord_Complete(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Second)

	record := NewProvisionRecord("acme", tenant.ProviderAzure, start)
	record.Complete(end)

	assert.Equal(t, StatusCompleted, record.Status)
	require.NotNil(t, record.CompletedAt)
	assert.Equal(t, end, *record.CompletedAt)
	assert.True(t, record.IsTerminal())
	assert.Equal(t, 42*time.Second, record.Duration())
}

func TestRecord_Fail(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Second)

	record := NewProvisionRecord("acme", tenant.ProviderAzure, start)
	record.AppendResource(resource.Record{ID: "r1", Type: resource.TypeNetwork})
	record.Fail("compute quota exceeded", end)

	assert.Equal(t, StatusFailed, record.Status)
	require.NotNil(t, record.ErrorMessage)
	assert.Equal(t, "compute quota exceeded", *record.ErrorMessage)
	assert.True(t, record.IsTerminal())

	// Partial resources survive the failure for manual reconciliation.
	assert.Len(t, record.Resources, 1)
}

func TestRecord_DurationWhileRunning(t *testing.T) {
	record := NewProvisionRecord("acme", tenant.ProviderAzure, time.Now())
	assert.Zero(t, record.Duration())
}

func TestRecord_SetDeprovisioned(t *testing.T) {
	now := time.Now()
	record := NewDeprovisionRecord("acme", tenant.ProviderAWS, now)

	deletions := []resource.Deletion{
		{ResourceID: "r1", Type: resource.TypeNetwork, Status: resource.StatusDeleted, DeletedAt: now},
		{ResourceID: "r2", Type: resource.TypeIdentity, Status: resource.StatusDeleted, DeletedAt: now},
	}
	record.SetDeprovisioned(deletions)

	assert.Equal(t, deletions, record.Deprovisioned)
}
