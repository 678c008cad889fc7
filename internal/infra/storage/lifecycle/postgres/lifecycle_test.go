package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perimeterlabs/tenantgrid/internal/domain/lifecycle"
	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
	"github.com/perimeterlabs/tenantgrid/internal/infra/storage/testutil"
)

func setupLifecycleTest(t *testing.T) (context.Context, *lifecycleStore, func()) {
	t.Helper()

	pool, cleanup := testutil.SetupTestContainer(t)
	store := &lifecycleStore{pool: pool, tracer: testutil.NoOpTracer()}

	return context.Background(), store, cleanup
}

func testResource(tenantID string, typ resource.Type, at time.Time) resource.Record {
	return resource.Record{
		ID:            "azure-" + string(typ) + "-" + tenantID + "-0001",
		Type:          typ,
		Name:          tenantID + "-" + string(typ),
		TenantID:      tenantID,
		Provider:      tenant.ProviderAzure,
		Region:        "eastus",
		Status:        resource.StatusActive,
		ProvisionedAt: at,
	}
}

func TestLifecycleStore_SaveAndFindByID(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupLifecycleTest(t)
	defer cleanup()

	startedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storageCfg := resource.NewStorageConfig(resource.BuildInput{
		Tier:       tenant.TierPremium,
		Isolation:  tenant.IsolationSilo,
		Compliance: []string{"HIPAA"},
		Provider:   tenant.ProviderAzure,
		Region:     "eastus",
	})

	record := lifecycle.NewProvisionRecord("acme-corp", tenant.ProviderAzure, startedAt)
	record.AppendResource(testResource("acme-corp", resource.TypeNetwork, startedAt))
	storageRes := testResource("acme-corp", resource.TypeStorage, startedAt.Add(time.Second))
	storageRes.Config = storageCfg
	record.AppendResource(storageRes)
	record.Complete(startedAt.Add(2 * time.Second))

	id, err := store.Save(ctx, record)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	found, err := store.FindByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, found.ID)
	assert.Equal(t, "acme-corp", found.TenantID)
	assert.Equal(t, tenant.ProviderAzure, found.Provider)
	assert.Equal(t, lifecycle.OperationProvision, found.Operation)
	assert.Equal(t, lifecycle.StatusCompleted, found.Status)
	require.NotNil(t, found.CompletedAt)
	assert.True(t, found.CompletedAt.Equal(*record.CompletedAt))
	assert.Nil(t, found.ErrorMessage)

	require.Len(t, found.Resources, 2)
	assert.Equal(t, resource.TypeNetwork, found.Resources[0].Type)
	assert.Equal(t, resource.TypeStorage, found.Resources[1].Type)
	for i, res := range found.Resources {
		assert.Equal(t, record.Resources[i].ID, res.ID)
		assert.Equal(t, record.Resources[i].Name, res.Name)
		assert.Equal(t, "acme-corp", res.TenantID)
		assert.Equal(t, tenant.ProviderAzure, res.Provider)
		assert.Equal(t, "eastus", res.Region)
		assert.Equal(t, resource.StatusActive, res.Status)
		assert.True(t, res.ProvisionedAt.Equal(record.Resources[i].ProvisionedAt))
	}
	assert.Empty(t, found.Deprovisioned)

	// The persisted category config comes back verbatim as stored JSON.
	stored, ok := found.Resources[1].Config.(resource.StoredConfig)
	require.True(t, ok)
	assert.Equal(t, resource.TypeStorage, stored.ResourceType())
	wantCfg, err := json.Marshal(storageCfg)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantCfg), string(stored.Raw))
}

func TestLifecycleStore_SaveFailedRecord(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupLifecycleTest(t)
	defer cleanup()

	startedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := lifecycle.NewProvisionRecord("acme-corp", tenant.ProviderAWS, startedAt)
	record.AppendResource(testResource("acme-corp", resource.TypeNetwork, startedAt))
	record.Fail("storage quota exceeded", startedAt.Add(time.Second))

	id, err := store.Save(ctx, record)
	require.NoError(t, err)

	found, err := store.FindByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusFailed, found.Status)
	require.NotNil(t, found.ErrorMessage)
	assert.Equal(t, "storage quota exceeded", *found.ErrorMessage)
	require.NotNil(t, found.CompletedAt)
	assert.Len(t, found.Resources, 1)
}

func TestLifecycleStore_SaveDeprovisionRecord(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupLifecycleTest(t)
	defer cleanup()

	startedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deletedAt := startedAt.Add(3 * time.Second)
	record := lifecycle.NewDeprovisionRecord("acme-corp", tenant.ProviderGCP, startedAt)
	record.SetDeprovisioned([]resource.Deletion{
		{ResourceID: "gcp-network-acme-corp-0001", Type: resource.TypeNetwork, TenantID: "acme-corp", Status: resource.StatusDeleted, DeletedAt: deletedAt},
		{ResourceID: "gcp-compute-acme-corp-0002", Type: resource.TypeCompute, TenantID: "acme-corp", Status: resource.StatusDeleted, DeletedAt: deletedAt},
	})
	record.Complete(deletedAt)

	id, err := store.Save(ctx, record)
	require.NoError(t, err)

	found, err := store.FindByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, lifecycle.OperationDeprovision, found.Operation)
	assert.Equal(t, lifecycle.StatusCompleted, found.Status)
	assert.Empty(t, found.Resources)
	require.Len(t, found.Deprovisioned, 2)
	assert.Equal(t, "gcp-network-acme-corp-0001", found.Deprovisioned[0].ResourceID)
	assert.Equal(t, resource.TypeCompute, found.Deprovisioned[1].Type)
	assert.Equal(t, "acme-corp", found.Deprovisioned[0].TenantID)
	assert.Equal(t, resource.StatusDeleted, found.Deprovisioned[0].Status)
	assert.True(t, found.Deprovisioned[0].DeletedAt.Equal(deletedAt))
}

func TestLifecycleStore_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupLifecycleTest(t)
	defer cleanup()

	_, err := store.FindByID(ctx, 999999)
	assert.ErrorIs(t, err, lifecycle.ErrRecordNotFound)
}

func TestLifecycleStore_FindByTenantID(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupLifecycleTest(t)
	defer cleanup()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := lifecycle.NewProvisionRecord("acme-corp", tenant.ProviderAzure, base)
	first.Complete(base.Add(time.Second))
	firstID, err := store.Save(ctx, first)
	require.NoError(t, err)

	second := lifecycle.NewDeprovisionRecord("acme-corp", tenant.ProviderAzure, base.Add(time.Hour))
	second.Complete(base.Add(time.Hour).Add(time.Second))
	secondID, err := store.Save(ctx, second)
	require.NoError(t, err)

	other := lifecycle.NewProvisionRecord("globex", tenant.ProviderAWS, base)
	_, err = store.Save(ctx, other)
	require.NoError(t, err)

	records, err := store.FindByTenantID(ctx, "acme-corp")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, secondID, records[0].ID)
	assert.Equal(t, firstID, records[1].ID)
	for _, record := range records {
		assert.Equal(t, "acme-corp", record.TenantID)
	}
}

func TestLifecycleStore_FindByTenantID_Empty(t *testing.T) {
	t.Parallel()

	ctx, store, cleanup := setupLifecycleTest(t)
	defer cleanup()

	records, err := store.FindByTenantID(ctx, "no-such-tenant")
	require.NoError(t, err)
	assert.Empty(t, records)
}
