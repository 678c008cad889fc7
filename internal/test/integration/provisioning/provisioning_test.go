//go:build integration

package provisioning

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perimeterlabs/tenantgrid/internal/application/events"
	"github.com/perimeterlabs/tenantgrid/internal/application/orchestrator"
	"github.com/perimeterlabs/tenantgrid/internal/domain/lifecycle"
	"github.com/perimeterlabs/tenantgrid/internal/domain/provider"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
	"github.com/perimeterlabs/tenantgrid/internal/infra/adapters/cloud"
	"github.com/perimeterlabs/tenantgrid/internal/infra/metrics"
	lifecyclePG "github.com/perimeterlabs/tenantgrid/internal/infra/storage/lifecycle/postgres"
	"github.com/perimeterlabs/tenantgrid/internal/infra/storage/testutil"
	"github.com/perimeterlabs/tenantgrid/pkg/common/logger"
)

// setupProvisioning creates a test environment with a database-backed
// lifecycle repository and an orchestrator driving the simulated fleet.
func setupProvisioning(t *testing.T) (
	*orchestrator.Service,
	lifecycle.Repository,
	context.Context,
	func(),
) {
	t.Helper()

	pool, cleanup := testutil.SetupTestContainer(t)

	registry, err := provider.NewRegistry(map[tenant.CloudProvider]provider.Config{
		tenant.ProviderAzure: {Enabled: true, CredentialsRef: "vault://azure/test", DefaultRegion: "eastus"},
		tenant.ProviderGCP:   {Enabled: true, CredentialsRef: "vault://gcp/test", DefaultRegion: "us-central1"},
	})
	require.NoError(t, err)

	metricsRegistry, err := metrics.NewRegistry(metricnoop.NewMeterProvider())
	require.NoError(t, err)

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	tracer := noop.NewTracerProvider().Tracer("test-integration")
	service := orchestrator.NewService(
		registry,
		cloud.NewSimulatedFleet(),
		bus,
		logger.Noop(),
		tracer,
		metricsRegistry.Provisioning,
	)
	repo := lifecyclePG.NewLifecycleStore(pool, testutil.NoOpTracer())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	return service, repo, ctx, cleanup
}

// TestProvisionAndDeprovisionHappyPath runs a full provision and deprovision
// cycle and verifies both lifecycle records survive a database round trip.
func TestProvisionAndDeprovisionHappyPath(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	service, repo, ctx, cleanup := setupProvisioning(t)
	defer cleanup()

	tenantID := fmt.Sprintf("test-tenant-%d", time.Now().UnixNano())
	record, err := service.ProvisionTenant(ctx, tenant.ProvisioningRequest{
		TenantID:   tenantID,
		Name:       "Integration Test Tenant",
		Provider:   tenant.ProviderAzure,
		Region:     "eastus",
		Isolation:  tenant.IsolationSilo,
		Tier:       tenant.TierPremium,
		Compliance: []string{"HIPAA"},
		Requirements: tenant.ResourceRequirements{
			Compute:  true,
			Storage:  true,
			Database: true,
		},
	})
	require.NoError(t, err, "Failed to provision tenant")
	require.NotNil(t, record)
	assert.Equal(t, lifecycle.StatusCompleted, record.Status)
	assert.Len(t, record.Resources, 7)

	provisionID, err := repo.Save(ctx, record)
	require.NoError(t, err, "Failed to save provision record")

	found, err := repo.FindByID(ctx, provisionID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.OperationProvision, found.Operation)
	assert.Equal(t, lifecycle.StatusCompleted, found.Status)
	assert.Len(t, found.Resources, 7)

	deprovision, err := service.DeprovisionTenant(ctx, tenantID, tenant.ProviderAzure)
	require.NoError(t, err, "Failed to deprovision tenant")
	assert.Equal(t, lifecycle.StatusCompleted, deprovision.Status)
	assert.Len(t, deprovision.Deprovisioned, 7)

	_, err = repo.Save(ctx, deprovision)
	require.NoError(t, err, "Failed to save deprovision record")

	history, err := repo.FindByTenantID(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, lifecycle.OperationDeprovision, history[0].Operation)
	assert.Equal(t, lifecycle.OperationProvision, history[1].Operation)
}

// TestProvisionDisabledProviderFails verifies that a provider left out of the
// registry configuration is rejected before any adapter work happens.
func TestProvisionDisabledProviderFails(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	service, repo, ctx, cleanup := setupProvisioning(t)
	defer cleanup()

	tenantID := fmt.Sprintf("test-tenant-%d", time.Now().UnixNano())
	record, err := service.ProvisionTenant(ctx, tenant.ProvisioningRequest{
		TenantID: tenantID,
		Name:     "AWS Tenant",
		Provider: tenant.ProviderAWS,
		Region:   "us-east-1",
	})

	var notConfigured *provider.NotConfiguredError
	require.ErrorAs(t, err, &notConfigured)
	require.NotNil(t, record)
	assert.Equal(t, lifecycle.StatusFailed, record.Status)
	assert.Empty(t, record.Resources)

	id, err := repo.Save(ctx, record)
	require.NoError(t, err, "Failed to save failed record")

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusFailed, found.Status)
	require.NotNil(t, found.ErrorMessage)
}
