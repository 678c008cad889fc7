// Package orchestrator drives the end-to-end provision and deprovision
// workflows: provider gating, plan generation, adapter execution in
// dependency order, lifecycle record bookkeeping and event emission.
//
// The orchestrator holds no durable state. It returns the lifecycle record
// of every workflow, terminal either way, and the caller persists it.
// Adapter failures are not compensated automatically: resources created
// before the failure stay on the failed record for manual reconciliation.
package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/perimeterlabs/tenantgrid/internal/application/events"
	"github.com/perimeterlabs/tenantgrid/internal/application/workflow"
	"github.com/perimeterlabs/tenantgrid/internal/domain/lifecycle"
	"github.com/perimeterlabs/tenantgrid/internal/domain/plan"
	"github.com/perimeterlabs/tenantgrid/internal/domain/provider"
	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
	"github.com/perimeterlabs/tenantgrid/pkg/common/logger"
	"github.com/perimeterlabs/tenantgrid/pkg/common/timeutil"
)

// Failure reasons attached to metrics.
const (
	reasonProviderNotConfigured = "provider_not_configured"
	reasonValidation            = "validation_error"
	reasonAdapter               = "adapter_error"
)

// Service orchestrates tenant infrastructure workflows across the configured
// cloud providers.
type Service struct {
	registry *provider.Registry
	adapters map[tenant.CloudProvider]ProviderAdapter
	bus      *events.Bus

	clock           timeutil.Provider
	workflowTimeout time.Duration

	logger  *logger.Logger
	tracer  trace.Tracer
	metrics ProvisioningMetrics
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the time source, typically with timeutil.Mock in tests.
func WithClock(clock timeutil.Provider) Option {
	return func(s *Service) { s.clock = clock }
}

// WithWorkflowTimeout bounds each workflow run.
func WithWorkflowTimeout(d time.Duration) Option {
	return func(s *Service) { s.workflowTimeout = d }
}

// NewService creates the orchestrator. The registry and the adapter map are
// fixed for the service's lifetime; a different provider fleet means a new
// service instance.
func NewService(
	registry *provider.Registry,
	adapters map[tenant.CloudProvider]ProviderAdapter,
	bus *events.Bus,
	log *logger.Logger,
	tracer trace.Tracer,
	metrics ProvisioningMetrics,
	opts ...Option,
) *Service {
	s := &Service{
		registry:        registry,
		adapters:        adapters,
		bus:             bus,
		clock:           timeutil.Default(),
		workflowTimeout: workflow.DefaultTimeout,
		logger:          log.With("component", "orchestrator"),
		tracer:          tracer,
		metrics:         metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProvisionTenant runs one provisioning workflow to completion and returns
// its lifecycle record. On validation or provider-gating failures the record
// is failed before any adapter call, so no partial resources exist. On an
// adapter failure the record lists the resources created up to that point.
func (s *Service) ProvisionTenant(ctx context.Context, req tenant.ProvisioningRequest) (*lifecycle.Record, error) {
	log := logger.NewLoggerContext(s.logger.With(
		"operation_type", "provision",
		"tenant_id", req.TenantID,
		"provider", string(req.Provider),
		"region", req.Region,
		"tier", string(req.Tier),
		"isolation", string(req.Isolation),
	))
	ctx, span := s.tracer.Start(ctx, "orchestrator.ProvisionTenant", trace.WithAttributes(
		attribute.String("tenant_id", req.TenantID),
		attribute.String("provider", string(req.Provider)),
		attribute.String("region", req.Region),
		attribute.String("tier", string(req.Tier)),
		attribute.String("isolation", string(req.Isolation)),
	))
	defer span.End()

	record := lifecycle.NewProvisionRecord(req.TenantID, req.Provider, s.clock.Now())
	tier := string(req.Tier.Normalize())

	adapter, err := s.gate(req.Provider)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider not configured")
		log.Error(ctx, "provider not configured")
		record.Fail(err.Error(), s.clock.Now())
		s.metrics.IncProvisioningFailure(ctx, string(req.Provider), tier, reasonProviderNotConfigured)
		return record, err
	}

	pl, err := plan.Generate(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid provisioning request")
		log.Error(ctx, "invalid provisioning request", "error", err)
		record.Fail(err.Error(), s.clock.Now())
		s.metrics.IncProvisioningFailure(ctx, string(req.Provider), tier, reasonValidation)
		return record, err
	}
	span.AddEvent("plan generated")
	log.Add("descriptors", len(pl.Descriptors))
	log.Info(ctx, "provisioning plan generated")

	steps := make([]workflow.Step, 0, len(pl.Descriptors))
	for _, d := range pl.Descriptors {
		steps = append(steps, s.provisionStep(adapter, pl, d, record))
	}

	wf := workflow.NewBaseWorkflowWithTimeout(steps, s.workflowTimeout)
	wf.Start(ctx)
	result := <-wf.ResultChan()

	if !result.Success {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "provisioning workflow failed")
		log.Error(ctx, "provisioning workflow failed", "error", result.Error)
		record.Fail(result.Error.Error(), s.clock.Now())
		s.bus.Publish(events.Event{
			Type: events.TypeProvisioningError,
			Payload: events.ProvisioningError{
				TenantID: req.TenantID,
				Error:    result.Error.Error(),
			},
		})
		s.metrics.IncProvisioningFailure(ctx, string(req.Provider), tier, reasonAdapter)
		return record, result.Error
	}

	record.Complete(s.clock.Now())
	s.bus.Publish(events.Event{
		Type: events.TypeTenantProvisioned,
		Payload: events.TenantProvisioned{
			TenantID:  record.TenantID,
			Provider:  record.Provider,
			Resources: record.Resources,
			Status:    record.Status,
			StartTime: record.StartedAt,
			EndTime:   *record.CompletedAt,
		},
	})
	s.metrics.IncProvisioningSuccess(ctx, string(req.Provider), tier)
	s.metrics.ObserveProvisioningDuration(ctx, string(req.Provider), tier, record.Duration())

	span.SetStatus(codes.Ok, "tenant provisioned")
	log.Info(ctx, "tenant provisioned", "resources", len(record.Resources))

	return record, nil
}

// provisionStep builds the workflow step for one plan descriptor. Execute
// only calls the adapter; the record append, the resource-provisioned event
// and the duration metric live in Commit, so an adapter call abandoned at the
// workflow timeout leaves the record and the event stream untouched. Steps
// run sequentially, so the event stream follows plan order.
func (s *Service) provisionStep(
	adapter ProviderAdapter,
	pl *plan.Plan,
	d resource.Descriptor,
	record *lifecycle.Record,
) workflow.Step {
	var (
		started time.Time
		rec     resource.Record
	)
	return workflow.Step{
		Name:        "provision-" + string(d.Type),
		Description: "Provision the tenant " + string(d.Type) + " resource",
		Execute: func(ctx context.Context) error {
			started = s.clock.Now()

			created, err := adapter.CreateResource(ctx, pl, d)
			if err != nil {
				return &AdapterError{Provider: pl.Provider, Resource: d.Type, Err: err}
			}
			rec = created
			return nil
		},
		Commit: func(ctx context.Context) {
			record.AppendResource(rec)
			s.bus.Publish(events.Event{
				Type: events.TypeResourceProvisioned,
				Payload: events.ResourceProvisioned{
					ResourceID:    rec.ID,
					ResourceType:  rec.Type,
					ResourceName:  rec.Name,
					CloudProvider: rec.Provider,
					Region:        rec.Region,
					Status:        rec.Status,
					Config:        rec.Config,
					ProvisionedAt: rec.ProvisionedAt,
				},
			})
			s.metrics.ObserveResourceDuration(ctx, string(pl.Provider), string(d.Type), s.clock.Now().Sub(started))
		},
	}
}

// DeprovisionTenant runs one deprovisioning workflow to completion. It needs
// no plan: the adapter deletes everything it holds for the tenant.
func (s *Service) DeprovisionTenant(ctx context.Context, tenantID string, p tenant.CloudProvider) (*lifecycle.Record, error) {
	log := logger.NewLoggerContext(s.logger.With(
		"operation_type", "deprovision",
		"tenant_id", tenantID,
		"provider", string(p),
	))
	ctx, span := s.tracer.Start(ctx, "orchestrator.DeprovisionTenant", trace.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("provider", string(p)),
	))
	defer span.End()

	record := lifecycle.NewDeprovisionRecord(tenantID, p, s.clock.Now())

	if tenantID == "" {
		err := tenant.NewValidationError("tenantId", "must not be empty")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid deprovisioning request")
		record.Fail(err.Error(), s.clock.Now())
		s.metrics.IncDeprovisioningFailure(ctx, string(p), reasonValidation)
		return record, err
	}

	adapter, err := s.gate(p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider not configured")
		log.Error(ctx, "provider not configured")
		record.Fail(err.Error(), s.clock.Now())
		s.metrics.IncDeprovisioningFailure(ctx, string(p), reasonProviderNotConfigured)
		return record, err
	}

	var deletions []resource.Deletion
	steps := []workflow.Step{{
		Name:        "remove-resources",
		Description: "Delete all tenant resources held by the provider",
		Execute: func(ctx context.Context) error {
			deleted, err := adapter.DeleteTenant(ctx, tenantID)
			if err != nil {
				return &AdapterError{Provider: p, Err: err}
			}
			deletions = deleted
			return nil
		},
		Commit: func(context.Context) {
			record.SetDeprovisioned(deletions)
		},
	}}

	wf := workflow.NewBaseWorkflowWithTimeout(steps, s.workflowTimeout)
	wf.Start(ctx)
	result := <-wf.ResultChan()

	if !result.Success {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "deprovisioning workflow failed")
		log.Error(ctx, "deprovisioning workflow failed", "error", result.Error)
		record.Fail(result.Error.Error(), s.clock.Now())
		s.bus.Publish(events.Event{
			Type: events.TypeDeprovisioningError,
			Payload: events.DeprovisioningError{
				TenantID: tenantID,
				Error:    result.Error.Error(),
			},
		})
		s.metrics.IncDeprovisioningFailure(ctx, string(p), reasonAdapter)
		return record, result.Error
	}

	record.Complete(s.clock.Now())
	s.bus.Publish(events.Event{
		Type: events.TypeTenantDeprovisioned,
		Payload: events.TenantDeprovisioned{
			TenantID:               record.TenantID,
			Provider:               record.Provider,
			DeprovisionedResources: record.Deprovisioned,
			Status:                 record.Status,
			StartTime:              record.StartedAt,
			EndTime:                *record.CompletedAt,
		},
	})
	s.metrics.IncDeprovisioningSuccess(ctx, string(p))
	s.metrics.ObserveDeprovisioningDuration(ctx, string(p), record.Duration())

	span.SetStatus(codes.Ok, "tenant deprovisioned")
	log.Info(ctx, "tenant deprovisioned", "deleted_resources", len(record.Deprovisioned))

	return record, nil
}

// gate rejects providers the registry does not enable, before any adapter
// work happens.
func (s *Service) gate(p tenant.CloudProvider) (ProviderAdapter, error) {
	if !s.registry.IsEnabled(p) {
		return nil, provider.NotConfiguredError{Provider: p}
	}
	adapter, ok := s.adapters[p]
	if !ok {
		return nil, provider.NotConfiguredError{Provider: p}
	}
	return adapter, nil
}
