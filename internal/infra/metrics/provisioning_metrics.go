package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/perimeterlabs/tenantgrid/internal/application/orchestrator"
)

var _ orchestrator.ProvisioningMetrics = (*provisioningMetrics)(nil)

type provisioningMetrics struct {
	provisioningSuccess    metric.Int64Counter
	provisioningFailure    metric.Int64Counter
	provisioningDuration   metric.Float64Histogram
	resourceDuration       metric.Float64Histogram
	deprovisioningSuccess  metric.Int64Counter
	deprovisioningFailure  metric.Int64Counter
	deprovisioningDuration metric.Float64Histogram
}

// newProvisioningMetrics creates the otel instruments backing the
// orchestrator's metrics interface.
func newProvisioningMetrics(mp metric.MeterProvider) (*provisioningMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(provisioningMetrics)
	var err error

	if m.provisioningSuccess, err = meter.Int64Counter(
		"tenant_provisioning_success_total",
		metric.WithDescription("Total number of successful tenant provisioning workflows"),
	); err != nil {
		return nil, err
	}

	if m.provisioningFailure, err = meter.Int64Counter(
		"tenant_provisioning_failure_total",
		metric.WithDescription("Total number of failed tenant provisioning workflows"),
	); err != nil {
		return nil, err
	}

	if m.provisioningDuration, err = meter.Float64Histogram(
		"tenant_provisioning_duration_seconds",
		metric.WithDescription("Duration of tenant provisioning workflows in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.resourceDuration, err = meter.Float64Histogram(
		"tenant_resource_provisioning_duration_seconds",
		metric.WithDescription("Duration of individual resource provisioning calls in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.deprovisioningSuccess, err = meter.Int64Counter(
		"tenant_deprovisioning_success_total",
		metric.WithDescription("Total number of successful tenant deprovisioning workflows"),
	); err != nil {
		return nil, err
	}

	if m.deprovisioningFailure, err = meter.Int64Counter(
		"tenant_deprovisioning_failure_total",
		metric.WithDescription("Total number of failed tenant deprovisioning workflows"),
	); err != nil {
		return nil, err
	}

	if m.deprovisioningDuration, err = meter.Float64Histogram(
		"tenant_deprovisioning_duration_seconds",
		metric.WithDescription("Duration of tenant deprovisioning workflows in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *provisioningMetrics) IncProvisioningSuccess(ctx context.Context, provider string, tier string) {
	m.provisioningSuccess.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("tier", tier),
	))
}

func (m *provisioningMetrics) IncProvisioningFailure(ctx context.Context, provider string, tier string, reason string) {
	m.provisioningFailure.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("tier", tier),
		attribute.String("reason", reason),
	))
}

func (m *provisioningMetrics) ObserveProvisioningDuration(ctx context.Context, provider string, tier string, duration time.Duration) {
	m.provisioningDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("tier", tier),
	))
}

func (m *provisioningMetrics) ObserveResourceDuration(ctx context.Context, provider string, resourceType string, duration time.Duration) {
	m.resourceDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("resource_type", resourceType),
	))
}

func (m *provisioningMetrics) IncDeprovisioningSuccess(ctx context.Context, provider string) {
	m.deprovisioningSuccess.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

func (m *provisioningMetrics) IncDeprovisioningFailure(ctx context.Context, provider string, reason string) {
	m.deprovisioningFailure.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("reason", reason),
	))
}

func (m *provisioningMetrics) ObserveDeprovisioningDuration(ctx context.Context, provider string, duration time.Duration) {
	m.deprovisioningDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}
