// Package http assembles the API routes for the tenantgrid control plane.
package http

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	handler "github.com/perimeterlabs/tenantgrid/internal/infra/adapters/http/handler"
)

// NewServer builds the API handler from the domain-specific handlers and
// wraps it with OpenTelemetry HTTP instrumentation.
func NewServer(
	provisioning *handler.ProvisioningHandler,
	insights *handler.InsightsHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/tenants", provisioning.ProvisionTenant)
	mux.HandleFunc("DELETE /v1/tenants/{tenantID}", provisioning.DeprovisionTenant)
	mux.HandleFunc("GET /v1/tenants/{tenantID}/lifecycle", provisioning.ListTenantLifecycle)
	mux.HandleFunc("GET /v1/lifecycle/{id}", provisioning.GetLifecycleRecord)

	mux.HandleFunc("GET /v1/tenants/{tenantID}/metrics", insights.MonitorTenant)
	mux.HandleFunc("POST /v1/tenants/{tenantID}/recommendations", insights.OptimizeTenant)

	return otelhttp.NewHandler(mux, "tenantgrid-api")
}
