package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/perimeterlabs/tenantgrid/internal/application/insights"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
	"github.com/perimeterlabs/tenantgrid/pkg/common/logger"
)

// InsightsHandler exposes tenant monitoring and optimization endpoints.
type InsightsHandler struct {
	engine *insights.Engine
	log    *logger.Logger
}

// NewInsightsHandler creates a handler backed by the insights engine.
func NewInsightsHandler(engine *insights.Engine, log *logger.Logger) *InsightsHandler {
	return &InsightsHandler{engine: engine, log: log}
}

type providerMetricsView struct {
	Provider          string  `json:"provider"`
	CPUUtilization    float64 `json:"cpu_utilization"`
	MemoryUtilization float64 `json:"memory_utilization"`
	StorageUsedGB     float64 `json:"storage_used_gb"`
	NetworkEgressGB   float64 `json:"network_egress_gb"`
	MonthlyCostUSD    float64 `json:"monthly_cost_usd"`
}

type optimizeRequest struct {
	Goals struct {
		Cost        bool `json:"cost"`
		Performance bool `json:"performance"`
		Security    bool `json:"security"`
	} `json:"goals"`
}

type recommendationView struct {
	Category                  string  `json:"category"`
	Provider                  string  `json:"provider"`
	Priority                  string  `json:"priority"`
	Description               string  `json:"description"`
	EstimatedMonthlySavingUSD float64 `json:"estimated_monthly_saving_usd,omitempty"`
}

// MonitorTenant handles GET /v1/tenants/{tenantID}/metrics. It returns
// current utilization metrics for every enabled provider.
func (h *InsightsHandler) MonitorTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := r.PathValue("tenantID")

	metrics, err := h.engine.Monitor(ctx, tenantID)
	if err != nil {
		var validationErr tenant.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
			return
		}
		h.log.Error(ctx, "tenant monitoring failed", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		return
	}

	views := make([]providerMetricsView, 0, len(metrics))
	for _, m := range metrics {
		views = append(views, providerMetricsView{
			Provider:          string(m.Provider),
			CPUUtilization:    m.CPUUtilization,
			MemoryUtilization: m.MemoryUtilization,
			StorageUsedGB:     m.StorageUsedGB,
			NetworkEgressGB:   m.NetworkEgressGB,
			MonthlyCostUSD:    m.MonthlyCostUSD,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenant_id": tenantID, "providers": views})
}

// OptimizeTenant handles POST /v1/tenants/{tenantID}/recommendations.
// An empty body or all-false goals enables every evaluator.
func (h *InsightsHandler) OptimizeTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := r.PathValue("tenantID")

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}

	goals := insights.Goals{
		Cost:        req.Goals.Cost,
		Performance: req.Goals.Performance,
		Security:    req.Goals.Security,
	}
	if !goals.Cost && !goals.Performance && !goals.Security {
		goals = insights.Goals{Cost: true, Performance: true, Security: true}
	}

	recs, err := h.engine.Optimize(ctx, tenantID, goals)
	if err != nil {
		var validationErr tenant.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
			return
		}
		h.log.Error(ctx, "tenant optimization failed", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		return
	}

	views := make([]recommendationView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, recommendationView{
			Category:                  rec.Category,
			Provider:                  string(rec.Provider),
			Priority:                  rec.Priority.String(),
			Description:               rec.Description,
			EstimatedMonthlySavingUSD: rec.EstimatedMonthlySavingUSD,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenant_id": tenantID, "recommendations": views})
}
