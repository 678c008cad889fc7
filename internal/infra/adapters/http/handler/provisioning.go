package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/perimeterlabs/tenantgrid/internal/application/orchestrator"
	"github.com/perimeterlabs/tenantgrid/internal/domain/lifecycle"
	"github.com/perimeterlabs/tenantgrid/internal/domain/provider"
	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
	"github.com/perimeterlabs/tenantgrid/pkg/common/logger"
)

// ProvisioningHandler implements the tenant provisioning endpoints. Workflow
// results are handed back by the orchestrator; this handler persists them
// through the lifecycle repository before responding.
type ProvisioningHandler struct {
	svc      *orchestrator.Service
	repo     lifecycle.Repository
	validate *validator.Validate
	log      *logger.Logger
}

// NewProvisioningHandler creates a handler backed by the given orchestrator
// service and lifecycle repository.
func NewProvisioningHandler(svc *orchestrator.Service, repo lifecycle.Repository, log *logger.Logger) *ProvisioningHandler {
	return &ProvisioningHandler{
		svc:      svc,
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

type provisionRequest struct {
	TenantID   string   `json:"tenant_id" validate:"required"`
	Name       string   `json:"name"`
	Provider   string   `json:"provider" validate:"required"`
	Region     string   `json:"region" validate:"required"`
	Isolation  string   `json:"isolation_model"`
	Tier       string   `json:"service_tier"`
	Compliance []string `json:"compliance_requirements"`

	Requirements struct {
		Compute  bool `json:"compute"`
		Storage  bool `json:"storage"`
		Database bool `json:"database"`
	} `json:"resource_requirements"`
}

type resourceView struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	Region        string          `json:"region"`
	Status        string          `json:"status"`
	Config        resource.Config `json:"config,omitempty"`
	ProvisionedAt time.Time       `json:"provisioned_at"`
}

type deletionView struct {
	ResourceID string    `json:"resource_id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	DeletedAt  time.Time `json:"deleted_at"`
}

type lifecycleView struct {
	ID            int64          `json:"id"`
	TenantID      string         `json:"tenant_id"`
	Provider      string         `json:"provider"`
	Operation     string         `json:"operation"`
	Status        string         `json:"status"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Resources     []resourceView `json:"resources,omitempty"`
	Deprovisioned []deletionView `json:"deprovisioned,omitempty"`
	ErrorMessage  *string        `json:"error_message,omitempty"`
}

// ProvisionTenant handles POST /v1/tenants.
func (h *ProvisioningHandler) ProvisionTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "invalid_request",
				Message: "Missing or invalid fields",
				Details: details,
			})
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	p, err := tenant.ParseProvider(req.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_provider", "Provider must be one of azure, aws, gcp")
		return
	}

	record, provErr := h.svc.ProvisionTenant(ctx, tenant.ProvisioningRequest{
		TenantID:   req.TenantID,
		Name:       req.Name,
		Provider:   p,
		Region:     req.Region,
		Isolation:  tenant.IsolationModel(req.Isolation),
		Tier:       tenant.ServiceTier(req.Tier),
		Compliance: req.Compliance,
		Requirements: tenant.ResourceRequirements{
			Compute:  req.Requirements.Compute,
			Storage:  req.Requirements.Storage,
			Database: req.Requirements.Database,
		},
	})

	h.respondWithRecord(w, r, record, provErr, http.StatusCreated)
}

// DeprovisionTenant handles DELETE /v1/tenants/{tenantID}. The provider is
// selected via the required "provider" query parameter.
func (h *ProvisioningHandler) DeprovisionTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := r.PathValue("tenantID")

	p, err := tenant.ParseProvider(r.URL.Query().Get("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_provider", "Provider must be one of azure, aws, gcp")
		return
	}

	record, depErr := h.svc.DeprovisionTenant(ctx, tenantID, p)
	h.respondWithRecord(w, r, record, depErr, http.StatusOK)
}

// GetLifecycleRecord handles GET /v1/lifecycle/{id}.
func (h *ProvisioningHandler) GetLifecycleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Lifecycle record ID must be an integer")
		return
	}

	record, err := h.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, lifecycle.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "No lifecycle record with this ID")
			return
		}
		h.log.Error(ctx, "lifecycle record lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, toLifecycleView(record))
}

// ListTenantLifecycle handles GET /v1/tenants/{tenantID}/lifecycle.
func (h *ProvisioningHandler) ListTenantLifecycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := r.PathValue("tenantID")

	records, err := h.repo.FindByTenantID(ctx, tenantID)
	if err != nil {
		h.log.Error(ctx, "lifecycle history lookup failed", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		return
	}

	views := make([]lifecycleView, 0, len(records))
	for _, record := range records {
		views = append(views, toLifecycleView(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": views})
}

// respondWithRecord persists the lifecycle record returned by the
// orchestrator, then maps the operation outcome to an HTTP response. Failed
// workflows are persisted too so the audit trail covers them.
func (h *ProvisioningHandler) respondWithRecord(
	w http.ResponseWriter,
	r *http.Request,
	record *lifecycle.Record,
	opErr error,
	successStatus int,
) {
	ctx := r.Context()

	if record != nil {
		id, saveErr := h.repo.Save(ctx, record)
		if saveErr != nil {
			h.log.Error(ctx, "persisting lifecycle record failed",
				"tenant_id", record.TenantID, "error", saveErr)
		} else {
			record.ID = id
		}
	}

	if opErr != nil {
		var validationErr tenant.ValidationError
		var notConfigured provider.NotConfiguredError

		switch {
		case errors.As(opErr, &validationErr):
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "validation_error",
				Message: validationErr.Message,
				Details: map[string]any{"field": validationErr.Field},
			})
		case errors.As(opErr, &notConfigured):
			writeError(w, http.StatusConflict, "provider_not_configured",
				"The requested cloud provider is not enabled for this deployment")
		default:
			body := errorResponse{
				Error:   "operation_failed",
				Message: opErr.Error(),
			}
			if record != nil {
				body.Details = map[string]any{"record": toLifecycleView(record)}
			}
			writeJSON(w, http.StatusBadGateway, body)
		}
		return
	}

	writeJSON(w, successStatus, toLifecycleView(record))
}

func toLifecycleView(record *lifecycle.Record) lifecycleView {
	view := lifecycleView{
		ID:           record.ID,
		TenantID:     record.TenantID,
		Provider:     string(record.Provider),
		Operation:    string(record.Operation),
		Status:       string(record.Status),
		StartedAt:    record.StartedAt,
		CompletedAt:  record.CompletedAt,
		ErrorMessage: record.ErrorMessage,
	}

	for _, res := range record.Resources {
		view.Resources = append(view.Resources, toResourceView(res))
	}
	for _, del := range record.Deprovisioned {
		view.Deprovisioned = append(view.Deprovisioned, deletionView{
			ResourceID: del.ResourceID,
			Type:       string(del.Type),
			Status:     string(del.Status),
			DeletedAt:  del.DeletedAt,
		})
	}

	return view
}

func toResourceView(res resource.Record) resourceView {
	return resourceView{
		ID:            res.ID,
		Type:          string(res.Type),
		Name:          res.Name,
		Region:        res.Region,
		Status:        string(res.Status),
		Config:        res.Config,
		ProvisionedAt: res.ProvisionedAt,
	}
}
