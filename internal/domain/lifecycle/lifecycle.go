// Package lifecycle holds the aggregate result of one provisioning or
// deprovisioning workflow invocation. The orchestrator owns a record while
// the workflow runs; once terminal it is handed off read-only to the caller,
// who is responsible for persisting it.
package lifecycle

import (
	"errors"
	"time"

	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

// ErrRecordNotFound is returned when no lifecycle record exists for a query.
var ErrRecordNotFound = errors.New("lifecycle record not found")

// Operation distinguishes the two workflow directions.
type Operation string

// Predefined operations
const (
	OperationProvision   Operation = "provision"
	OperationDeprovision Operation = "deprovision"
)

// Status represents the state of a workflow invocation.
type Status string

// Predefined statuses
const (
	StatusProvisioning   Status = "provisioning"
	StatusDeprovisioning Status = "deprovisioning"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// Record aggregates the outcome of one workflow invocation.
type Record struct {
	ID            int64
	TenantID      string
	Provider      tenant.CloudProvider
	Operation     Operation
	Status        Status
	StartedAt     time.Time
	CompletedAt   *time.Time
	Resources     []resource.Record
	Deprovisioned []resource.Deletion
	ErrorMessage  *string
}

// NewProvisionRecord starts tracking a provisioning workflow.
func NewProvisionRecord(tenantID string, provider tenant.CloudProvider, now time.Time) *Record {
	return &Record{
		TenantID:  tenantID,
		Provider:  provider,
		Operation: OperationProvision,
		Status:    StatusProvisioning,
		StartedAt: now,
	}
}

// NewDeprovisionRecord starts tracking a deprovisioning workflow.
func NewDeprovisionRecord(tenantID string, provider tenant.CloudProvider, now time.Time) *Record {
	return &Record{
		TenantID:  tenantID,
		Provider:  provider,
		Operation: OperationDeprovision,
		Status:    StatusDeprovisioning,
		StartedAt: now,
	}
}

// AppendResource records one provisioned resource, preserving plan order.
func (r *Record) AppendResource(rec resource.Record) {
	r.Resources = append(r.Resources, rec)
}

// SetDeprovisioned records the deletion markers returned by the adapter.
func (r *Record) SetDeprovisioned(deletions []resource.Deletion) {
	r.Deprovisioned = deletions
}

// Complete marks the workflow as successfully finished.
func (r *Record) Complete(now time.Time) {
	r.Status = StatusCompleted
	r.CompletedAt = &now
}

// Fail marks the workflow as failed with the given reason. Resources already
// appended stay on the record so operators can reconcile manually.
func (r *Record) Fail(reason string, now time.Time) {
	r.Status = StatusFailed
	r.ErrorMessage = &reason
	r.CompletedAt = &now
}

// IsTerminal reports whether the record reached a final state.
func (r *Record) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Duration returns how long the workflow ran, or zero while still running.
func (r *Record) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
