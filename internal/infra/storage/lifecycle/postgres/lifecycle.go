// Package postgres provides the PostgreSQL implementation of the lifecycle
// repository. Orchestration workflows return lifecycle records to the caller;
// this store is where the surrounding service keeps them.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/perimeterlabs/tenantgrid/internal/domain/lifecycle"
	"github.com/perimeterlabs/tenantgrid/internal/domain/resource"
	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
	"github.com/perimeterlabs/tenantgrid/internal/infra/storage"
)

var _ lifecycle.Repository = (*lifecycleStore)(nil)

// lifecycleStore implements lifecycle.Repository using Postgres.
type lifecycleStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// defaultDBAttributes defines standard OpenTelemetry attributes for database operations.
var defaultDBAttributes = []attribute.KeyValue{attribute.String("db.system", "postgresql")}

// NewLifecycleStore creates a lifecycle.Repository backed by PostgreSQL.
func NewLifecycleStore(pool *pgxpool.Pool, tracer trace.Tracer) lifecycle.Repository {
	return &lifecycleStore{pool: pool, tracer: tracer}
}

// resourceRow is the persisted shape of a provisioned resource. The
// category-specific config is kept as raw JSON and comes back as a
// resource.StoredConfig on load, so the audit trail round-trips.
type resourceRow struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	Region        string          `json:"region"`
	Status        string          `json:"status"`
	Config        json.RawMessage `json:"config,omitempty"`
	ProvisionedAt time.Time       `json:"provisioned_at"`
}

type deletionRow struct {
	ResourceID string    `json:"resource_id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// Save persists a lifecycle record and returns its assigned ID.
func (s *lifecycleStore) Save(ctx context.Context, record *lifecycle.Record) (int64, error) {
	dbAttrs := append(defaultDBAttributes,
		attribute.String("tenant.id", record.TenantID),
		attribute.String("lifecycle.operation", string(record.Operation)),
		attribute.String("lifecycle.status", string(record.Status)),
	)

	var id int64
	err := storage.ExecuteAndTrace(ctx, s.tracer, "lifecycleStore.Save", dbAttrs, func(ctx context.Context) error {
		resources, err := marshalResources(record.Resources)
		if err != nil {
			return fmt.Errorf("marshaling resources: %w", err)
		}

		deprovisioned, err := marshalDeletions(record.Deprovisioned)
		if err != nil {
			return fmt.Errorf("marshaling deletion markers: %w", err)
		}

		var completedAt pgtype.Timestamptz
		if record.CompletedAt != nil {
			completedAt.Time = *record.CompletedAt
			completedAt.Valid = true
		}

		var errorMessage pgtype.Text
		if record.ErrorMessage != nil {
			errorMessage.String = *record.ErrorMessage
			errorMessage.Valid = true
		}

		const q = `
			INSERT INTO tenant_lifecycle
				(tenant_id, provider, operation, status, started_at, completed_at, error_message, resources, deprovisioned)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`

		return s.pool.QueryRow(ctx, q,
			record.TenantID,
			string(record.Provider),
			string(record.Operation),
			string(record.Status),
			record.StartedAt,
			completedAt,
			errorMessage,
			resources,
			deprovisioned,
		).Scan(&id)
	})

	return id, err
}

// FindByID retrieves a lifecycle record by its identifier.
// Returns lifecycle.ErrRecordNotFound if no record exists with the given ID.
func (s *lifecycleStore) FindByID(ctx context.Context, id int64) (*lifecycle.Record, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int64("lifecycle.id", id))

	var record *lifecycle.Record
	err := storage.ExecuteAndTrace(ctx, s.tracer, "lifecycleStore.FindByID", dbAttrs, func(ctx context.Context) error {
		const q = `
			SELECT id, tenant_id, provider, operation, status, started_at, completed_at, error_message, resources, deprovisioned
			FROM tenant_lifecycle
			WHERE id = $1`

		var scanErr error
		record, scanErr = scanRecord(s.pool.QueryRow(ctx, q, id))
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return lifecycle.ErrRecordNotFound
		}
		return scanErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindByTenantID retrieves all lifecycle records for a tenant, newest first.
func (s *lifecycleStore) FindByTenantID(ctx context.Context, tenantID string) ([]*lifecycle.Record, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("tenant.id", tenantID))

	var records []*lifecycle.Record
	err := storage.ExecuteAndTrace(ctx, s.tracer, "lifecycleStore.FindByTenantID", dbAttrs, func(ctx context.Context) error {
		const q = `
			SELECT id, tenant_id, provider, operation, status, started_at, completed_at, error_message, resources, deprovisioned
			FROM tenant_lifecycle
			WHERE tenant_id = $1
			ORDER BY started_at DESC, id DESC`

		rows, err := s.pool.Query(ctx, q, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanRecord(rows)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*lifecycle.Record, error) {
	var (
		record        lifecycle.Record
		providerStr   string
		operationStr  string
		statusStr     string
		completedAt   pgtype.Timestamptz
		errorMessage  pgtype.Text
		resources     []byte
		deprovisioned []byte
	)

	err := row.Scan(
		&record.ID,
		&record.TenantID,
		&providerStr,
		&operationStr,
		&statusStr,
		&record.StartedAt,
		&completedAt,
		&errorMessage,
		&resources,
		&deprovisioned,
	)
	if err != nil {
		return nil, err
	}

	record.Provider = tenant.CloudProvider(providerStr)
	record.Operation = lifecycle.Operation(operationStr)
	record.Status = lifecycle.Status(statusStr)

	if completedAt.Valid {
		t := completedAt.Time
		record.CompletedAt = &t
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		record.ErrorMessage = &msg
	}

	if record.Resources, err = unmarshalResources(resources, record.TenantID, record.Provider); err != nil {
		return nil, fmt.Errorf("unmarshaling resources: %w", err)
	}
	if record.Deprovisioned, err = unmarshalDeletions(deprovisioned, record.TenantID); err != nil {
		return nil, fmt.Errorf("unmarshaling deletion markers: %w", err)
	}

	return &record, nil
}

func marshalResources(records []resource.Record) ([]byte, error) {
	rows := make([]resourceRow, 0, len(records))
	for _, r := range records {
		cfg, err := json.Marshal(r.Config)
		if err != nil {
			return nil, err
		}
		rows = append(rows, resourceRow{
			ID:            r.ID,
			Type:          string(r.Type),
			Name:          r.Name,
			Region:        r.Region,
			Status:        string(r.Status),
			Config:        cfg,
			ProvisionedAt: r.ProvisionedAt,
		})
	}
	return json.Marshal(rows)
}

func unmarshalResources(data []byte, tenantID string, p tenant.CloudProvider) ([]resource.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []resourceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]resource.Record, 0, len(rows))
	for _, row := range rows {
		var cfg resource.Config
		if len(row.Config) > 0 && string(row.Config) != "null" {
			cfg = resource.StoredConfig{Type: resource.Type(row.Type), Raw: row.Config}
		}
		records = append(records, resource.Record{
			ID:            row.ID,
			Type:          resource.Type(row.Type),
			Name:          row.Name,
			TenantID:      tenantID,
			Provider:      p,
			Region:        row.Region,
			Status:        resource.Status(row.Status),
			Config:        cfg,
			ProvisionedAt: row.ProvisionedAt,
		})
	}
	return records, nil
}

func marshalDeletions(deletions []resource.Deletion) ([]byte, error) {
	rows := make([]deletionRow, 0, len(deletions))
	for _, d := range deletions {
		rows = append(rows, deletionRow{
			ResourceID: d.ResourceID,
			Type:       string(d.Type),
			Status:     string(d.Status),
			DeletedAt:  d.DeletedAt,
		})
	}
	return json.Marshal(rows)
}

func unmarshalDeletions(data []byte, tenantID string) ([]resource.Deletion, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []deletionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	deletions := make([]resource.Deletion, 0, len(rows))
	for _, row := range rows {
		deletions = append(deletions, resource.Deletion{
			ResourceID: row.ResourceID,
			Type:       resource.Type(row.Type),
			TenantID:   tenantID,
			Status:     resource.Status(row.Status),
			DeletedAt:  row.DeletedAt,
		})
	}
	return deletions, nil
}
