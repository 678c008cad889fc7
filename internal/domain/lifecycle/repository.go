package lifecycle

import "context"

// Repository defines the persistence boundary for lifecycle records. The
// orchestrator never calls it; records are persisted by the caller once a
// workflow returns.
type Repository interface {
	// Save persists a terminal lifecycle record and returns its assigned ID.
	Save(ctx context.Context, record *Record) (int64, error)

	// FindByID retrieves one record by its identifier.
	// Returns ErrRecordNotFound when no such record exists.
	FindByID(ctx context.Context, id int64) (*Record, error)

	// FindByTenantID retrieves all records for a tenant, newest first.
	FindByTenantID(ctx context.Context, tenantID string) ([]*Record, error)
}
