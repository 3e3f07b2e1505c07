package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"grievance/internal/complaint/models"
	"grievance/pkg/platform/sentinel"
)

// Stats is the per-tenant dashboard aggregate.
type Stats struct {
	ComplaintsResolved          int64
	AverageResolutionTimeMillis int64
}

// PostgresStore executes the queries produced by QueryBuilder against the
// complaint table. Mutations never pass through here; they are published to
// the event sink and materialized by the persister downstream.
type PostgresStore struct {
	db             *sql.DB
	builder        *QueryBuilder
	resolvedStatus string
}

// NewPostgres constructs a PostgreSQL-backed complaint store.
func NewPostgres(db *sql.DB, builder *QueryBuilder, resolvedStatus string) *PostgresStore {
	return &PostgresStore{db: db, builder: builder, resolvedStatus: resolvedStatus}
}

// Search runs the criteria-built query and wraps each row in an envelope.
// Workflow state is attached later by the coordinator's bulk resolution.
func (s *PostgresStore) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Envelope, error) {
	query, args := s.builder.Build(criteria)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	var envelopes []*models.Envelope
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, &models.Envelope{Complaint: complaint})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return envelopes, nil
}

// Count returns how many rows the same criteria would match, ignoring
// pagination.
func (s *PostgresStore) Count(ctx context.Context, criteria models.SearchCriteria) (int, error) {
	query, args := s.builder.BuildCount(criteria)
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return count, nil
}

// FindByID fetches one complaint by its internal id with a plain,
// non-paginated lookup. Returns sentinel.ErrNotFound when absent.
func (s *PostgresStore) FindByID(ctx context.Context, tenantID, id string) (*models.Complaint, error) {
	query := "SELECT " + complaintColumns + " FROM complaints WHERE tenant_id = $1 AND id = $2"
	row := s.db.QueryRowContext(ctx, query, tenantID, id)
	complaint, err := scanComplaint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return complaint, nil
}

// ExistsByID reports whether a complaint row exists for the tenant.
func (s *PostgresStore) ExistsByID(ctx context.Context, tenantID, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM complaints WHERE tenant_id = $1 AND id = $2)",
		tenantID, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check complaint exists: %w", err)
	}
	return exists, nil
}

// DynamicData returns the resolved-complaint count and average resolution
// time for a tenant's dashboard.
func (s *PostgresStore) DynamicData(ctx context.Context, tenantID string) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM complaints WHERE tenant_id = $1 AND application_status = $2",
		tenantID, s.resolvedStatus,
	).Scan(&stats.ComplaintsResolved)
	if err != nil {
		return Stats{}, fmt.Errorf("count resolved complaints: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(last_modified_time - created_time), 0)::bigint
		 FROM complaints WHERE tenant_id = $1 AND application_status = $2`,
		tenantID, s.resolvedStatus,
	).Scan(&stats.AverageResolutionTimeMillis)
	if err != nil {
		return Stats{}, fmt.Errorf("average resolution time: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var (
		c       models.Complaint
		addr    models.Address
		desc    sql.NullString
		landmrk sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.TenantID, &c.ServiceCode, &c.ServiceRequestID, &desc, &c.AccountID,
		&c.ApplicationStatus, &c.Source, &c.Active,
		&addr.ID, &addr.Locality, &addr.City, &addr.District, &addr.Region,
		&addr.State, &addr.Pincode, &landmrk,
		&c.AuditDetails.CreatedBy, &c.AuditDetails.CreatedTime,
		&c.AuditDetails.LastModifiedBy, &c.AuditDetails.LastModifiedTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan complaint: %w", err)
	}
	c.Description = desc.String
	addr.Landmark = landmrk.String
	addr.TenantID = c.TenantID
	c.Address = &addr
	return &c, nil
}
