package store

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"grievance/internal/complaint/models"
)

// QueryBuilder turns search criteria into bounded, parameterized SQL. The
// predicate order is fixed (tenant, service code, request id, status,
// mobile-resolved account ids, explicit ids) so generated text is stable and
// testable. Every value is bound, never interpolated.
type QueryBuilder struct {
	defaultLimit  int
	defaultOffset int
}

// NewQueryBuilder returns a builder with the configured pagination defaults,
// applied only when enrichment left limit/offset unset.
func NewQueryBuilder(defaultLimit, defaultOffset int) *QueryBuilder {
	return &QueryBuilder{defaultLimit: defaultLimit, defaultOffset: defaultOffset}
}

const complaintColumns = `id, tenant_id, service_code, service_request_id, description, account_id,
	application_status, source, active,
	address_id, address_locality, address_city, address_district, address_region,
	address_state, address_pincode, address_landmark,
	created_by, created_time, last_modified_by, last_modified_time`

// Build returns the search query and its bound parameters.
func (b *QueryBuilder) Build(criteria models.SearchCriteria) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(complaintColumns)
	sb.WriteString(" FROM complaints")

	args := b.appendFilters(&sb, criteria)

	sb.WriteString(" ORDER BY created_time DESC")

	limit := criteria.Limit
	if limit <= 0 {
		limit = b.defaultLimit
	}
	offset := criteria.Offset
	if offset < 0 {
		offset = b.defaultOffset
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	args = append(args, offset)
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	return sb.String(), args
}

// BuildCount mirrors the filter predicates of Build without ordering or
// pagination, so count and page always agree on the same filtered set.
func (b *QueryBuilder) BuildCount(criteria models.SearchCriteria) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM complaints")
	args := b.appendFilters(&sb, criteria)
	return sb.String(), args
}

func (b *QueryBuilder) appendFilters(sb *strings.Builder, criteria models.SearchCriteria) []any {
	var args []any

	// Tenant always first. A state-level tenant widens to every locality
	// underneath it; the pattern is still a bound parameter.
	if models.IsStateLevel(criteria.TenantID) {
		args = append(args, criteria.TenantID+"%")
		sb.WriteString(" WHERE tenant_id LIKE $" + strconv.Itoa(len(args)))
	} else {
		args = append(args, criteria.TenantID)
		sb.WriteString(" WHERE tenant_id = $" + strconv.Itoa(len(args)))
	}

	if criteria.ServiceCode != "" {
		args = append(args, criteria.ServiceCode)
		sb.WriteString(" AND service_code = $" + strconv.Itoa(len(args)))
	}
	if criteria.ServiceRequestID != "" {
		args = append(args, criteria.ServiceRequestID)
		sb.WriteString(" AND service_request_id = $" + strconv.Itoa(len(args)))
	}
	if criteria.ApplicationStatus != "" {
		args = append(args, criteria.ApplicationStatus)
		sb.WriteString(" AND application_status = $" + strconv.Itoa(len(args)))
	}
	if len(criteria.UserIDs) > 0 {
		args = append(args, pq.Array(criteria.UserIDs))
		sb.WriteString(" AND account_id = ANY($" + strconv.Itoa(len(args)) + ")")
	}
	if len(criteria.IDs) > 0 {
		args = append(args, pq.Array(criteria.IDs))
		sb.WriteString(" AND id = ANY($" + strconv.Itoa(len(args)) + ")")
	}

	return args
}
