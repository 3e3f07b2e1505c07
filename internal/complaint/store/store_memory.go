package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"grievance/internal/complaint/models"
	"grievance/pkg/platform/sentinel"
)

// MemoryStore is an in-memory complaint store with the same filtering
// semantics as the SQL path. Unit tests and local development run against it.
type MemoryStore struct {
	mu             sync.RWMutex
	complaints     []*models.Complaint
	defaultLimit   int
	resolvedStatus string
}

// NewMemory constructs an empty in-memory store.
func NewMemory(defaultLimit int, resolvedStatus string) *MemoryStore {
	return &MemoryStore{defaultLimit: defaultLimit, resolvedStatus: resolvedStatus}
}

// Put inserts or replaces a complaint. The event-sink consumer equivalent for
// the in-memory deployment, also used to seed tests.
func (s *MemoryStore) Put(complaint *models.Complaint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.complaints {
		if existing.ID == complaint.ID {
			s.complaints[i] = complaint
			return
		}
	}
	s.complaints = append(s.complaints, complaint)
}

func (s *MemoryStore) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Envelope, error) {
	matched := s.match(criteria)

	// Mirror the SQL ordering: created_time descending, insertion order for ties.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].AuditDetails.CreatedTime > matched[j].AuditDetails.CreatedTime
	})

	limit := criteria.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	offset := criteria.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	envelopes := make([]*models.Envelope, 0, len(matched))
	for _, c := range matched {
		copied := *c
		envelopes = append(envelopes, &models.Envelope{Complaint: &copied})
	}
	return envelopes, nil
}

func (s *MemoryStore) Count(ctx context.Context, criteria models.SearchCriteria) (int, error) {
	return len(s.match(criteria)), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, tenantID, id string) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.complaints {
		if c.TenantID == tenantID && c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) ExistsByID(ctx context.Context, tenantID, id string) (bool, error) {
	_, err := s.FindByID(ctx, tenantID, id)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) DynamicData(ctx context.Context, tenantID string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats Stats
	var totalResolution int64
	for _, c := range s.complaints {
		if c.TenantID == tenantID && c.ApplicationStatus == s.resolvedStatus {
			stats.ComplaintsResolved++
			totalResolution += c.AuditDetails.LastModifiedTime - c.AuditDetails.CreatedTime
		}
	}
	if stats.ComplaintsResolved > 0 {
		stats.AverageResolutionTimeMillis = totalResolution / stats.ComplaintsResolved
	}
	return stats, nil
}

func (s *MemoryStore) match(criteria models.SearchCriteria) []*models.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Complaint
	for _, c := range s.complaints {
		if models.IsStateLevel(criteria.TenantID) {
			if !strings.HasPrefix(c.TenantID, criteria.TenantID) {
				continue
			}
		} else if c.TenantID != criteria.TenantID {
			continue
		}
		if criteria.ServiceCode != "" && c.ServiceCode != criteria.ServiceCode {
			continue
		}
		if criteria.ServiceRequestID != "" && c.ServiceRequestID != criteria.ServiceRequestID {
			continue
		}
		if criteria.ApplicationStatus != "" && c.ApplicationStatus != criteria.ApplicationStatus {
			continue
		}
		if len(criteria.UserIDs) > 0 && !contains(criteria.UserIDs, c.AccountID) {
			continue
		}
		if len(criteria.IDs) > 0 && !contains(criteria.IDs, c.ID) {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
