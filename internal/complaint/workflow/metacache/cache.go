// Package metacache caches per-tenant business-service metadata so the
// workflow coordinator resolves it once per tenant instead of on every
// transition. The cache is an explicit, injectable key-value store with
// read-through population done by the coordinator.
package metacache

import (
	"context"

	"grievance/internal/complaint/ports"
)

// Cache stores business-service metadata keyed by tenant and process name.
// Get returns sentinel.ErrNotFound when the key is absent. A first-population
// race is benign since all writers compute the same value.
type Cache interface {
	Get(ctx context.Context, key string) (*ports.BusinessServiceMeta, error)
	Set(ctx context.Context, key string, meta *ports.BusinessServiceMeta) error
}

// Key builds the canonical cache key for a tenant's business service.
func Key(tenantID, businessService string) string {
	return tenantID + "/" + businessService
}
