package metacache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievance/internal/complaint/ports"
	"grievance/pkg/platform/sentinel"
)

func TestMemoryMissReturnsNotFound(t *testing.T) {
	cache := NewMemory()

	_, err := cache.Get(context.Background(), Key("pb", "GRV"))

	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryRoundTrip(t *testing.T) {
	cache := NewMemory()
	meta := &ports.BusinessServiceMeta{TenantID: "pb", BusinessService: "GRV", SLAMillis: 432000000}

	require.NoError(t, cache.Set(context.Background(), Key("pb", "GRV"), meta))

	got, err := cache.Get(context.Background(), Key("pb", "GRV"))
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	cache := NewMemory()
	meta := &ports.BusinessServiceMeta{TenantID: "pb", BusinessService: "GRV"}
	require.NoError(t, cache.Set(context.Background(), Key("pb", "GRV"), meta))

	first, err := cache.Get(context.Background(), Key("pb", "GRV"))
	require.NoError(t, err)
	first.BusinessService = "MUTATED"

	second, err := cache.Get(context.Background(), Key("pb", "GRV"))
	require.NoError(t, err)
	assert.Equal(t, "GRV", second.BusinessService)
}

func TestKeyShape(t *testing.T) {
	assert.Equal(t, "pb.amritsar/GRV", Key("pb.amritsar", "GRV"))
}
