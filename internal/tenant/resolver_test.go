package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/cache"
)

func TestSubdomainFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"h1.carebase.io", "h1"},
		{"h1.carebase.io:8080", "h1"},
		{"Mercy.carebase.io", "mercy"},
		{"carebase.io", ""},
		{"localhost", ""},
		{"localhost:8080", ""},
		{"127.0.0.1:8080", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SubdomainFromHost(tt.host), "host %q", tt.host)
	}
}

func TestResolveCachesLookups(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	resolver := NewResolver(repo, cache.NewMemoryCache(), time.Minute)

	stored := &Tenant{ID: "t1", Subdomain: "mercy", Status: StatusActive}
	repo.On("GetBySubdomain", ctx, "mercy").Return(stored, nil).Once()

	got, err := resolver.Resolve(ctx, "mercy")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	// Second resolve must be served from the cache; the mock allows
	// only a single store hit.
	got, err = resolver.Resolve(ctx, "mercy")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	repo.AssertExpectations(t)
}

func TestResolveUnknownSubdomain(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	resolver := NewResolver(repo, cache.NewMemoryCache(), time.Minute)

	repo.On("GetBySubdomain", ctx, "ghost").Return(nil, ErrTenantNotFound)

	_, err := resolver.Resolve(ctx, "ghost")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveEmptySubdomain(t *testing.T) {
	resolver := NewResolver(new(mockRepo), cache.NewMemoryCache(), time.Minute)

	_, err := resolver.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	resolver := NewResolver(repo, cache.NewMemoryCache(), time.Minute)

	repo.On("GetBySubdomain", ctx, "mercy").Return(&Tenant{ID: "t1", Subdomain: "mercy"}, nil).Twice()

	_, err := resolver.Resolve(ctx, "mercy")
	require.NoError(t, err)

	resolver.Invalidate(ctx, "mercy")

	// After invalidation the store is consulted again.
	_, err = resolver.Resolve(ctx, "mercy")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
