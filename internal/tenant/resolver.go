package tenant

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"github.com/carebase/carebase/internal/cache"
)

// Resolver maps an inbound request's host or tenant header to a
// Tenant record, with a cache in front of the store.
type Resolver struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewResolver creates a tenant resolver.
func NewResolver(repo Repository, c cache.Cache, ttl time.Duration) *Resolver {
	return &Resolver{repo: repo, cache: c, ttl: ttl}
}

// SubdomainFromHost extracts the tenant subdomain label from a
// request host. "h1.carebase.io:443" yields "h1". Hosts without a
// subdomain label (bare domains, IPs, localhost) yield "".
func SubdomainFromHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return strings.ToLower(labels[0])
}

// Resolve looks up the tenant for a subdomain token. The lookup goes
// through the cache; misses fall back to the store and populate the
// cache. Unknown subdomains return ErrTenantNotFound.
func (r *Resolver) Resolve(ctx context.Context, subdomain string) (*Tenant, error) {
	if subdomain == "" {
		return nil, ErrTenantNotFound
	}
	subdomain = strings.ToLower(subdomain)

	key := "tenant:subdomain:" + subdomain
	if data, err := r.cache.Get(ctx, key); err == nil {
		var t Tenant
		if err := json.Unmarshal(data, &t); err == nil {
			return &t, nil
		}
		// Corrupt entry: drop it and fall through to the store
		_ = r.cache.Delete(ctx, key)
	}

	t, err := r.repo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(t); err == nil {
		_ = r.cache.Set(ctx, key, data, r.ttl)
	}

	return t, nil
}

// Invalidate drops a subdomain from the cache. Called after tenant
// status changes so suspensions take effect promptly.
func (r *Resolver) Invalidate(ctx context.Context, subdomain string) {
	_ = r.cache.Delete(ctx, "tenant:subdomain:"+strings.ToLower(subdomain))
}
