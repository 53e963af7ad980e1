package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/authz"
	"github.com/carebase/carebase/internal/cache"
	"github.com/carebase/carebase/internal/tenant"
	"github.com/carebase/carebase/internal/token"
)

// stubTenantRepo serves a fixed set of tenants keyed by subdomain.
type stubTenantRepo struct {
	bySubdomain map[string]*tenant.Tenant
}

func (s *stubTenantRepo) Create(ctx context.Context, t *tenant.Tenant) error { return nil }
func (s *stubTenantRepo) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	for _, t := range s.bySubdomain {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}
func (s *stubTenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	if t, ok := s.bySubdomain[subdomain]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}
func (s *stubTenantRepo) Update(ctx context.Context, t *tenant.Tenant) error { return nil }
func (s *stubTenantRepo) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, int, error) {
	return nil, 0, nil
}

func newTestHandler() (*Handler, *token.Issuer) {
	repo := &stubTenantRepo{bySubdomain: map[string]*tenant.Tenant{
		"h1":     {ID: "tenant-h1", Subdomain: "h1", Status: tenant.StatusActive},
		"h2":     {ID: "tenant-h2", Subdomain: "h2", Status: tenant.StatusActive},
		"frozen": {ID: "tenant-frozen", Subdomain: "frozen", Status: tenant.StatusSuspended},
	}}
	issuer := token.NewIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	h := &Handler{
		resolver:    tenant.NewResolver(repo, cache.NewMemoryCache(), time.Minute),
		tokens:      issuer,
		auditLogger: audit.NewSlogLogger(),
	}
	return h, issuer
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusOK, "ok")
	})
}

func TestResolveTenant(t *testing.T) {
	h, _ := newTestHandler()

	t.Run("resolves from host subdomain", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://h1.carebase.io/api/v1/patients", nil)
		w := httptest.NewRecorder()

		var seenTenant string
		h.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenTenant = GetTenantID(r.Context())
		})).ServeHTTP(w, req)

		assert.Equal(t, "tenant-h1", seenTenant)
	})

	t.Run("header overrides host", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://h1.carebase.io/api/v1/patients", nil)
		req.Header.Set(tenantHeader, "h2")
		w := httptest.NewRecorder()

		var seenTenant string
		h.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenTenant = GetTenantID(r.Context())
		})).ServeHTTP(w, req)

		assert.Equal(t, "tenant-h2", seenTenant)
	})

	t.Run("unknown subdomain is 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://ghost.carebase.io/api/v1/patients", nil)
		w := httptest.NewRecorder()

		h.ResolveTenant(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("suspended tenant is 403", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://frozen.carebase.io/api/v1/patients", nil)
		w := httptest.NewRecorder()

		h.ResolveTenant(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAuthenticate(t *testing.T) {
	h, issuer := newTestHandler()

	withTenant := func(req *http.Request, tenantID string) *http.Request {
		return req.WithContext(context.WithValue(req.Context(), tenantIDKey, tenantID))
	}

	t.Run("missing token is 401", func(t *testing.T) {
		req := withTenant(httptest.NewRequest("GET", "/api/v1/patients", nil), "tenant-h1")
		w := httptest.NewRecorder()

		h.Authenticate(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is 401", func(t *testing.T) {
		req := withTenant(httptest.NewRequest("GET", "/api/v1/patients", nil), "tenant-h1")
		req.Header.Set("Authorization", "Bearer not.a.token")
		w := httptest.NewRecorder()

		h.Authenticate(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("cross-tenant token is 403", func(t *testing.T) {
		// Minted for h1, presented against h2.
		access, err := issuer.IssueAccess("user-1", "tenant-h1", authz.RoleDoctor)
		require.NoError(t, err)

		req := withTenant(httptest.NewRequest("GET", "/api/v1/patients", nil), "tenant-h2")
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()

		h.Authenticate(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("matching token binds user and role", func(t *testing.T) {
		access, err := issuer.IssueAccess("user-1", "tenant-h1", authz.RoleDoctor)
		require.NoError(t, err)

		req := withTenant(httptest.NewRequest("GET", "/api/v1/patients", nil), "tenant-h1")
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()

		var gotUser string
		var gotRole authz.Role
		h.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser = GetUserID(r.Context())
			gotRole = GetRole(r.Context())
		})).ServeHTTP(w, req)

		assert.Equal(t, "user-1", gotUser)
		assert.Equal(t, authz.RoleDoctor, gotRole)
	})

	t.Run("super admin token rejected on tenant route", func(t *testing.T) {
		access, err := issuer.IssueAccess("root-1", "", authz.RoleSuperAdmin)
		require.NoError(t, err)

		req := withTenant(httptest.NewRequest("GET", "/api/v1/patients", nil), "tenant-h1")
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()

		h.Authenticate(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	h, _ := newTestHandler()

	t.Run("denied before handler runs", func(t *testing.T) {
		handlerRan := false
		gate := h.RequirePermission(authz.PermPrescriptionWrite)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerRan = true
		}))

		req := httptest.NewRequest("POST", "/api/v1/prescriptions", nil)
		req = req.WithContext(context.WithValue(req.Context(), roleKey, authz.RoleNurse))
		w := httptest.NewRecorder()

		gate.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, handlerRan)
	})

	t.Run("allowed role passes through", func(t *testing.T) {
		gate := h.RequirePermission(authz.PermPrescriptionWrite)(okHandler())

		req := httptest.NewRequest("POST", "/api/v1/prescriptions", nil)
		req = req.WithContext(context.WithValue(req.Context(), roleKey, authz.RoleDoctor))
		w := httptest.NewRecorder()

		gate.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthenticatePlatform(t *testing.T) {
	h, issuer := newTestHandler()

	t.Run("tenant token rejected", func(t *testing.T) {
		access, err := issuer.IssueAccess("user-1", "tenant-h1", authz.RoleOwner)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/platform/tenants", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()

		h.AuthenticatePlatform(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("super admin admitted", func(t *testing.T) {
		access, err := issuer.IssueAccess("root-1", "", authz.RoleSuperAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/platform/tenants", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()

		h.AuthenticatePlatform(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
