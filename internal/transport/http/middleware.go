package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/authz"
	"github.com/carebase/carebase/internal/observability/logger"
	"github.com/carebase/carebase/internal/tenant"
	"github.com/carebase/carebase/internal/token"
)

// tenantHeader lets clients without a wildcard DNS setup name their
// tenant explicitly. When present it takes precedence over the host.
const tenantHeader = "X-Tenant-Subdomain"

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// RecoverMiddleware converts panics into a JSON 500 response.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic recovered",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Path(r.URL.Path),
					slog.Any("panic", rec),
				)
				respondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ResolveTenant maps the request to a tenant before anything else
// touches it. Resolution order is the X-Tenant-Subdomain header, then
// the host's subdomain label. Unknown tenants read as 404; suspended
// or cancelled ones as 403.
func (h *Handler) ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subdomain := strings.ToLower(strings.TrimSpace(r.Header.Get(tenantHeader)))
		if subdomain == "" {
			subdomain = tenant.SubdomainFromHost(r.Host)
		}

		t, err := h.resolver.Resolve(r.Context(), subdomain)
		if err != nil {
			respondError(w, http.StatusNotFound, "tenant not found")
			return
		}

		if !t.CanServe() {
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:     audit.TypeTenantSuspended,
				TenantID: t.ID,
				Resource: "request",
				Metadata: map[string]any{"subdomain": subdomain, "status": string(t.Status)},
			})
			respondError(w, http.StatusForbidden, "tenant is not active")
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDKey, t.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticate validates the bearer token and binds the user to the
// request. The token's tenant claim must match the resolved tenant;
// a token minted for another tenant is rejected even if it is
// otherwise valid.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.bearerClaims(w, r)
		if !ok {
			return
		}

		resolvedTenant := GetTenantID(r.Context())
		if claims.TenantID != resolvedTenant {
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:     audit.TypeTenantMismatch,
				TenantID: resolvedTenant,
				ActorID:  claims.Subject,
				Resource: "request",
				Metadata: map[string]any{"token_tenant": claims.TenantID},
			})
			respondError(w, http.StatusForbidden, "token does not belong to this tenant")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, roleKey, authz.Role(claims.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthenticatePlatform admits only super admin tokens. Platform
// routes carry no tenant context.
func (h *Handler) AuthenticatePlatform(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.bearerClaims(w, r)
		if !ok {
			return
		}

		if authz.Role(claims.Role) != authz.RoleSuperAdmin || claims.TenantID != "" {
			respondError(w, http.StatusForbidden, "platform access required")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, roleKey, authz.RoleSuperAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) bearerClaims(w http.ResponseWriter, r *http.Request) (*token.AccessClaims, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	claims, err := h.tokens.VerifyAccess(raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			respondError(w, http.StatusUnauthorized, "token expired")
		} else {
			respondError(w, http.StatusUnauthorized, "invalid token")
		}
		return nil, false
	}
	return claims, true
}

// RequirePermission gates a route on the caller's role. The check
// runs before the handler, so a denied request has no side effects.
func (h *Handler) RequirePermission(perm authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			if !authz.Can(role, perm) {
				h.auditLogger.Log(r.Context(), audit.Event{
					Type:     audit.TypePermissionDenied,
					TenantID: GetTenantID(r.Context()),
					ActorID:  GetUserID(r.Context()),
					Resource: string(perm),
					Metadata: map[string]any{"role": string(role)},
				})
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
