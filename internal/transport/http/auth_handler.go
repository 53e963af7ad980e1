package http

import (
	"errors"
	"net/http"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/authz"
	"github.com/carebase/carebase/internal/identity"
	"github.com/carebase/carebase/internal/token"
)

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *identity.User `json:"user"`
}

// Login authenticates a user within the resolved tenant and issues a
// token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondValidation(w, []FieldError{
			{Field: "email", Message: "email and password are required"},
		})
		return
	}

	tenantID := GetTenantID(r.Context())
	user, err := h.identityService.Authenticate(r.Context(), tenantID, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAccountLocked) {
			respondError(w, http.StatusForbidden, "account temporarily locked")
			return
		}
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.respondTokenPair(w, r, user, tenantID)
}

// PlatformLogin authenticates a super admin. Platform accounts carry
// no tenant and are rejected on tenant routes.
func (h *Handler) PlatformLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), "", req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.Role != authz.RoleSuperAdmin {
		respondError(w, http.StatusForbidden, "platform access required")
		return
	}

	h.respondTokenPair(w, r, user, "")
}

func (h *Handler) respondTokenPair(w http.ResponseWriter, r *http.Request, user *identity.User, tenantID string) {
	access, err := h.tokens.IssueAccess(user.ID, tenantID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	refresh, err := h.tokens.IssueRefresh(user.ID, tenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondData(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	})
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a new token pair. The
// refresh token must belong to the resolved tenant.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	claims, err := h.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			respondError(w, http.StatusUnauthorized, "refresh token expired")
		} else {
			respondError(w, http.StatusUnauthorized, "invalid refresh token")
		}
		return
	}

	tenantID := GetTenantID(r.Context())
	if claims.TenantID != tenantID {
		respondError(w, http.StatusForbidden, "token does not belong to this tenant")
		return
	}

	user, err := h.identityService.GetUser(r.Context(), tenantID, claims.Subject)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:     audit.TypeTokenRefreshed,
		TenantID: tenantID,
		ActorID:  user.ID,
		Resource: "token",
	})

	h.respondTokenPair(w, r, user, tenantID)
}

// Logout records the logout. Tokens are stateless, so expiry does the
// actual invalidation; clients drop their copies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auditLogger.Log(r.Context(), audit.Event{
		Type:     audit.TypeLogout,
		TenantID: GetTenantID(r.Context()),
		ActorID:  GetUserID(r.Context()),
		Resource: "session",
	})
	respondMessage(w, http.StatusOK, "logged out successfully")
}

// GetCurrentUser returns the authenticated user's account
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), GetTenantID(r.Context()), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondData(w, http.StatusOK, user)
}

// ChangePasswordRequest carries password change data
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword updates the authenticated user's password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.identityService.ChangePassword(r.Context(), GetTenantID(r.Context()), GetUserID(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "current password is incorrect")
		case errors.Is(err, identity.ErrWeakPassword):
			respondValidation(w, []FieldError{{Field: "new_password", Message: "password must be at least 8 characters"}})
		default:
			respondError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	respondMessage(w, http.StatusOK, "password changed successfully")
}
