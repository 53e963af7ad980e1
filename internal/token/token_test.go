package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/authz"
)

func newTestIssuer() *Issuer {
	return NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	tok, err := issuer.IssueAccess("user-1", "tenant-1", authz.RoleDoctor)
	require.NoError(t, err)

	claims, err := issuer.VerifyAccess(tok)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, string(authz.RoleDoctor), claims.Role)
	assert.Contains(t, claims.Permissions, string(authz.PermPrescriptionWrite))
}

func TestSuperAdminTokenHasNoTenant(t *testing.T) {
	issuer := newTestIssuer()

	tok, err := issuer.IssueAccess("admin-1", "", authz.RoleSuperAdmin)
	require.NoError(t, err)

	claims, err := issuer.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Empty(t, claims.TenantID)
}

func TestExpiredAccessToken(t *testing.T) {
	issuer := NewIssuer("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)

	tok, err := issuer.IssueAccess("user-1", "tenant-1", authz.RoleNurse)
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := newTestIssuer()
	other := NewIssuer("other-secret", "other-refresh", 15*time.Minute, 24*time.Hour)

	tok, err := issuer.IssueAccess("user-1", "tenant-1", authz.RoleNurse)
	require.NoError(t, err)

	_, err = other.VerifyAccess(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	issuer := newTestIssuer()

	refresh, err := issuer.IssueRefresh("user-1", "tenant-1")
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	refresh, err := issuer.IssueRefresh("user-1", "tenant-1")
	require.NoError(t, err)

	claims, err := issuer.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "tenant-1", claims.TenantID)
}

func TestGarbageTokenRejected(t *testing.T) {
	issuer := newTestIssuer()

	_, err := issuer.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
