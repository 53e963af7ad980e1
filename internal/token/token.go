package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carebase/carebase/internal/authz"
)

// Domain errors
var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims are the claims embedded in an access token. TenantID
// is empty only for super admin tokens.
type AccessClaims struct {
	TenantID    string   `json:"tid,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims embedded in a refresh token.
type RefreshClaims struct {
	TenantID string `json:"tid,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies access and refresh tokens. The two token
// kinds are signed with independent secrets so one can never be
// presented as the other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewIssuer creates a token issuer.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess mints an access token for a user. Permissions are
// derived from the role table at issue time.
func (i *Issuer) IssueAccess(userID, tenantID string, role authz.Role) (string, error) {
	now := time.Now()

	perms := make([]string, 0)
	for _, p := range authz.Permissions(role) {
		perms = append(perms, string(p))
	}

	claims := AccessClaims{
		TenantID:    tenantID,
		Role:        string(role),
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
}

// IssueRefresh mints a refresh token for a user.
func (i *Issuer) IssueRefresh(userID, tenantID string) (string, error) {
	now := time.Now()

	claims := RefreshClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
}

// VerifyAccess parses and validates an access token.
func (i *Issuer) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.verify(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if !authz.Role(claims.Role).Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (i *Issuer) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.verify(tokenString, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
