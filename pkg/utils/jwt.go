package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a token does not parse as a JWT
var ErrNotJWT = errors.New("token is not a JWT")

// AccessClaims represents the claims the API puts in its access tokens
type AccessClaims struct {
	UserID    any    `json:"user_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// ParseAccessClaims decodes the claims of an access token without verifying
// its signature. The API owns the signing key; the client only needs the
// expiry to decide when to refresh.
func ParseAccessClaims(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	return claims, nil
}

// TokenExpiry returns the exp claim of a token. Opaque tokens and tokens
// without an exp claim report the zero time, meaning "never expires".
func TokenExpiry(tokenString string) time.Time {
	claims, err := ParseAccessClaims(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// IsExpired reports whether the token expires within leeway of now
func IsExpired(tokenString string, now time.Time, leeway time.Duration) bool {
	exp := TokenExpiry(tokenString)
	if exp.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(exp)
}
