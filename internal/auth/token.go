package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bizcard/bizcard/internal/model"
)

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// sessionClaims is the wire form of a session token's payload: the identity
// attributes alongside the registered JWT fields.
type sessionClaims struct {
	model.Claims
	jwt.RegisteredClaims
}

// IssueToken provisions and signs a session token for the given user.
// A zero expiry issues a non-expiring token, matching the behavior of the
// system this server replaces; see config.AuthConfig.TokenExpiry.
func IssueToken(user *model.User, secret string, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Claims: *model.NewClaims(user),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken checks the signature of an encoded session token and returns
// the embedded claims. Failures surface as AuthError with reason "missing"
// or "invalid".
func VerifyToken(raw, secret string) (*model.Claims, error) {
	if raw == "" {
		return nil, &model.AuthError{Reason: model.AuthReasonMissing}
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, &model.AuthError{Reason: model.AuthReasonInvalid}
	}

	return &claims.Claims, nil
}
