package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/bizcard/bizcard/internal/httputil"
	"github.com/bizcard/bizcard/internal/model"
)

type claimsKey string

// ClaimsContextKey locates the verified session claims on a request context.
var ClaimsContextKey claimsKey = "claims"

// NewMiddleware creates a middleware factory for token verification.
func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: secret}
}

// Middleware provides the authorization gate consumed by resource handlers
// that require identity.
type Middleware struct {
	secret string
}

// Authenticated protects endpoints based off a user's session token.
// On success the verified claims are attached to the request context;
// on failure the request short-circuits with 401.
func (m *Middleware) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.verifyRequest(r)
		if err != nil {
			log.Printf("Error verifying session token: %v\n", err)
			httputil.WriteError(w, err)
			return
		}

		// Attach claims to context
		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) verifyRequest(r *http.Request) (*model.Claims, error) {
	raw, err := TokenFromRequest(r)
	if err != nil {
		reason := model.AuthReasonInvalid
		if err == ErrEmptyHeader {
			reason = model.AuthReasonMissing
		}
		return nil, &model.AuthError{Reason: reason}
	}
	return VerifyToken(raw, m.secret)
}

// ClaimsFromContext retrieves the verified session claims attached by
// Authenticated.
func ClaimsFromContext(ctx context.Context) (*model.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*model.Claims)
	return claims, ok
}
