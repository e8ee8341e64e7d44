package auth

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
)

var (
	// ErrEmptyHeader represents an absent credential.
	ErrEmptyHeader = errors.New("empty header")

	// ErrIncorrectHeaderFormat means the formatting of the header was incorrect.
	ErrIncorrectHeaderFormat = errors.New("incorrect header format")

	// ErrInvalidToken means an invalid character was present in the auth token.
	// Only base64 digits are allowed.
	ErrInvalidToken = errors.New("invalid token")
)

var (
	// ValidTokenRegex matches only valid token characters (i.e. base64 characters).
	ValidTokenRegex = regexp.MustCompile(`^[a-zA-Z0-9-._~+/]+=*$`)
)

const (
	// LegacyTokenHeader is the custom header the original clients send
	// tokens on. Supported alongside the standard Authorization header.
	LegacyTokenHeader = "x-auth-token"

	bearerPrefix = "Bearer"
)

// TokenFromRequest extracts the session token from the request, checking
// the Authorization header first and the legacy x-auth-token header second.
func TokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return ParseBearerAuthorizationHeader(authHeader)
	}
	if token := r.Header.Get(LegacyTokenHeader); token != "" {
		if !ValidTokenRegex.MatchString(token) {
			return "", ErrInvalidToken
		}
		return token, nil
	}
	return "", ErrEmptyHeader
}

// ParseBearerAuthorizationHeader parses the Authorization header field
// and returns the authorization token, if present and valid.
//
// The Authorization header should be in the form (RFC6750 2.1)
// b64token    = 1*( ALPHA / DIGIT /
// 					"-" / "." / "_" / "~" / "+" / "/" ) *"="
// credentials = "Bearer" 1*SP b64token
func ParseBearerAuthorizationHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrEmptyHeader
	}
	fields := strings.Fields(authHeader)
	if len(fields) != 2 {
		return "", ErrIncorrectHeaderFormat
	}
	if fields[0] != bearerPrefix {
		return "", ErrIncorrectHeaderFormat
	}

	token := fields[1]
	if !ValidTokenRegex.MatchString(token) {
		return "", ErrInvalidToken
	}

	return token, nil
}
