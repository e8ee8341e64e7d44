package model

import "fmt"

// ValidationError reports a payload that failed schema validation.
// Details maps field names to their failure messages.
type ValidationError struct {
	Details map[string]string `json:"details"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Details)
}

// Auth failure reasons
const (
	AuthReasonMissing = "missing"
	AuthReasonInvalid = "invalid"
)

// AuthError reports a missing, malformed, or unverifiable session token,
// or insufficient privileges for the requested operation.
type AuthError struct {
	Reason  string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("authorization failed: %s token", e.Reason)
}

// NotFoundError reports that no document matched the given id or email.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ConflictError reports a uniqueness violation, notably a duplicate email
// on signup.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StoreError wraps an underlying database failure.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
