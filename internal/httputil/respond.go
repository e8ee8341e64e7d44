package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/bizcard/bizcard/internal/model"
)

type errorResponse struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON serializes v to the response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v\n", err)
	}
}

// WriteError maps a domain error onto its HTTP status code and writes it.
// Not-found maps to 404 and auth failures to 401; everything else,
// including store failures, reports 400.
func WriteError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		authErr       *model.AuthError
		notFoundErr   *model.NotFoundError
		conflictErr   *model.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		WriteJSON(w, http.StatusBadRequest, errorResponse{
			Message: "validation failed",
			Details: validationErr.Details,
		})
	case errors.As(err, &authErr):
		if authErr.Reason == model.AuthReasonMissing {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		WriteJSON(w, http.StatusUnauthorized, errorResponse{Message: authErr.Error()})
	case errors.As(err, &notFoundErr):
		WriteJSON(w, http.StatusNotFound, errorResponse{Message: notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		WriteJSON(w, http.StatusBadRequest, errorResponse{Message: conflictErr.Error()})
	default:
		log.Printf("Request failed: %v\n", err)
		WriteJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	}
}
