package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"heroesfund/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, errorEnvelope{Error: apiError{Code: "validation_error", Message: "invalid request", Fields: verr.Fields}})
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, "invalid_status", "unknown status")
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteError(w, http.StatusBadRequest, "invalid_transition", "transition not allowed")
	case errors.Is(err, domain.ErrSelfRequest):
		WriteError(w, http.StatusBadRequest, "self_request", "cannot send a friend request to yourself")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotAuthorized):
		WriteError(w, http.StatusForbidden, "not_authorized", "not allowed for this friendship")
	case errors.Is(err, domain.ErrDuplicateEdge):
		WriteError(w, http.StatusConflict, "duplicate_edge", "friendship already exists")
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "resource was modified concurrently")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
	case errors.Is(err, domain.ErrDependencyFailure):
		WriteError(w, http.StatusServiceUnavailable, "dependency_failure", "try again")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBadJSON(w http.ResponseWriter) {
	WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
}
