package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnknownCategory):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrPredictionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error  string        `json:"error"`
	Kind   string        `json:"kind,omitempty"`
	Column domain.Column `json:"column,omitempty"`
	Value  string        `json:"value,omitempty"`
}

func errorKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrUnknownCategory):
		return "unknown_category"
	case domain.IsKind(err, domain.ErrSchema):
		return "schema"
	case domain.IsKind(err, domain.ErrInference):
		return "inference"
	case domain.IsKind(err, domain.ErrPredictionNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return ""
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	resp := errorResponse{Error: err.Error(), Kind: errorKind(err)}
	if unknown, ok := domain.AsUnknownCategory(err); ok {
		resp.Column = unknown.Column
		resp.Value = unknown.Value
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, resp)
}
