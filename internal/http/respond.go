package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/telk/go_shop/internal/domain"
	"github.com/telk/go_shop/internal/repository"
	"github.com/telk/go_shop/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondDomainError translates service and domain errors into HTTP statuses:
// malformed input is 400, unknown resources 404, state conflicts 409 and an
// open circuit breaker 503.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidationError(err):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidCartState),
		errors.Is(err, domain.ErrInvalidOrderStatus),
		errors.Is(err, domain.ErrCartItemLimit),
		errors.Is(err, repository.ErrDuplicateOrder),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrItemUnavailable):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "upstream service unavailable")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
