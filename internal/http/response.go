package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_bazar/internal/domain"
	"github.com/fjod/go_bazar/internal/imagehost"
	"github.com/fjod/go_bazar/internal/repository"
	"github.com/fjod/go_bazar/pkg/circuitbreaker"
	"go.uber.org/zap"
)

// statusClientClosedRequest reports a request whose client went away before the answer was ready.
const statusClientClosedRequest = 499

type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Message: message,
		Code:    code,
	})
}

// handleServiceError converts catalog service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: domain.ErrValidation.Error(),
			Code:    "validation_failed",
			Errors:  verr.Fields,
		})
		return
	}

	var httpStatus int
	var code string

	switch {
	case errors.Is(err, repository.ErrInvalidID):
		respondError(w, http.StatusNotFound, "not_found", "product not found (invalid id)")
		return
	case errors.Is(err, domain.ErrNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, imagehost.ErrNotConfigured):
		httpStatus = http.StatusServiceUnavailable
		code = "image_host_unavailable"
	case errors.Is(err, circuitbreaker.ErrOpen):
		httpStatus = http.StatusServiceUnavailable
		code = "service_unavailable"
	case errors.Is(err, imagehost.ErrUpload):
		httpStatus = http.StatusBadGateway
		code = "image_upload_failed"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	case errors.Is(err, context.Canceled):
		httpStatus = statusClientClosedRequest
		code = "request_canceled"
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}
