package handlers

import (
	"errors"
	"net/http"

	"salonbackend/internal/domain"
	"salonbackend/internal/http/middleware"
	"salonbackend/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsPaymentsDisabled(err):
		respondError(c, http.StatusForbidden, "payments_disabled", err.Error(), nil)
	case domain.IsInvalidSignature(err):
		respondError(c, http.StatusBadRequest, "invalid_signature", "invalid webhook signature", nil)
	case domain.IsValidation(err):
		var verr domain.ValidationError
		var details any
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			details = gin.H{"fields": verr.Fields}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsProcessor(err):
		utils.LogEvent(middleware.GetRequestID(c), "http", "processor_error", err.Error())
		respondError(c, http.StatusInternalServerError, "processor_error", "payment processor unavailable", nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
