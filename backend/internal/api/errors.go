package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "themtwo/backend/pkg/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Type       string `json:"type,omitempty"`
	Field      string `json:"field,omitempty"`
	ExistingID string `json:"existing_id,omitempty"`
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	t, _ := apperrors.TypeOf(err)
	switch t {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeStale:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeContext:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Server errors are logged and their details
// withheld from the body.
func (h *Handler) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: apperrors.MessageOf(err)}
	if t, ok := apperrors.TypeOf(err); ok {
		resp.Type = string(t)
	}

	var validation *apperrors.ErrValidationFailed
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}
	var duplicate *apperrors.ErrDuplicateConnection
	if errors.As(err, &duplicate) {
		resp.ExistingID = duplicate.ExistingID
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("operation", op), zap.Error(err))
		resp.Error = "Failed to " + op
	}
	c.JSON(status, resp)
}
