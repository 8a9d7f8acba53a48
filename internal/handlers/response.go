package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
)

type APIError struct {
	Message    string                     `json:"message"`
	Code       string                     `json:"code,omitempty"`
	Violations []domainagg.FieldViolation `json:"violations,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError translates aggregate error codes to HTTP statuses. Validation
// errors carry every collected field violation in the body.
func RespondError(c *gin.Context, err error) {
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) {
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Message: err.Error(), Code: string(domainagg.CodeInternal)},
		})
		return
	}
	c.JSON(statusForCode(aggErr.Code), ErrorEnvelope{
		Error: APIError{
			Message:    aggErr.Error(),
			Code:       string(aggErr.Code),
			Violations: aggErr.Violations,
		},
	})
}

func statusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeInvariantViolation:
		return http.StatusConflict
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func RespondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{Message: msg, Code: string(domainagg.CodeValidation)},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
