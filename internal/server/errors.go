package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	recapdomain "github.com/tabresto/fiscal/internal/recap/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string                     `json:"type"`
	Message string                     `json:"message"`
	Errors  []settingsdomain.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	if fieldErrs, ok := settingsdomain.AsValidationErrors(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fieldErrs,
		}
	}

	if cfgErr, ok := exportdomain.AsConfigurationError(err); ok {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "configuration_error",
			Message: cfgErr.Message,
			Errors: []settingsdomain.FieldError{
				{Field: cfgErr.Field, Code: "missing", Message: cfgErr.Message},
			},
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, settingsdomain.ErrNotConfigured):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "configuration_error",
			Message: "fiscal settings are not configured",
		}
	case errors.Is(err, settingsdomain.ErrAlreadyExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "settings already configured",
		}
	case errors.Is(err, exportdomain.ErrNotReady):
		return http.StatusConflict, errorPayload{
			Type:    "not_ready",
			Message: "export is still in progress",
		}
	case errors.Is(err, exportdomain.ErrNotCompleted):
		return http.StatusConflict, errorPayload{
			Type:    "not_completed",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, settingsdomain.ErrInvalidMerchant),
		errors.Is(err, recapdomain.ErrInvalidMerchant),
		errors.Is(err, recapdomain.ErrInvalidPeriod),
		errors.Is(err, exportdomain.ErrInvalidMerchant),
		errors.Is(err, exportdomain.ErrInvalidPeriod),
		errors.Is(err, exportdomain.ErrInvalidPageToken),
		errors.Is(err, exportdomain.ErrUnsupportedFormat),
		errors.Is(err, exportdomain.ErrUnsupportedEncoding):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, settingsdomain.ErrNotFound),
		errors.Is(err, recapdomain.ErrNotFound),
		errors.Is(err, exportdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog buckets an error for the request log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "internal", payload.Type
	case status >= 400:
		return "client", payload.Type
	default:
		return "", payload.Type
	}
}
