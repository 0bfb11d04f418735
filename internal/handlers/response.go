package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondServiceError maps service errors onto HTTP statuses. Provider
// failures surface as 502 with the failure kind and whether a retry is
// worth attempting; everything else follows the usual REST statuses.
func RespondServiceError(c *gin.Context, err error) {
	if genErr, ok := apperrors.AsGeneration(err); ok {
		c.JSON(http.StatusBadGateway, ErrorEnvelope{
			Error: APIError{
				Message:   genErr.Error(),
				Code:      string(genErr.Kind),
				Retryable: genErr.Retryable(),
			},
		})
		return
	}
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperrors.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, apperrors.ErrAlreadyExists):
		RespondError(c, http.StatusConflict, "already_exists", err)
	case errors.Is(err, apperrors.ErrValidation):
		RespondError(c, http.StatusBadRequest, "validation", err)
	default:
		// Unexpected failure: keep the body opaque and record the
		// cause for the server log.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{
				Message: "internal error",
				Code:    "internal",
			},
		})
	}
}
