package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/work-buddy/internal/auth"
	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/rs/zerolog"
)

func writeError(c *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// writeDomainError maps the errs sentinels onto HTTP statuses.
func writeDomainError(c *gin.Context, log zerolog.Logger, err error) {
	var inErr *auth.InputError
	switch {
	case errors.As(err, &inErr):
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", inErr.Fields)
	case errors.Is(err, errs.ErrEmptyField):
		writeError(c, http.StatusBadRequest, "EMPTY_FIELD", err.Error(), nil)
	case errors.Is(err, errs.ErrInvalidStatus), errors.Is(err, errs.ErrInvalidPriority):
		writeError(c, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
	case errors.Is(err, errs.ErrRequestNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "request not found", nil)
	case errors.Is(err, errs.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid admin credentials", nil)
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login with the required role first", nil)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
