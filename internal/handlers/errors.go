package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps ledger errors onto HTTP statuses. Client-caused errors
// are logged at warn, everything else at error with a generic message.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrVerificationTimeout):
		status, msg = http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, apperrors.ErrVerificationFailed):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, apperrors.ErrUpstream):
		status, msg = http.StatusBadGateway, "Payment provider unavailable"
	}

	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout && status != http.StatusBadGateway {
		logger.Error(fallback, slog.String("error", err.Error()))
	} else {
		logger.Warn(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	}
	c.JSON(status, gin.H{"error": msg})
}
