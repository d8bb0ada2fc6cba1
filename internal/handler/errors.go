package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
	"recon-ledger/pkg/response"
)

// respondError maps domain errors onto the response envelope.
func respondError(c *gin.Context, err error, message string) {
	var (
		verrs    domain.ValidationErrors
		verr     domain.ValidationError
		perr     *domain.PersistenceError
		conflict *domain.StateConflictError
	)

	switch {
	case errors.As(err, &verrs):
		response.ValidationFields(c, message, verrs)
	case errors.As(err, &verr):
		response.ValidationFields(c, message, []domain.ValidationError{verr})
	case errors.As(err, &perr):
		logger.GetLogger().WithError(err).WithField("failed_at", perr.FailedAt).Error(message)
		response.PartialFailure(c, message, err.Error(), perr)
	case errors.As(err, &conflict):
		response.Conflict(c, message, conflict.Reason)
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		logger.GetLogger().WithError(err).Error(message)
		response.InternalError(c, message, err.Error())
	}
}
