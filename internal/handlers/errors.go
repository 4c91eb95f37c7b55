package handlers

import (
	"errors"

	"gofleet/internal/apperrors"
	"gofleet/internal/utils"
	"gofleet/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the typed service errors onto HTTP. Anything not
// in the taxonomy is a 500 and gets logged with the request id.
func respondServiceError(c *gin.Context, log *logger.Logger, err error) {
	var validationErr *apperrors.ValidationError
	var notFoundErr *apperrors.NotFoundError
	var permissionErr *apperrors.PermissionError
	var conflictErr *apperrors.ConflictError

	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, map[string]string{validationErr.Field: validationErr.Reason})
	case errors.As(err, &notFoundErr):
		utils.NotFoundResponse(c, notFoundErr.Error())
	case errors.As(err, &permissionErr):
		utils.ForbiddenResponse(c, permissionErr.Reason)
	case errors.As(err, &conflictErr):
		details := map[string]string{}
		if conflictErr.CurrentStatus != "" {
			details["current_status"] = string(conflictErr.CurrentStatus)
		}
		if conflictErr.WorkerID != "" {
			details["worker_id"] = conflictErr.WorkerID
		}
		utils.ConflictResponse(c, conflictErr.Reason, details)
	default:
		log.WithRequestID(c.GetString("request_id")).WithError(err).Error("request failed")
		utils.InternalServerErrorResponse(c)
	}
}
