package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/logger"
	"github.com/huangang/shiftledger/pkg/response"
)

// writeError maps service errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var (
		notFound   *services.NotFoundError
		invalid    *services.ValidationError
		conflict   *services.ConflictError
		forbidden  *services.ForbiddenError
		persisting *services.PersistenceError
	)

	switch {
	case errors.As(err, &notFound):
		response.Error(c, response.NewNotFound(notFound.Error()))
	case errors.As(err, &invalid):
		response.Error(c, response.NewBadRequest(invalid.Error()))
	case errors.As(err, &conflict):
		response.Error(c, response.NewConflict(conflict.Error()))
	case errors.As(err, &forbidden):
		response.Error(c, response.NewForbidden(forbidden.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(c, response.NewUnauthorized(err.Error()))
	case errors.Is(err, services.ErrUserDisabled):
		response.Error(c, response.NewForbidden(err.Error()))
	default:
		event := logger.Error().Err(err).Str("request_id", logger.RequestID(c)).Str("path", c.Request.URL.Path)
		if errors.As(err, &persisting) {
			event = event.Str("op", persisting.Op)
		}
		event.Msg("request failed")
		response.Error(c, err)
	}
}

// paramID parses a uint path parameter, answering 400 on failure.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
