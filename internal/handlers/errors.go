package handlers

import (
	"errors"
	"net/http"

	"task-manager/server/internal/middleware"
	"task-manager/server/internal/models"
	"task-manager/server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// respondError maps domain errors onto status codes. Anything unrecognised
// is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(domainErr, services.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(domainErr, services.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(domainErr, services.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(domainErr, services.ErrValidation):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"message": domainErr.Message})
		return
	}

	log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
}

func paramID(c *gin.Context, notFoundMsg string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMsg})
		return uuid.Nil, false
	}
	return id, true
}

func requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
		return nil, false
	}
	return user, true
}
