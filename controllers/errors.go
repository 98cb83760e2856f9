// Package controllers holds the gin handlers for every screen of the app.
// file: controllers/errors.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventlink/logger"
	"eventlink/models"
	"eventlink/services"
)

// respondError maps service errors to HTTP statuses. Anything unexpected is
// logged and reported as a generic 500.
func respondError(c *gin.Context, op string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, services.ErrUnknownSchool):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotSignedIn), errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEventNotFound), errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error.Printf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error, please try again."})
	}
}

// badRequest reports a malformed request body or missing parameter.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
