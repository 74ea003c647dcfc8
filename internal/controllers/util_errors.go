package controllers

import (
	"errors"
	"net/http"

	"github.com/farmgate/farmgate/internal/middleware"
	"github.com/farmgate/farmgate/internal/repository"
	"github.com/farmgate/farmgate/internal/services"
	"github.com/farmgate/farmgate/pkg/token"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps the shared service/repository error vocabulary onto
// HTTP statuses. Anything unrecognized is treated as a bad request rather
// than leaking internals as a 500.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, services.ErrContractNotActionable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// callerID returns the user id from the claims a role gate attached. The
// empty string means the handler was mounted without a gate, which is a
// wiring bug.
func callerID(c *gin.Context) string {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return ""
	}
	id, _ := claims.GetString(token.ClaimUserID)
	return id
}
