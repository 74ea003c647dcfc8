package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type getUserController struct{ svc services.UserService }

func NewGetUserController(svc services.UserService) *getUserController {
	return &getUserController{svc}
}

// Handle returns the authenticated user's own profile.
func (h *getUserController) Handle(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
