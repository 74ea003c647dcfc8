package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type changeUserTypeController struct{ svc services.UserService }

func NewChangeUserTypeController(svc services.UserService) *changeUserTypeController {
	return &changeUserTypeController{svc}
}

type changeTypeReq struct {
	UserType string `json:"userType" binding:"required"`
}

// Handle switches the caller between buyer and farmer. The change takes
// effect on credentials minted after it, not on the one presented here.
func (h *changeUserTypeController) Handle(c *gin.Context) {
	var req changeTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	user, err := h.svc.ChangeType(c.Request.Context(), callerID(c), req.UserType)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
