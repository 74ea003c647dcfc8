package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"
	"github.com/farmgate/farmgate/pkg/domain"

	"github.com/gin-gonic/gin"
)

type addAddressController struct{ svc services.UserService }

func NewAddAddressController(svc services.UserService) *addAddressController {
	return &addAddressController{svc}
}

func (h *addAddressController) Handle(c *gin.Context) {
	var addr domain.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	created, err := h.svc.AddAddress(c.Request.Context(), callerID(c), addr)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
