package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type deleteAddressController struct{ svc services.UserService }

func NewDeleteAddressController(svc services.UserService) *deleteAddressController {
	return &deleteAddressController{svc}
}

func (h *deleteAddressController) Handle(c *gin.Context) {
	if err := h.svc.DeleteAddress(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
