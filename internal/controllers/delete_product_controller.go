package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type deleteProductController struct{ svc services.ProductService }

func NewDeleteProductController(svc services.ProductService) *deleteProductController {
	return &deleteProductController{svc}
}

func (h *deleteProductController) Handle(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
