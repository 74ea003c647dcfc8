package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"
	"github.com/farmgate/farmgate/pkg/domain"

	"github.com/gin-gonic/gin"
)

type updateProductController struct{ svc services.ProductService }

func NewUpdateProductController(svc services.ProductService) *updateProductController {
	return &updateProductController{svc}
}

func (h *updateProductController) Handle(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	p.ID = c.Param("id")

	updated, err := h.svc.Update(c.Request.Context(), callerID(c), p)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
