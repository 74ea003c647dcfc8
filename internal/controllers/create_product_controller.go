package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"
	"github.com/farmgate/farmgate/pkg/domain"

	"github.com/gin-gonic/gin"
)

type createProductController struct{ svc services.ProductService }

func NewCreateProductController(svc services.ProductService) *createProductController {
	return &createProductController{svc}
}

func (h *createProductController) Handle(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), callerID(c), p)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
