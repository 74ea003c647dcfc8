package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type getProductController struct{ svc services.ProductService }

func NewGetProductController(svc services.ProductService) *getProductController {
	return &getProductController{svc}
}

func (h *getProductController) Handle(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
