package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type listProductsController struct{ svc services.ProductService }

func NewListProductsController(svc services.ProductService) *listProductsController {
	return &listProductsController{svc}
}

// Handle lists the catalog, optionally narrowed to one farmer's listings
// with ?farmerId=.
func (h *listProductsController) Handle(c *gin.Context) {
	if farmerID := c.Query("farmerId"); farmerID != "" {
		items, err := h.svc.ListByFarmer(c.Request.Context(), farmerID)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": items})
		return
	}

	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}
