package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type listContractsController struct{ svc services.ContractService }

func NewListContractsController(svc services.ContractService) *listContractsController {
	return &listContractsController{svc}
}

func (h *listContractsController) Handle(c *gin.Context) {
	items, err := h.svc.ListMine(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": items})
}
