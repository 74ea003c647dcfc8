package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"
	"github.com/farmgate/farmgate/pkg/domain"

	"github.com/gin-gonic/gin"
)

type createContractController struct{ svc services.ContractService }

func NewCreateContractController(svc services.ContractService) *createContractController {
	return &createContractController{svc}
}

func (h *createContractController) Handle(c *gin.Context) {
	var contract domain.Contract
	if err := c.ShouldBindJSON(&contract); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	created, err := h.svc.Propose(c.Request.Context(), callerID(c), contract)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
