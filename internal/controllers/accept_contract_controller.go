package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type acceptContractController struct{ svc services.ContractService }

func NewAcceptContractController(svc services.ContractService) *acceptContractController {
	return &acceptContractController{svc}
}

func (h *acceptContractController) Handle(c *gin.Context) {
	contract, err := h.svc.Accept(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}
