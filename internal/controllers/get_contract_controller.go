package controllers

import (
	"net/http"

	"github.com/farmgate/farmgate/internal/services"

	"github.com/gin-gonic/gin"
)

type getContractController struct{ svc services.ContractService }

func NewGetContractController(svc services.ContractService) *getContractController {
	return &getContractController{svc}
}

func (h *getContractController) Handle(c *gin.Context) {
	contract, err := h.svc.Get(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}
