package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freework/internal/service/contract"
)

type ContractHandler struct {
	contractService *contract.Service
}

func NewContractHandler(contractService *contract.Service) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// List handles GET /contracts
func (h *ContractHandler) List(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}

	contracts, err := h.contractService.List(c.Request.Context(), ident, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

// Get handles GET /contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	ct, err := h.contractService.Get(c.Request.Context(), ident, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": ct})
}

// Complete handles POST /contracts/:id/complete
func (h *ContractHandler) Complete(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	ct, err := h.contractService.Complete(c.Request.Context(), ident, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": ct})
}

// CompleteByCompany handles POST /contracts/:id/company-complete
func (h *ContractHandler) CompleteByCompany(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	ct, err := h.contractService.CompleteByCompany(c.Request.Context(), ident, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": ct})
}
