package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"freework/internal/service/proposal"
)

type ProposalHandler struct {
	proposalService *proposal.Service
	logger          *zap.Logger
}

func NewProposalHandler(proposalService *proposal.Service, logger *zap.Logger) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
		logger:          logger,
	}
}

// Submit handles POST /proposals
func (h *ProposalHandler) Submit(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}

	var req proposal.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.logger.Info("Proposal submission received",
		zap.Int("freelancer_id", ident.UserID),
		zap.Int("project_id", req.ProjectID),
	)

	p, err := h.proposalService.Submit(c.Request.Context(), ident, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proposal": p})
}

// List handles GET /proposals
func (h *ProposalHandler) List(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}

	proposals, err := h.proposalService.List(c.Request.Context(), ident, proposal.ListInput{
		ProjectID: intQuery(c, "project_id"),
		Status:    c.Query("status"),
		Limit:     intQuery(c, "limit"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// Transition handles POST /proposals/:id/status
func (h *ProposalHandler) Transition(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.logger.Info("Proposal transition requested",
		zap.Int("proposal_id", id),
		zap.String("target", req.Status),
		zap.Int("user_id", ident.UserID),
	)

	p, message, err := h.proposalService.Transition(c.Request.Context(), ident, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposal": p,
		"message":  message,
	})
}
