package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"freework/internal/repository"
	"freework/internal/service/project"
)

type AdminHandler struct {
	users          *repository.UserRepository
	projectService *project.Service
	logger         *zap.Logger
}

func NewAdminHandler(users *repository.UserRepository, projectService *project.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		users:          users,
		projectService: projectService,
		logger:         logger,
	}
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit := intQuery(c, "limit")
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	users, err := h.users.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteProject handles DELETE /admin/projects/:id
func (h *AdminHandler) DeleteProject(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), ident, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
