package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"freework/internal/handler"
	"freework/pkg/rbac"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	proposalHandler *handler.ProposalHandler,
	contractHandler *handler.ContractHandler,
	reviewHandler *handler.ReviewHandler,
	messageHandler *handler.MessageHandler,
	notificationHandler *handler.NotificationHandler,
	adminHandler *handler.AdminHandler,
	jwtSecret string,
	roles RoleResolver,
) *Router {
	r := gin.Default()
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware())

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/projects", projectHandler.List)
	r.GET("/projects/:id", projectHandler.Get)
	r.GET("/users/:id/reviews", reviewHandler.ListForUser)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret, roles))
	{
		auth.POST("/projects", RequirePermission(rbac.ActionProjectCreate), projectHandler.Create)
		auth.PUT("/projects/:id", RequirePermission(rbac.ActionProjectUpdate), projectHandler.Update)
		auth.DELETE("/projects/:id", RequirePermission(rbac.ActionProjectDelete), projectHandler.Delete)

		auth.POST("/proposals", RequirePermission(rbac.ActionProposalSubmit), proposalHandler.Submit)
		auth.GET("/proposals", RequirePermission(rbac.ActionProposalList), proposalHandler.List)
		auth.POST("/proposals/:id/status", RequirePermission(rbac.ActionProposalTransition), proposalHandler.Transition)

		auth.GET("/contracts", contractHandler.List)
		auth.GET("/contracts/:id", contractHandler.Get)
		auth.POST("/contracts/:id/complete", RequirePermission(rbac.ActionContractComplete), contractHandler.Complete)
		auth.POST("/contracts/:id/company-complete", RequirePermission(rbac.ActionContractCompanyComplete), contractHandler.CompleteByCompany)

		auth.POST("/reviews", RequirePermission(rbac.ActionReviewSubmit), reviewHandler.Submit)

		auth.POST("/messages", RequirePermission(rbac.ActionMessageSend), messageHandler.Send)
		auth.GET("/messages/:id", messageHandler.Conversation)
		auth.POST("/messages/:id/read", messageHandler.MarkRead)

		auth.GET("/notifications", notificationHandler.List)
		auth.POST("/notifications/:id/read", notificationHandler.MarkRead)

		admin := auth.Group("/admin")
		{
			admin.GET("/users", RequirePermission(rbac.ActionAdminUsers), adminHandler.ListUsers)
			admin.DELETE("/projects/:id", RequirePermission(rbac.ActionAdminProjects), adminHandler.DeleteProject)
		}
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
