package main

import (
	"log"

	"go.uber.org/zap"

	"freework/internal/config"
	"freework/internal/handler"
	"freework/internal/httpserver"
	"freework/internal/repository"
	"freework/internal/service/auth"
	"freework/internal/service/contract"
	"freework/internal/service/message"
	"freework/internal/service/project"
	"freework/internal/service/proposal"
	"freework/internal/service/review"
	"freework/pkg/db"
	"freework/pkg/logger"
	"freework/pkg/mq"
	redisclient "freework/pkg/redis"
)

func main() {
	cfg := config.Load()

	zlog := logger.New()
	defer zlog.Sync()

	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()
	cache := redisclient.NewCache(rdb)

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(dbConn)
	companyRepo := repository.NewCompanyRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn, zlog)
	proposalRepo := repository.NewProposalRepository(dbConn, zlog)
	contractRepo := repository.NewContractRepository(dbConn, zlog)
	reviewRepo := repository.NewReviewRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Services
	authService := auth.NewService(userRepo, companyRepo, cache, cfg.JWT.Secret, zlog)
	projectService := project.NewService(projectRepo, cache, zlog)
	proposalService := proposal.NewService(projectRepo, proposalRepo, publisher, cache, zlog)
	contractService := contract.NewService(contractRepo, publisher, cache, zlog)
	reviewService := review.NewService(contractRepo, reviewRepo, publisher, zlog)
	messageService := message.NewService(userRepo, messageRepo, publisher, zlog)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectService)
	proposalHandler := handler.NewProposalHandler(proposalService, zlog)
	contractHandler := handler.NewContractHandler(contractService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	messageHandler := handler.NewMessageHandler(messageService)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	adminHandler := handler.NewAdminHandler(userRepo, projectService, zlog)

	router := httpserver.NewRouter(
		authHandler,
		projectHandler,
		proposalHandler,
		contractHandler,
		reviewHandler,
		messageHandler,
		notificationHandler,
		adminHandler,
		cfg.JWT.Secret,
		authService,
	)

	if err := router.Run(cfg.Server.Port); err != nil {
		zlog.Fatal("server start failed", zap.Error(err))
	}
}
