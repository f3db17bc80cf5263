package main

import (
	"go.uber.org/zap"

	"freework/internal/config"
	"freework/internal/events"
	"freework/internal/mqhandler"
	"freework/internal/repository"
	"freework/pkg/db"
	"freework/pkg/logger"
	"freework/pkg/mq"
	redisclient "freework/pkg/redis"
)

func main() {
	cfg := config.Load()

	zlog := logger.New()
	defer zlog.Sync()

	zlog.Info("Starting notification worker...")

	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()
	cache := redisclient.NewCache(rdb)

	notificationRepo := repository.NewNotificationRepository(dbConn)

	submittedHandler := mqhandler.NewProposalSubmittedHandler(notificationRepo, cache, zlog)
	decidedHandler := mqhandler.NewProposalDecidedHandler(notificationRepo, cache, zlog)
	completedHandler := mqhandler.NewContractCompletedHandler(notificationRepo, cache, zlog)
	reviewHandler := mqhandler.NewReviewCreatedHandler(notificationRepo, cache, zlog)
	messageHandler := mqhandler.NewMessageSentHandler(notificationRepo, cache, zlog)

	consumers := []struct {
		queue      string
		routingKey string
		handler    mq.MessageHandler
	}{
		{"proposal.submitted.q", events.ProposalSubmitted, submittedHandler.Handle},
		{"proposal.accepted.q", events.ProposalAccepted, decidedHandler.Handle},
		{"proposal.rejected.q", events.ProposalRejected, decidedHandler.Handle},
		{"contract.completed.q", events.ContractCompleted, completedHandler.Handle},
		{"review.created.q", events.ReviewCreated, reviewHandler.Handle},
		{"message.sent.q", events.MessageSent, messageHandler.Handle},
	}

	for _, c := range consumers {
		consumer, err := mq.NewConsumer(cfg.MQ.URL, c.queue, c.routingKey, zlog)
		if err != nil {
			zlog.Fatal("failed to init consumer",
				zap.String("queue", c.queue),
				zap.Error(err),
			)
		}
		consumer.SetHandler(c.handler)
		defer consumer.Close()

		go func(consumer *mq.Consumer, queue string) {
			if err := consumer.StartConsuming(); err != nil {
				zlog.Fatal("consumer failed",
					zap.String("queue", queue),
					zap.Error(err),
				)
			}
		}(consumer, c.queue)
	}

	zlog.Info("All consumers started, worker is ready to process events")

	select {}
}
