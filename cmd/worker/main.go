// cmd/worker/main.go
package main

import (
	"github.com/campaignforge/minicrm-backend/internal/config"
	"github.com/campaignforge/minicrm-backend/internal/db"
	"github.com/campaignforge/minicrm-backend/internal/gateway"
	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/queue"
	"github.com/campaignforge/minicrm-backend/internal/repository"
	"github.com/campaignforge/minicrm-backend/internal/service"
)

// The worker consumes queued delivery jobs from RabbitMQ, performs the
// vendor send, and lets the simulator post its receipt back to the API
// server's webhook, the way an external vendor would.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	if cfg.AMQPURL == "" {
		logger.Log.Fatal("AMQP_URL is required for the worker")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close()

	customerRepo := &repository.CustomerRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	logRepo := &repository.CommunicationLogRepository{DB: conn}

	amqpQueue, err := queue.DialAMQP(cfg.AMQPURL)
	if err != nil {
		logger.Log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer amqpQueue.Close()

	simulator := gateway.NewSimulator(
		gateway.NewHTTPSink(cfg.ReceiptURL),
		cfg.VendorMinDelay, cfg.VendorMaxDelay,
	)

	dispatcher := &service.Dispatcher{
		CampaignRepo: campaignRepo,
		CustomerRepo: customerRepo,
		LogRepo:      logRepo,
		Queue:        amqpQueue,
		Gateway:      simulator,
	}

	if err := amqpQueue.Subscribe(queue.TopicSends, dispatcher.SendByEntryID); err != nil {
		logger.Log.Fatalf("failed to register consumer: %v", err)
	}

	logger.Log.Info("worker running, waiting for delivery jobs")
	select {}
}
