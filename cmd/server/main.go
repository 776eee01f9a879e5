// cmd/server/main.go
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campaignforge/minicrm-backend/internal/auth"
	"github.com/campaignforge/minicrm-backend/internal/config"
	"github.com/campaignforge/minicrm-backend/internal/controller"
	"github.com/campaignforge/minicrm-backend/internal/db"
	"github.com/campaignforge/minicrm-backend/internal/gateway"
	"github.com/campaignforge/minicrm-backend/internal/handler"
	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/queue"
	"github.com/campaignforge/minicrm-backend/internal/repository"
	"github.com/campaignforge/minicrm-backend/internal/scheduler"
	"github.com/campaignforge/minicrm-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close()

	customerRepo := &repository.CustomerRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	logRepo := &repository.CommunicationLogRepository{DB: conn}

	// Dispatch always runs on the in-process pool; the per-customer sends go
	// through RabbitMQ instead when AMQP_URL points at a broker and the
	// worker binary consumes them.
	memQueue := queue.NewInMemoryQueue(cfg.QueueCapacity, cfg.QueueWorkers)
	defer memQueue.Close()

	var sendQueue queue.Queue = memQueue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			logger.Log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer amqpQueue.Close()
		sendQueue = amqpQueue
		logger.Log.Info("delivery sends routed through RabbitMQ")
	}

	receiptService := &service.ReceiptService{LogRepo: logRepo}

	// In-process vendor: receipts flow straight back into the receipt
	// service, standing in for the webhook round-trip the worker does.
	simulator := gateway.NewSimulator(gateway.SinkFunc(func(r gateway.Receipt) error {
		return receiptService.Apply(r.CampaignID, r.CustomerID, r.Status, r.VendorMessageID)
	}), cfg.VendorMinDelay, cfg.VendorMaxDelay)

	dispatcher := &service.Dispatcher{
		CampaignRepo: campaignRepo,
		CustomerRepo: customerRepo,
		LogRepo:      logRepo,
		Queue:        sendQueue,
		Gateway:      simulator,
	}
	if cfg.AMQPURL == "" {
		// Both topics live on the in-process pool.
		if err := dispatcher.Register(memQueue); err != nil {
			logger.Log.Fatalf("failed to subscribe dispatcher: %v", err)
		}
	} else {
		// Sends are consumed by the worker binary; only dispatch stays local.
		if err := memQueue.Subscribe(queue.TopicDispatch, dispatcher.DispatchByID); err != nil {
			logger.Log.Fatalf("failed to subscribe dispatcher: %v", err)
		}
	}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		CustomerRepo: customerRepo,
		LogRepo:      logRepo,
		Queue:        memQueue,
	}

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	receiptHandler := &handler.ReceiptHandler{ReceiptService: receiptService}
	customerHandler := &handler.CustomerHandler{Repo: customerRepo}

	authManager := auth.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	authHandler := &auth.Handler{Manager: authManager}

	campaignScheduler := scheduler.New(campaignRepo, memQueue, cfg.SchedulerSpec)
	if err := campaignScheduler.Start(); err != nil {
		logger.Log.Fatalf("failed to start scheduler: %v", err)
	}
	defer campaignScheduler.Stop()

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	// Session surface
	r.Post("/auth/login", authHandler.Login)
	r.Get("/auth/status", authHandler.Status)
	r.Post("/auth/logout", authHandler.Logout)

	// Vendor callback: unauthenticated, always acknowledged
	r.Post("/api/delivery-receipt", receiptHandler.Ingest)

	// Protected surfaces
	r.Group(func(pr chi.Router) {
		pr.Use(authManager.RequireAuth)
		pr.Post("/api/campaigns/preview", campaignController.PreviewAudience)
		pr.Post("/api/campaigns", campaignController.CreateCampaign)
		pr.Get("/api/campaigns", campaignController.ListCampaigns)
		pr.Get("/api/campaigns/history", campaignController.History)
		pr.Get("/api/campaigns/{id}", campaignController.GetCampaign)
		pr.Post("/api/customers", customerHandler.Create)
	})

	logger.Log.Infof("server running on %s", cfg.HTTPPort)
	logger.Log.Fatal(http.ListenAndServe(cfg.HTTPPort, r))
}
