package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stagebill/stagebill-server/internal/api"
	"github.com/stagebill/stagebill-server/internal/config"
	"github.com/stagebill/stagebill-server/internal/external"
	"github.com/stagebill/stagebill-server/internal/jobs"
	"github.com/stagebill/stagebill-server/internal/repository"
	"github.com/stagebill/stagebill-server/internal/service"
	"github.com/stagebill/stagebill-server/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := utils.NewLogger()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up database")
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// External collaborators
	storage, err := external.NewFileStorage(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up signature storage")
	}
	email := &external.LogEmailSender{Log: logger}
	checkout := &external.HostedCheckout{BaseURL: cfg.Payments.CheckoutBaseURL}
	pdf := external.PlainRenderer{}

	// Services
	workOrders := service.NewWorkOrderService(repo, email, logger, cfg.Server.PublicBaseURL)
	timeLogs := service.NewTimeLogService(repo, logger)
	changeOrders := service.NewChangeOrderService(repo, email, logger, cfg.Server.PublicBaseURL)
	approvals := service.NewApprovalService(repo, storage, logger)
	invoices := service.NewInvoiceService(repo, pdf, checkout, email, logger, cfg.Server.PublicBaseURL)
	payments := service.NewPaymentService(repo, logger)
	org := service.NewOrgService(repo, logger)

	// Create API handler
	handler := api.NewHandler(api.HandlerConfig{
		WorkOrders:    workOrders,
		TimeLogs:      timeLogs,
		ChangeOrders:  changeOrders,
		Approvals:     approvals,
		Invoices:      invoices,
		Payments:      payments,
		Org:           org,
		JWTSecret:     cfg.Auth.JWTSecret,
		WebhookSecret: cfg.Payments.WebhookSecret,
		Log:           logger,
	})

	// Scheduled work
	sweeper := jobs.NewPastDueSweeper(repo, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start past-due sweeper")
	}
	defer sweeper.Stop()

	// Set up Gin router
	router := gin.Default()
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info().Str("addr", serverAddr).Msg("starting server")
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
