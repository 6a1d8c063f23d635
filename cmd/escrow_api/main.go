package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marketplace-escrow-ledger/internal/config"
	"github.com/marketplace-escrow-ledger/internal/data/postgres"
	"github.com/marketplace-escrow-ledger/internal/escrow_api"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/service"
	"github.com/marketplace-escrow-ledger/internal/logger"
	"github.com/marketplace-escrow-ledger/internal/platform/messaging/producers"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("escrow_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer (publishes to the charge request topic)
	kafkaProducer, err := producers.NewChargeReqMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize charge request Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	escrowRepo := postgres.NewEscrowRepository(log, postgresDB)
	contractRepo := postgres.NewContractRepository(log, postgresDB)
	billingRepo := postgres.NewBillingRepository(log, postgresDB)
	disputeRepo := postgres.NewDisputeRepository(log, postgresDB)
	invoiceRepo := postgres.NewInvoiceRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize services
	feeService := service.NewFeeService(log, billingRepo)
	escrowService := service.NewEscrowService(log, escrowRepo, contractRepo)
	chargeService := service.NewChargeService(log, escrowRepo, kafkaProducer)
	disputeService := service.NewDisputeService(log, postgresDB, escrowRepo, contractRepo, disputeRepo, invoiceRepo, outboxRepo)

	// Initialize REST server
	server := escrow_api.NewServer(log, cfg, feeService, escrowService, chargeService, disputeService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
