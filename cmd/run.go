package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"bookie/api"
	"bookie/config"
	"bookie/database"
	"bookie/events"
	"bookie/repository"
	"bookie/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting bookie server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	ledgerService := service.NewLedgerService(uowFactory, cfg.StartingBalance)
	marketService := service.NewMarketService(uowFactory, cfg.StartingBalance)
	settlementService := service.NewSettlementService(uowFactory, cfg.StartingBalance)
	statsService := service.NewStatsService(uowFactory)
	adminService := service.NewAdminService(uowFactory)

	// Initialize the HTTP server
	handler := api.NewHandler(cfg, ledgerService, marketService, settlementService, statsService, adminService)
	server := api.NewServer(cfg.ListenAddr, handler)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s in %s mode...", cfg.ListenAddr, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		db.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
