package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/config"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/handler"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/logging"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/middleware"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/repository"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/service"
	"github.com/ChVMKiran/Financial-Ledger-API-with-Double-Entry-Bookkeeping/internal/service/ledger"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("ledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	accountSvc := service.NewAccountService(accountRepo, ledgerRepo)
	engine := ledger.NewService(accountRepo, transactionRepo, ledgerRepo, db)

	accountHandler := handler.NewAccountHandler(accountSvc)
	transactionHandler := handler.NewTransactionHandler(engine)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("POST /accounts", accountHandler.Create)
	mux.HandleFunc("GET /accounts/{id}", accountHandler.Get)
	mux.HandleFunc("GET /accounts/{id}/ledger", accountHandler.Ledger)
	mux.HandleFunc("POST /deposits", transactionHandler.CreateDeposit)
	mux.HandleFunc("POST /withdrawals", transactionHandler.CreateWithdrawal)
	mux.HandleFunc("POST /transfers", transactionHandler.CreateTransfer)

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
