package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/config"
	"github.com/seaboard-ops/port-finance/internal/handler"
	"github.com/seaboard-ops/port-finance/internal/logging"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/router"
	"github.com/seaboard-ops/port-finance/internal/service"
	"github.com/seaboard-ops/port-finance/internal/service/expense"
	"github.com/seaboard-ops/port-finance/internal/service/voucher"
)

const jwtExpiry = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("port-finance-api", cfg.LogLevel, cfg.AppEnv)

	roadTaxRate, err := decimal.NewFromString(cfg.RoadTaxRate)
	if err != nil {
		slog.Error("invalid ROAD_TAX_RATE", "error", err)
		os.Exit(1)
	}
	defaultGateCharge, err := decimal.NewFromString(cfg.DefaultGateCharge)
	if err != nil {
		slog.Error("invalid DEFAULT_GATE_CHARGE", "error", err)
		os.Exit(1)
	}

	db, err := connectDB(cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	topups := repository.NewTopUpRepository(db)
	expenses := repository.NewExpenseRepository(db)
	vouchers := repository.NewVoucherRepository(db)
	usage := repository.NewUsageRepository(db)
	catalog := repository.NewCatalogRepository(db)
	rates := repository.NewRateRuleRepository(db)
	tally := repository.NewTallyRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, cfg.AuditKeepCount, db)
	ledgerSvc := service.NewLedgerService(users, ledgerRepo, topups, auditSvc, db)
	equipmentSvc := service.NewEquipmentService(usage, catalog, rates, auditSvc, db)
	tallySvc := service.NewTallyService(tally)
	expenseSvc := expense.NewService(expenses, tally, users, ledgerSvc, auditSvc, db, roadTaxRate, defaultGateCharge, cfg.TallyVoucherPrefix)
	voucherSvc := voucher.NewService(vouchers, tally, users, ledgerSvc, auditSvc, db)

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(users, cfg.JWTSecret, jwtExpiry),
		Wallet:    handler.NewWalletHandler(ledgerSvc),
		Expense:   handler.NewExpenseHandler(expenseSvc),
		Voucher:   handler.NewVoucherHandler(voucherSvc),
		Equipment: handler.NewEquipmentHandler(equipmentSvc),
		Tally:     handler.NewTallyHandler(tallySvc),
		Audit:     handler.NewAuditHandler(auditSvc),
		Health:    handler.NewHealthHandler(db),
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.New(h, cfg.JWTSecret),
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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(dsn string, pool repository.PoolConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err = repository.NewPostgresDB(ctx, dsn, pool)
		cancel()
		if err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
