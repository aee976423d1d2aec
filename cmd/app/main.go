package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/StakeBot_Go/internal/account"
	"github.com/osse101/StakeBot_Go/internal/audit"
	"github.com/osse101/StakeBot_Go/internal/bets"
	"github.com/osse101/StakeBot_Go/internal/config"
	"github.com/osse101/StakeBot_Go/internal/database"
	"github.com/osse101/StakeBot_Go/internal/database/postgres"
	"github.com/osse101/StakeBot_Go/internal/event"
	"github.com/osse101/StakeBot_Go/internal/handler"
	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/metrics"
	"github.com/osse101/StakeBot_Go/internal/notification"
	"github.com/osse101/StakeBot_Go/internal/server"
	"github.com/osse101/StakeBot_Go/internal/session"
)

const (
	dbMaxConnections  = 10
	dbMaxConnIdleTime = 5 * time.Minute
	dbMaxConnLifetime = 30 * time.Minute

	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "stake-bot",
	})

	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	if err := database.Migrate(connString); err != nil {
		slog.Error("Migrations failed", "error", err)
		os.Exit(1)
	}

	dbPool, err := database.NewPool(connString, dbMaxConnections, dbMaxConnIdleTime, dbMaxConnLifetime)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	accountsRepo := postgres.NewAccountsRepository(dbPool)
	betsRepo := postgres.NewBetsRepository(dbPool)
	auditRepo := postgres.NewAuditLogRepository(dbPool)
	notificationsRepo := postgres.NewNotificationsRepository(dbPool)
	sessionsRepo := postgres.NewSessionsRepository(dbPool)

	eventBus := event.NewMemoryBus()
	if err := metrics.NewEventMetricsCollector().Register(eventBus); err != nil {
		slog.Error("Event metrics registration failed", "error", err)
		os.Exit(1)
	}

	accountService := account.NewService(accountsRepo, account.Config{
		InitialBalance: cfg.InitialBalance,
	})
	betsService := bets.NewService(betsRepo, eventBus, bets.Config{
		MaxStakeWhileInDebt: cfg.MaxStakeWhileInDebt,
		NotableStake:        cfg.NotableStake,
	})
	auditService := audit.NewService(auditRepo)
	notificationService := notification.NewService(notificationsRepo)
	sessionService := session.NewService(sessionsRepo, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	handler.InitValidator()

	srv := server.NewServer(
		cfg.Port,
		cfg.APIKey,
		dbPool,
		accountService,
		betsService,
		auditService,
		notificationService,
		sessionService,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
