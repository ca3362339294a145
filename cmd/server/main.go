package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safeguard-go/internal/config"
	"safeguard-go/internal/db"
	httpapi "safeguard-go/internal/http"
	"safeguard-go/internal/logging"
	"safeguard-go/internal/migrations"
	"safeguard-go/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.Log, "safeguard-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer database.Close()
	if err := migrations.Apply(database, migrations.Source(cfg.MigrationsDir), logger); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	promoted, err := services.PromoteAdmins(database, cfg.AdminEmails)
	if err != nil {
		return fmt.Errorf("admin promotion: %w", err)
	}
	if promoted > 0 {
		logger.Info("admin role granted", zap.Int64("users", promoted))
	}

	rdb, err := db.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()
	sessions := services.NewSessionStore(rdb, time.Duration(cfg.RefreshTTLSeconds)*time.Second)

	hub := services.NewAlertHub()
	go hub.Run(ctx)

	server := httpapi.NewServer(database, sessions, cfg, hub, logger)
	handler, err := server.Router()
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-stop:
	case err := <-errCh:
		return err
	}
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
