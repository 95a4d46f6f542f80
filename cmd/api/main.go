package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kanban-board/configs"
	v1 "kanban-board/internal/api/v1"
	"kanban-board/internal/config"
	"kanban-board/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := configs.LoadConfig()

	// Inisialisasi logger
	logs, err := logger.New(cfg.LogOutput, cfg.LogDir)
	if err != nil {
		log.Fatalf("init loggers: %v", err)
	}
	defer logs.Sync()
	logs.System.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	if err := cfg.Validate(); err != nil {
		logs.Error.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := config.Build(ctx, cfg, logs)
	if err != nil {
		logs.Error.Fatal("Failed to build dependencies", zap.Error(err))
	}
	deps.Start()

	app := v1.NewApp(v1.Options{
		Service:      deps.Service,
		Tokens:       deps.Tokens,
		Hub:          deps.Hub,
		Log:          logs,
		UploadDir:    cfg.UploadDir,
		CORSOrigins:  cfg.CORSOrigins,
		RateLimitMax: cfg.RateLimitMax,
	})

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.AppPort)
		logs.System.Info("Application ready", zap.String("addr", addr))
		serverErr <- app.Listen(addr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logs.Error.Error("Application failed to start", zap.Error(err))
		}
	case <-ctx.Done():
		logs.System.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	// Sockets are closed first so the HTTP server is not left waiting on them.
	if err := deps.Hub.Shutdown(shutdownCtx); err != nil {
		logs.Error.Error("Hub shutdown failed", zap.Error(err))
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logs.Error.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := deps.Close(shutdownCtx); err != nil {
		logs.Error.Error("Dependency shutdown failed", zap.Error(err))
	}
	logs.System.Info("Application stopped")
}
