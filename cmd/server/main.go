package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/engagement-analytics/internal/api"
	"github.com/ignite/engagement-analytics/internal/bootstrap"
	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Environment, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.SetRedactPII(cfg.Log.ShouldRedactPII())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		logger.Error("[Server] startup failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	handlers := api.NewHandlers(deps.Service, cfg.Analytics)
	health := api.NewHealthChecker(deps.DB, deps.Redis)
	server := api.NewServer(cfg.Server, handlers, health)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("[Server] listening", "addr", addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("[Server] listen failed", "error", err)
			done <- syscall.SIGTERM
		}
	}()

	<-done
	logger.Info("[Server] shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Server] shutdown error", "error", err)
	}
	logger.Info("[Server] stopped")
}
