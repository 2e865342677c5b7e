package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ignite/engagement-analytics/internal/bootstrap"
	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/pkg/distlock"
	"github.com/ignite/engagement-analytics/internal/pkg/logger"
	"github.com/ignite/engagement-analytics/internal/worker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one snapshot cycle and exit")
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
		logger.Error("[Worker] startup failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	lock := distlock.New(deps.Redis, deps.DB, "engagement:snapshots", cfg.Snapshot.LockTTL())
	snapshots := worker.NewSnapshotWorker(deps.Service, lock, cfg.Snapshot, cfg.Analytics.FetchTimeout())

	if *once {
		res := snapshots.RunOnce(ctx)
		if len(res.Failures) > 0 {
			os.Exit(1)
		}
		return
	}

	var wg sync.WaitGroup
	if cfg.Snapshot.Enabled && deps.Archive != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshots.Start(ctx)
		}()
	} else {
		logger.Info("[Worker] snapshots disabled")
	}
	if cfg.Retention.Enabled {
		retention := worker.NewRetentionWorker(deps.DB, cfg.Retention.EventDays, cfg.Retention.Interval(), cfg.Retention.BatchSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			retention.Start(ctx)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("[Worker] shutting down")
	cancel()
	wg.Wait()
	logger.Info("[Worker] stopped")
}
