// Package cmd implements the engagectl command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ignite/engagement-analytics/internal/bootstrap"
	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/pkg/logger"
)

// NewRootCmd builds the engagectl command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "engagectl",
		Short: "email engagement analytics from the command line",
		Long: `engagectl - email engagement analytics
  - report    build an engagement report for a tenant
  - score     score ratings and marketplace signals
  - snapshot  archive a tenant report
  - invalidate drop cached reports
  - migrate   run database migrations`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to config file")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.LoadFromEnv(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		if err := logger.Init(cfg.Environment, cfg.Log.Level); err != nil {
			return nil, err
		}
		logger.SetRedactPII(cfg.Log.ShouldRedactPII())
		return cfg, nil
	}

	root.AddCommand(
		newReportCmd(loadConfig),
		newSnapshotCmd(loadConfig),
		newScoreCmd(),
		newInvalidateCmd(loadConfig),
		newMigrateCmd(loadConfig),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

type configLoader func() (*config.Config, error)

// withDeps opens the service dependencies for the duration of fn.
func withDeps(ctx context.Context, load configLoader, fn func(*config.Config, *bootstrap.Deps) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	deps, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	return fn(cfg, deps)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
