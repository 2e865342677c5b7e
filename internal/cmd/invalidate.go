package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignite/engagement-analytics/internal/bootstrap"
	"github.com/ignite/engagement-analytics/internal/cache"
)

func newInvalidateCmd(load configLoader) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop a tenant's cached reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			client := bootstrap.OpenRedis(cmd.Context(), cfg.Redis)
			if client == nil {
				return fmt.Errorf("redis is not configured or unreachable")
			}
			defer client.Close()

			n, err := cache.NewReportCache(client, cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL()).Invalidate(cmd.Context(), tenant)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached reports for %s\n", n, tenant)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
