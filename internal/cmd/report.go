package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ignite/engagement-analytics/internal/bootstrap"
	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/service/engagement"
)

type reportFlags struct {
	tenant  string
	cohort  string
	days    int
	noChurn bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&f.cohort, "cohort", "monthly", "cohort granularity: weekly, monthly or quarterly")
	cmd.Flags().IntVar(&f.days, "days", 90, "analysis window in days (1-365)")
	cmd.Flags().BoolVar(&f.noChurn, "no-churn", false, "skip churn analysis")
	_ = cmd.MarkFlagRequired("tenant")
}

func (f *reportFlags) query() engagement.Query {
	include := !f.noChurn
	return engagement.Query{
		TenantID:     f.tenant,
		CohortType:   f.cohort,
		IncludeChurn: &include,
		Days:         f.days,
	}
}

func newReportCmd(load configLoader) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print an engagement report as JSON",
		Example: `  engagectl report --tenant acme
  engagectl report --tenant acme --cohort weekly --days 30 --no-churn`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := flags.query()
			if _, err := q.Options(); err != nil {
				return err
			}
			return withDeps(cmd.Context(), load, func(_ *config.Config, deps *bootstrap.Deps) error {
				report, err := deps.Service.Report(cmd.Context(), q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newSnapshotCmd(load configLoader) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Build a report and store it in the snapshot archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := flags.query()
			if _, err := q.Options(); err != nil {
				return err
			}
			return withDeps(cmd.Context(), load, func(_ *config.Config, deps *bootstrap.Deps) error {
				meta, err := deps.Service.Snapshot(cmd.Context(), q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), meta)
			})
		},
	}
	flags.register(cmd)
	return cmd
}
