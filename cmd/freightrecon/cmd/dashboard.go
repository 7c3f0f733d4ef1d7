package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the organization's reconciliation dashboard",
	Long: `Dashboard summarizes the organization's current state: documents
processed today, shipments pending review, auto-approvals, open
disputes, the discrepancy level distribution, and recent audit
activity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return NewCLIErrorHandler().Exit(err)
		}
		defer a.Close()

		summary, err := a.repo.DashboardSummary(ctx, cfg.Organization, time.Now().UTC())
		if err != nil {
			return NewCLIErrorHandler().Exit(err)
		}

		rep, err := a.newReporter()
		if err != nil {
			return err
		}
		return rep.WriteDashboard(summary)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
