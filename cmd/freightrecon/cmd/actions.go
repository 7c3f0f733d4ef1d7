package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	actionUser   string
	disputeNotes string
)

var approveCmd = &cobra.Command{
	Use:   "approve <shipment-id>",
	Short: "Manually approve a shipment for payment",
	Long: `Approve settles every open discrepancy on the shipment as manually
approved by the acting user and moves the shipment to approved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if actionUser == "" {
			return fmt.Errorf("--user is required")
		}

		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return NewCLIErrorHandler().Exit(err)
		}
		defer a.Close()

		if err := a.orchestrator.Approve(ctx, cfg.Organization, args[0], actionUser); err != nil {
			return NewCLIErrorHandler().Exit(err)
		}
		fmt.Printf("shipment %s approved\n", args[0])
		return nil
	},
}

var disputeCmd = &cobra.Command{
	Use:   "dispute <shipment-id>",
	Short: "Dispute a shipment's billing",
	Long: `Dispute flags the shipment for carrier follow-up: every open
discrepancy is marked disputed with the given notes and the shipment
moves to disputed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if actionUser == "" {
			return fmt.Errorf("--user is required")
		}

		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return NewCLIErrorHandler().Exit(err)
		}
		defer a.Close()

		if err := a.orchestrator.Dispute(ctx, cfg.Organization, args[0], actionUser, disputeNotes); err != nil {
			return NewCLIErrorHandler().Exit(err)
		}
		fmt.Printf("shipment %s disputed\n", args[0])
		return nil
	},
}

func init() {
	approveCmd.Flags().StringVar(&actionUser, "user", "", "acting user id (required)")
	disputeCmd.Flags().StringVar(&actionUser, "user", "", "acting user id (required)")
	disputeCmd.Flags().StringVar(&disputeNotes, "notes", "", "dispute notes recorded on each discrepancy")
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(disputeCmd)
}
