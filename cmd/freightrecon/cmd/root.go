package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"freight-reconciliation-service/cmd/freightrecon/config"
	"freight-reconciliation-service/pkg/logger"
)

var (
	cfgFile      string
	verbose      bool
	orgFlag      string
	outputFormat string

	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "freightrecon",
	Short: "Freight paperwork reconciliation tool",
	Long: `Freightrecon matches freight paperwork (bills of lading, carrier
invoices, rate confirmations, proofs of delivery) to shipments, flags
billing discrepancies against agreed rates and tolerances, and drives
shipments through approval or dispute.

Examples:
  freightrecon process invoice.pdf --org org-1
  freightrecon worker --org org-1
  freightrecon approve ship-42 --org org-1 --user user-7
  freightrecon dispute ship-42 --org org-1 --user user-7 --notes "detention billed twice"
  freightrecon dashboard --org org-1`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&orgFlag, "org", "", "organization id (required)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output-format", "", "output format: console or json")
}

// loadConfig builds the effective configuration from the config file,
// environment, and flags. Flags win.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if orgFlag != "" {
		cfg.Organization = orgFlag
	}
	if outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}
	if verbose {
		cfg.Log.Level = string(logger.DebugLevel)
	}
	if cfg.Organization == "" {
		return nil, fmt.Errorf("organization is required: pass --org or set FREIGHTRECON_ORGANIZATION")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return nil, err
	}
	logger.SetGlobalLogger(log)

	return cfg, nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
