package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"freight-reconciliation-service/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the document processing worker",
	Long: `Worker drains the document queue and runs the processing pipeline
for each job. With Redis enabled multiple workers can share one queue;
per-organization locks keep their reconciliation passes from
interleaving. The worker runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return NewCLIErrorHandler().Exit(err)
		}
		defer a.Close()

		a.log.WithField("concurrency", cfg.Worker.Concurrency).Info("worker starting")
		worker := queue.NewWorker(a.queue, a.pipeline.Handle, cfg.Worker.Concurrency, a.log)
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			return NewCLIErrorHandler().Exit(err)
		}
		a.log.Info("worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
