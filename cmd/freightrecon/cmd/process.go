package cmd

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/spf13/cobra"

	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/reporter"
)

var processSource string

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Ingest and reconcile freight paperwork",
	Long: `Process registers one or more paperwork files, classifies and
extracts them, and runs a reconciliation pass for each. Documents whose
classification is uncertain are flagged for review; the uncertainty is
carried into the shipment's match confidence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		source := models.DocumentSource(processSource)
		if !source.IsValid() {
			return fmt.Errorf("invalid source %q, want upload, email, or api", processSource)
		}

		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return NewCLIErrorHandler().Exit(err)
		}
		defer a.Close()

		rep, err := a.newReporter()
		if err != nil {
			return err
		}

		handler := NewCLIErrorHandler()
		for _, path := range args {
			if err := processFile(ctx, a, path, source, rep); err != nil {
				return handler.Exit(err)
			}
		}
		return nil
	},
}

func processFile(ctx context.Context, a *app, path string, source models.DocumentSource, rep *reporter.Reporter) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	name := filepath.Base(abs)

	doc := &models.Document{
		OrganizationID:   a.cfg.Organization,
		Source:           source,
		OriginalFilename: &name,
		StoragePath:      abs,
		MimeType:         guessMimeType(abs),
	}
	if err := a.pipeline.Intake(ctx, doc); err != nil {
		return err
	}

	job, err := a.queue.Dequeue(ctx)
	if err != nil {
		return err
	}
	result, err := a.pipeline.HandleResult(ctx, job)
	if err != nil {
		return err
	}

	processed, err := a.repo.GetDocument(ctx, doc.OrganizationID, doc.ID)
	if err == nil && processed.Status == models.DocumentNeedsReview {
		fmt.Printf("%s: classification uncertain, flagged for review (doc %s)\n", name, doc.ID)
	}
	return rep.WriteReconciliation(result)
}

func init() {
	processCmd.Flags().StringVar(&processSource, "source", string(models.SourceUpload), "document source: upload, email, or api")
	rootCmd.AddCommand(processCmd)
}

func guessMimeType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
