// Package reporter renders reconciliation outcomes for the CLI: a
// per-shipment detail view after a processing run and the organization
// dashboard summary.
//
// Supported output formats:
//   - Console: human-readable output for terminal display
//   - JSON: structured data for programmatic consumption
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/reconciler"
	"freight-reconciliation-service/internal/repository"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// Reporter writes reconciliation reports to an output stream.
type Reporter struct {
	out    io.Writer
	format OutputFormat
}

// New creates a reporter writing to out in the given format.
func New(out io.Writer, format OutputFormat) (*Reporter, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("invalid output format: %s", format)
	}
	return &Reporter{out: out, format: format}, nil
}

// WriteReconciliation renders the outcome of one reconciliation pass.
func (r *Reporter) WriteReconciliation(result *reconciler.PassResult) error {
	if r.format == FormatJSON {
		return r.writeJSON(result)
	}
	return r.writeReconciliationConsole(result)
}

// WriteDashboard renders the organization dashboard summary.
func (r *Reporter) WriteDashboard(summary *repository.DashboardSummary) error {
	if r.format == FormatJSON {
		return r.writeJSON(summary)
	}
	return r.writeDashboardConsole(summary)
}

func (r *Reporter) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Reporter) writeReconciliationConsole(result *reconciler.PassResult) error {
	var b strings.Builder
	shipment := result.Shipment

	b.WriteString("=== Reconciliation Result ===\n")
	fmt.Fprintf(&b, "Shipment:    %s", shipment.ID)
	if result.Created {
		b.WriteString(" (new)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Status:      %s\n", shipment.Status)
	fmt.Fprintf(&b, "Confidence:  %.1f\n", shipment.MatchConfidence)
	if shipment.DiscrepancyLevel != nil {
		fmt.Fprintf(&b, "Level:       %s\n", *shipment.DiscrepancyLevel)
	} else {
		b.WriteString("Level:       -\n")
	}
	if shipment.BolNumber != nil {
		fmt.Fprintf(&b, "BOL:         %s\n", *shipment.BolNumber)
	}
	if shipment.ProNumber != nil {
		fmt.Fprintf(&b, "PRO:         %s\n", *shipment.ProNumber)
	}
	fmt.Fprintf(&b, "Documents:   %d linked\n", len(result.LinkedDocuments))

	if len(result.Discrepancies) > 0 {
		b.WriteString("\nDiscrepancies:\n")
		for _, d := range result.Discrepancies {
			fmt.Fprintf(&b, "  [%-6s] %-18s %s vs %s",
				d.Severity, d.FieldName, valueOrDash(d.SourceValue), valueOrDash(d.CompareValue))
			if d.VariancePct != nil {
				fmt.Fprintf(&b, "  (%.2f%%)", d.VariancePct.InexactFloat64()*100)
			}
			b.WriteString("\n")
			if d.Notes != nil {
				fmt.Fprintf(&b, "           %s\n", *d.Notes)
			}
		}
	} else {
		b.WriteString("\nNo discrepancies computed.\n")
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *Reporter) writeDashboardConsole(summary *repository.DashboardSummary) error {
	var b strings.Builder

	b.WriteString("=== Dashboard ===\n")
	fmt.Fprintf(&b, "Documents processed today:  %d\n", summary.DocumentsProcessedToday)
	fmt.Fprintf(&b, "Pending review:             %d\n", summary.PendingReview)
	fmt.Fprintf(&b, "Auto-approved:              %d\n", summary.AutoApproved)
	fmt.Fprintf(&b, "Open disputes:              %d\n", summary.DisputesOpen)

	b.WriteString("\nDiscrepancy distribution:\n")
	for _, level := range []models.Severity{models.SeverityGreen, models.SeverityYellow, models.SeverityRed} {
		fmt.Fprintf(&b, "  %-7s %d\n", level, summary.DiscrepancyDistribution[level])
	}

	if len(summary.RecentActivity) > 0 {
		b.WriteString("\nRecent activity:\n")
		for _, record := range summary.RecentActivity {
			shipment := "-"
			if record.ShipmentID != nil {
				shipment = *record.ShipmentID
			}
			fmt.Fprintf(&b, "  %s  %-13s  shipment %s\n",
				record.CreatedAt.Format("2006-01-02 15:04"), record.Action, shipment)
		}
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func valueOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
