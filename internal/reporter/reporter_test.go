package reporter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/reconciler"
	"freight-reconciliation-service/internal/repository"
)

func str(s string) *string { return &s }

func sampleResult() *reconciler.PassResult {
	level := models.SeverityRed
	variance := decimal.RequireFromString("0.0909")
	return &reconciler.PassResult{
		Shipment: &models.Shipment{
			ID:               "ship-1",
			OrganizationID:   "org-1",
			BolNumber:        str("BOL4521"),
			Status:           models.ShipmentDisputed,
			MatchConfidence:  88.25,
			DiscrepancyLevel: &level,
		},
		Discrepancies: []models.Discrepancy{
			{
				FieldName:    "total_amount",
				SourceValue:  str("18000"),
				CompareValue: str("16500"),
				VariancePct:  &variance,
				Severity:     models.SeverityRed,
				Notes:        str("Invoice total exceeds agreed rate."),
			},
		},
		LinkedDocuments: []*models.Document{{ID: "doc-1"}, {ID: "doc-2"}},
	}
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := New(&bytes.Buffer{}, OutputFormat("xml"))
	require.Error(t, err)
}

func TestConsoleReconciliationReport(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf, FormatConsole)
	require.NoError(t, err)

	require.NoError(t, r.WriteReconciliation(sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "ship-1")
	assert.Contains(t, out, "disputed")
	assert.Contains(t, out, "BOL4521")
	assert.Contains(t, out, "total_amount")
	assert.Contains(t, out, "18000 vs 16500")
	assert.Contains(t, out, "Invoice total exceeds agreed rate.")
	assert.Contains(t, out, "2 linked")
}

func TestJSONReconciliationReport(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf, FormatJSON)
	require.NoError(t, err)

	require.NoError(t, r.WriteReconciliation(sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	shipment := decoded["Shipment"].(map[string]any)
	assert.Equal(t, "ship-1", shipment["id"])
}

func TestConsoleDashboardReport(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf, FormatConsole)
	require.NoError(t, err)

	summary := &repository.DashboardSummary{
		DocumentsProcessedToday: 12,
		PendingReview:           3,
		AutoApproved:            7,
		DisputesOpen:            2,
		DiscrepancyDistribution: map[models.Severity]int{
			models.SeverityGreen:  8,
			models.SeverityYellow: 3,
			models.SeverityRed:    2,
		},
		RecentActivity: []models.AuditLogRecord{
			{
				Action:     models.AuditAutoApproved,
				ShipmentID: str("ship-9"),
				CreatedAt:  time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC),
			},
		},
	}
	require.NoError(t, r.WriteDashboard(summary))
	out := buf.String()

	assert.Contains(t, out, "Documents processed today:  12")
	assert.Contains(t, out, "Auto-approved:              7")
	assert.Contains(t, out, "green   8")
	assert.Contains(t, out, "auto_approved")
	assert.Contains(t, out, "ship-9")
}
