package extraction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight-reconciliation-service/internal/models"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func TestFallbackClassifyKeywords(t *testing.T) {
	provider := NewFallbackProvider(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want models.DocType
	}{
		{"bill of lading", "STRAIGHT BILL OF LADING - ORIGINAL", models.DocTypeBOL},
		{"invoice", "FREIGHT INVOICE\nAmount Due: $2,741.25", models.DocTypeInvoice},
		{"rate confirmation", "RATE CONFIRMATION\nCarrier: Roadway", models.DocTypeRateCon},
		{"proof of delivery", "Received in good order. Proof of Delivery.", models.DocTypePOD},
		{"accessorial sheet", "Detention charge schedule for Q3", models.DocTypeAccessorial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &models.Document{ID: "doc-1", MimeType: "application/pdf"}
			result, err := provider.Classify(ctx, doc, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.DocType)
			assert.Equal(t, 0.92, result.Confidence)
		})
	}
}

func TestFallbackClassifyFilenameOnly(t *testing.T) {
	// Scanned uploads yield no text; the filename is the only signal.
	provider := NewFallbackProvider(nil)
	ctx := context.Background()

	tests := []struct {
		filename string
		want     models.DocType
	}{
		{"carrier_invoice_2024.pdf", models.DocTypeInvoice},
		{"BOL-4521-signed.pdf", models.DocTypeBOL},
		{"rate-con_RC9001.pdf", models.DocTypeRateCon},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			doc := &models.Document{ID: "doc-1", OriginalFilename: str(tt.filename), MimeType: "application/pdf"}
			result, err := provider.Classify(ctx, doc, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.DocType)
			assert.Equal(t, 0.92, result.Confidence)
		})
	}
}

func TestFallbackClassifyRateConBeatsBol(t *testing.T) {
	// Rate confirmations usually reference a BOL; the more specific
	// marker must win.
	provider := NewFallbackProvider(nil)
	doc := &models.Document{ID: "doc-1", MimeType: "application/pdf"}

	result, err := provider.Classify(context.Background(), doc,
		"RATE CONFIRMATION\nAttach signed bill of lading to invoice")
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeRateCon, result.DocType)
}

func TestFallbackClassifyImageGuessesPod(t *testing.T) {
	provider := NewFallbackProvider(nil)
	doc := &models.Document{ID: "doc-1", MimeType: "image/jpeg"}

	result, err := provider.Classify(context.Background(), doc, "")
	require.NoError(t, err)
	assert.Equal(t, models.DocTypePOD, result.DocType)
	assert.Equal(t, 0.55, result.Confidence)
}

func TestFallbackClassifyUnknown(t *testing.T) {
	provider := NewFallbackProvider(nil)
	doc := &models.Document{ID: "doc-1", MimeType: "application/pdf"}

	result, err := provider.Classify(context.Background(), doc, "quarterly marketing newsletter")
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeUnknown, result.DocType)
	assert.Equal(t, 0.42, result.Confidence)
}

func TestFallbackExtractReturnsEmptyVariantWithWarning(t *testing.T) {
	provider := NewFallbackProvider(nil)
	doc := &models.Document{ID: "doc-1"}

	result, err := provider.Extract(context.Background(), doc, models.DocTypeInvoice, "whatever")
	require.NoError(t, err)
	require.IsType(t, &models.InvoiceFields{}, result.Fields)
	assert.Len(t, result.Fields.Warnings(), 1)
}

func TestStatusForConfidence(t *testing.T) {
	assert.Equal(t, models.DocumentNeedsReview, StatusForConfidence(0.42))
	assert.Equal(t, models.DocumentNeedsReview, StatusForConfidence(0.69))
	assert.Equal(t, models.DocumentExtracted, StatusForConfidence(0.7))
	assert.Equal(t, models.DocumentExtracted, StatusForConfidence(0.92))
}

func TestValidateInvoiceTotalMismatch(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fields := &models.InvoiceFields{
		Subtotal:      dec("2400.00"),
		FuelSurcharge: dec("141.25"),
		Accessorials: []models.Accessorial{
			{Code: str("DET"), Description: "Detention", Amount: decimal.RequireFromString("200.00")},
		},
		TotalAmount: dec("2800.00"),
	}

	ValidateFields(fields, now)
	require.Len(t, fields.Warnings(), 1)
	assert.Contains(t, fields.Warnings()[0], "2800.00")
	assert.Contains(t, fields.Warnings()[0], "2741.25")
}

func TestValidateInvoiceTotalWithinCent(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fields := &models.InvoiceFields{
		Subtotal:    dec("100.00"),
		TotalAmount: dec("100.01"),
	}

	ValidateFields(fields, now)
	assert.Empty(t, fields.Warnings())
}

func TestValidateInvoiceTotalWithMissingSubtotal(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fields := &models.InvoiceFields{
		FuelSurcharge: dec("100.00"),
		Accessorials: []models.Accessorial{
			{Code: str("DET"), Description: "Detention", Amount: decimal.RequireFromString("50.00")},
		},
		TotalAmount: dec("500.00"),
	}

	ValidateFields(fields, now)
	require.Len(t, fields.Warnings(), 1)
	assert.Contains(t, fields.Warnings()[0], "150.00")

	accounted := &models.InvoiceFields{
		FuelSurcharge: dec("100.00"),
		Accessorials: []models.Accessorial{
			{Code: str("DET"), Description: "Detention", Amount: decimal.RequireFromString("50.00")},
		},
		TotalAmount: dec("150.00"),
	}
	ValidateFields(accounted, now)
	assert.Empty(t, accounted.Warnings())
}

func TestValidateInvoiceDateWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	stale := &models.InvoiceFields{InvoiceDate: str("2024-01-15")}
	ValidateFields(stale, now)
	require.Len(t, stale.Warnings(), 1)
	assert.Contains(t, stale.Warnings()[0], "90-day")

	future := &models.InvoiceFields{InvoiceDate: str("2024-07-01")}
	ValidateFields(future, now)
	assert.Len(t, future.Warnings(), 1)

	fresh := &models.InvoiceFields{InvoiceDate: str("2024-05-20")}
	ValidateFields(fresh, now)
	assert.Empty(t, fresh.Warnings())
}

func TestValidateBolWeightAndScac(t *testing.T) {
	fields := &models.BolFields{
		CarrierScac: str("R1DWY"),
		Weight:      dec("52000"),
	}

	ValidateFields(fields, time.Now())
	require.Len(t, fields.Warnings(), 2)
	assert.Contains(t, fields.Warnings()[0], "SCAC")
	assert.Contains(t, fields.Warnings()[1], "48000")
}

func TestValidateScacAcceptsValidCodes(t *testing.T) {
	for _, scac := range []string{"RD", "RDWY", "FXFE"} {
		fields := &models.RateConFields{CarrierScac: str(scac)}
		ValidateFields(fields, time.Now())
		assert.Empty(t, fields.Warnings(), "scac %s", scac)
	}
}

func TestFixtureProviderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fixture := `{
		"doc_type": "invoice",
		"confidence": 0.97,
		"field_confidences": {"total_amount": 0.99},
		"extracted_fields": {
			"invoice_number": "INV-1001",
			"total_amount": "2741.25"
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc-1.json"), []byte(fixture), 0o644))

	provider := NewFixtureProvider(dir, NewFallbackProvider(nil))
	doc := &models.Document{ID: "doc-1", MimeType: "application/pdf"}
	ctx := context.Background()

	classification, err := provider.Classify(ctx, doc, "")
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeInvoice, classification.DocType)
	assert.Equal(t, 0.97, classification.Confidence)

	extraction, err := provider.Extract(ctx, doc, classification.DocType, "")
	require.NoError(t, err)
	invoice, ok := extraction.Fields.(*models.InvoiceFields)
	require.True(t, ok)
	assert.Equal(t, "INV-1001", *invoice.InvoiceNumber)
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("2741.25")))
	assert.Equal(t, 0.99, extraction.FieldConfidences["total_amount"])
}

func TestFixtureProviderFallsThrough(t *testing.T) {
	provider := NewFixtureProvider(t.TempDir(), NewFallbackProvider(nil))
	doc := &models.Document{ID: "missing", MimeType: "application/pdf"}

	result, err := provider.Classify(context.Background(), doc, "BILL OF LADING")
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeBOL, result.DocType)
	assert.Equal(t, 0.92, result.Confidence)
}
