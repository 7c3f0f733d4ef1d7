package discrepancy

import (
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

func intPtr(i int) *int { return &i }

func doc(id string, docType models.DocType, fields models.ExtractedFields) *models.Document {
	return &models.Document{
		ID:             id,
		OrganizationID: "org-1",
		Source:         models.SourceUpload,
		Status:         models.DocumentExtracted,
		DocType:        docType,
		ExtractedData: &models.ExtractedData{
			DocumentID: id,
			DocType:    docType,
			Fields:     fields,
		},
	}
}

func matchedInvoice() *models.Document {
	return doc("doc-inv", models.DocTypeInvoice, &models.InvoiceFields{
		InvoiceNumber: strPtr("INV-1001"),
		LineItems: []models.InvoiceLineItem{
			{Description: "Steel coils", Pieces: intPtr(12), Weight: dec("30000")},
			{Description: "Pallets", Pieces: intPtr(10), Weight: dec("12000")},
		},
		FuelSurchargePct: dec("0.22"),
		TotalAmount:      dec("2741.25"),
		Accessorials: []models.Accessorial{
			{Code: strPtr("DET"), Description: "Detention", Amount: decimal.NewFromInt(200)},
		},
	})
}

func matchedBol() *models.Document {
	return doc("doc-bol", models.DocTypeBOL, &models.BolFields{
		BolNumber: strPtr("BOL-4521"),
		Pieces:    intPtr(22),
		Weight:    dec("42000"),
	})
}

func matchedRateCon() *models.Document {
	return doc("doc-rc", models.DocTypeRateCon, &models.RateConFields{
		RateConNumber:    strPtr("RC-310"),
		AgreedRate:       dec("2741.25"),
		FuelSurchargePct: dec("0.22"),
		AccessorialSchedule: []models.ScheduledAccessorial{
			{Code: strPtr("DET"), Description: "Detention", Amount: dec("200")},
		},
	})
}

func shipment() *models.Shipment {
	return &models.Shipment{ID: "ship-1", OrganizationID: "org-1", Status: models.ShipmentMatched}
}

func bySeverity(rows []models.Discrepancy) map[string]models.Severity {
	out := make(map[string]models.Severity)
	for _, row := range rows {
		out[row.FieldName] = row.Severity
	}
	return out
}

func TestCompute_NoInvoiceMeansNoDiscrepancies(t *testing.T) {
	rows := Compute(shipment(), []*models.Document{matchedBol(), matchedRateCon()}, time.Now())
	assert.Empty(t, rows)
}

func TestCompute_FullyMatchedSetIsAllGreen(t *testing.T) {
	rows := Compute(shipment(), []*models.Document{matchedInvoice(), matchedBol(), matchedRateCon()}, time.Now())

	// total_amount, weight, pieces, fuel_surcharge, one accessorial.
	require.Len(t, rows, 5)
	for _, row := range rows {
		assert.Equal(t, models.SeverityGreen, row.Severity, "field %s", row.FieldName)
		assert.Nil(t, row.Resolution)
	}
}

func TestCompute_TotalAmountAgainstAgreedRate(t *testing.T) {
	invoice := matchedInvoice()
	invoice.ExtractedData.Fields.(*models.InvoiceFields).TotalAmount = dec("2790")

	rows := Compute(shipment(), []*models.Document{invoice, matchedRateCon()}, time.Now())

	var total *models.Discrepancy
	for i := range rows {
		if rows[i].FieldName == "total_amount" {
			total = &rows[i]
		}
	}
	require.NotNil(t, total)
	// 48.75 over 2741.25 is ~1.8%: above the zero green band, inside 2%.
	assert.Equal(t, models.SeverityYellow, total.Severity)
	assert.Equal(t, "doc-inv", *total.SourceDocID)
	assert.Equal(t, "doc-rc", *total.CompareDocID)
	assert.Equal(t, "2790", *total.SourceValue)
	assert.Equal(t, "2741.25", *total.CompareValue)
	require.NotNil(t, total.VarianceAmount)
	assert.True(t, total.VarianceAmount.Equal(decimal.RequireFromString("48.75")))
	assert.Nil(t, total.Notes)
}

func TestCompute_WeightVarianceRed(t *testing.T) {
	invoice := doc("doc-inv", models.DocTypeInvoice, &models.InvoiceFields{
		InvoiceNumber: strPtr("INV-2"),
		LineItems: []models.InvoiceLineItem{
			{Description: "Freight", Weight: dec("18000")},
		},
	})
	bol := doc("doc-bol", models.DocTypeBOL, &models.BolFields{
		BolNumber: strPtr("BOL-2"),
		Weight:    dec("16500"),
	})

	rows := Compute(shipment(), []*models.Document{invoice, bol}, time.Now())

	severities := bySeverity(rows)
	assert.Equal(t, models.SeverityRed, severities["weight"])

	for _, row := range rows {
		if row.FieldName == "weight" {
			require.NotNil(t, row.VariancePct)
			// 1500/16500 = 0.0909...
			assert.True(t, row.VariancePct.Sub(decimal.RequireFromString("0.0909")).Abs().
				LessThan(decimal.RequireFromString("0.0001")))
			assert.Nil(t, row.VarianceAmount, "weight rows report only the percentage variance")
			require.NotNil(t, row.Notes)
			assert.Equal(t, noteWeightOutOfBand, *row.Notes)
		}
	}
}

func TestCompute_PiecesExactMismatch(t *testing.T) {
	invoice := matchedInvoice()
	bol := matchedBol()
	bol.ExtractedData.Fields.(*models.BolFields).Pieces = intPtr(23)

	rows := Compute(shipment(), []*models.Document{invoice, bol}, time.Now())

	severities := bySeverity(rows)
	assert.Equal(t, models.SeverityRed, severities["pieces"])
}

func TestCompute_MissingBolWeightIsYellowNotError(t *testing.T) {
	invoice := matchedInvoice()
	bol := matchedBol()
	bol.ExtractedData.Fields.(*models.BolFields).Weight = nil

	rows := Compute(shipment(), []*models.Document{invoice, bol}, time.Now())

	severities := bySeverity(rows)
	assert.Equal(t, models.SeverityYellow, severities["weight"])
}

func TestCompute_UnapprovedAccessorialIsRedWithNote(t *testing.T) {
	invoice := matchedInvoice()
	rateCon := matchedRateCon()
	rateCon.ExtractedData.Fields.(*models.RateConFields).AccessorialSchedule = []models.ScheduledAccessorial{
		{Code: strPtr("FSC"), Description: "Fuel surcharge", Amount: dec("100")},
	}

	rows := Compute(shipment(), []*models.Document{invoice, rateCon}, time.Now())

	var accessorial *models.Discrepancy
	for i := range rows {
		if rows[i].FieldName == "accessorials" {
			accessorial = &rows[i]
		}
	}
	require.NotNil(t, accessorial)
	assert.Equal(t, models.SeverityRed, accessorial.Severity)
	assert.Equal(t, "DET 200", *accessorial.SourceValue)
	assert.Equal(t, "Not approved", *accessorial.CompareValue)
	require.NotNil(t, accessorial.Notes)
	assert.Equal(t, noteUnapprovedCharge, *accessorial.Notes)
	require.NotNil(t, accessorial.VarianceAmount)
	assert.True(t, accessorial.VarianceAmount.Equal(decimal.NewFromInt(200)))
}

func TestCompute_AccessorialMatchesByDescriptionWhenCodeAbsent(t *testing.T) {
	invoice := matchedInvoice()
	invoice.ExtractedData.Fields.(*models.InvoiceFields).Accessorials = []models.Accessorial{
		{Description: "Liftgate", Amount: decimal.NewFromInt(75)},
	}
	rateCon := matchedRateCon()
	rateCon.ExtractedData.Fields.(*models.RateConFields).AccessorialSchedule = []models.ScheduledAccessorial{
		{Description: "Liftgate", Amount: dec("75")},
	}

	rows := Compute(shipment(), []*models.Document{invoice, rateCon}, time.Now())

	severities := bySeverity(rows)
	assert.Equal(t, models.SeverityGreen, severities["accessorials"])
}

func TestCompute_NoRateConMakesEveryAccessorialRed(t *testing.T) {
	invoice := matchedInvoice()
	invoice.ExtractedData.Fields.(*models.InvoiceFields).Accessorials = []models.Accessorial{
		{Code: strPtr("DET"), Description: "Detention", Amount: decimal.NewFromInt(200)},
		{Code: strPtr("LG"), Description: "Liftgate", Amount: decimal.NewFromInt(75)},
	}

	rows := Compute(shipment(), []*models.Document{invoice, matchedBol()}, time.Now())

	count := 0
	for _, row := range rows {
		if row.FieldName == "accessorials" {
			count++
			assert.Equal(t, models.SeverityRed, row.Severity)
			assert.Nil(t, row.CompareDocID)
			assert.Equal(t, "No approved schedule", *row.CompareValue)
			require.NotNil(t, row.Notes)
			assert.Equal(t, noteNoSchedule, *row.Notes)
		}
	}
	assert.Equal(t, 2, count)
}

func TestCompute_FirstDocumentOfEachTypeWins(t *testing.T) {
	firstBol := matchedBol()
	secondBol := doc("doc-bol-2", models.DocTypeBOL, &models.BolFields{
		BolNumber: strPtr("BOL-OTHER"),
		Weight:    dec("1"),
	})

	rows := Compute(shipment(), []*models.Document{matchedInvoice(), firstBol, secondBol}, time.Now())

	for _, row := range rows {
		if row.FieldName == "weight" {
			assert.Equal(t, "doc-bol", *row.CompareDocID)
			assert.Equal(t, models.SeverityGreen, row.Severity)
		}
	}
}
