// Package discrepancy derives field-level discrepancies across the
// documents linked to a shipment.
//
// The invoice is the anchor: without one there is nothing to reconcile
// against and the engine produces no discrepancies at all. Each pass
// recomputes the full set from scratch; rows are replaced wholesale, never
// patched.
package discrepancy

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/tolerance"
)

// Tolerance bands per compared field.
var (
	totalAmountGreenTol = decimal.Zero
	totalAmountYellowTol = decimal.RequireFromString("0.02")

	weightGreenTol  = decimal.RequireFromString("0.02")
	weightYellowTol = decimal.RequireFromString("0.05")

	fuelGreenTol  = decimal.RequireFromString("0.001")
	fuelYellowTol = decimal.RequireFromString("0.01")
)

const (
	noteTotalExceedsRate   = "Invoice total exceeds agreed rate."
	noteWeightOutOfBand    = "Invoice weight is outside allowed tolerance."
	notePieceCountMismatch = "Piece count mismatch across invoice and BoL."
	noteUnapprovedCharge   = "Accessorial is not on the approved schedule."
	noteNoSchedule         = "Invoiced accessorial has no matching rate confirmation schedule."
)

// Compute compares the shipment's linked documents field by field and
// returns the full discrepancy set for this pass. It never fails on
// missing values; absent data surfaces as yellow severity rows instead.
func Compute(shipment *models.Shipment, documents []*models.Document, now time.Time) []models.Discrepancy {
	invoiceDoc := firstOfType(documents, models.DocTypeInvoice)
	bolDoc := firstOfType(documents, models.DocTypeBOL)
	rateDoc := firstOfType(documents, models.DocTypeRateCon)

	invoice, _ := fieldsOf(invoiceDoc).(*models.InvoiceFields)
	if invoice == nil {
		return nil
	}
	bol, _ := fieldsOf(bolDoc).(*models.BolFields)
	rateCon, _ := fieldsOf(rateDoc).(*models.RateConFields)

	builder := &builder{
		shipmentID:   shipment.ID,
		invoiceDocID: docID(invoiceDoc),
		bolDocID:     docID(bolDoc),
		rateDocID:    docID(rateDoc),
		now:          now,
	}

	if rateCon != nil {
		builder.compareTotalAmount(invoice, rateCon)
	}
	if bol != nil {
		builder.compareWeight(invoice, bol)
		builder.comparePieces(invoice, bol)
	}
	if rateCon != nil {
		builder.compareFuelSurcharge(invoice, rateCon)
		builder.compareAccessorials(invoice, rateCon)
	} else {
		builder.flagUnscheduledAccessorials(invoice)
	}

	return builder.rows
}

type builder struct {
	shipmentID   string
	invoiceDocID *string
	bolDocID     *string
	rateDocID    *string
	now          time.Time
	rows         []models.Discrepancy
}

func (b *builder) compareTotalAmount(invoice *models.InvoiceFields, rateCon *models.RateConFields) {
	result := tolerance.CompareNumeric(invoice.TotalAmount, rateCon.AgreedRate, totalAmountGreenTol, totalAmountYellowTol)
	b.add(models.Discrepancy{
		FieldName:      "total_amount",
		SourceDocID:    b.invoiceDocID,
		CompareDocID:   b.rateDocID,
		SourceValue:    decimalString(invoice.TotalAmount),
		CompareValue:   decimalString(rateCon.AgreedRate),
		VarianceAmount: result.VarianceAmount,
		VariancePct:    result.VariancePct,
		Severity:       result.Severity,
		Notes:          noteIfRed(result.Severity, noteTotalExceedsRate),
	})
}

func (b *builder) compareWeight(invoice *models.InvoiceFields, bol *models.BolFields) {
	invoiceWeight := invoice.LineItemWeight()
	result := tolerance.CompareNumeric(invoiceWeight, bol.Weight, weightGreenTol, weightYellowTol)
	// The weight row carries only the percentage; a pound delta is not a
	// billable amount.
	b.add(models.Discrepancy{
		FieldName:    "weight",
		SourceDocID:  b.invoiceDocID,
		CompareDocID: b.bolDocID,
		SourceValue:  decimalString(invoiceWeight),
		CompareValue: decimalString(bol.Weight),
		VariancePct:  result.VariancePct,
		Severity:     result.Severity,
		Notes:        noteIfRed(result.Severity, noteWeightOutOfBand),
	})
}

func (b *builder) comparePieces(invoice *models.InvoiceFields, bol *models.BolFields) {
	invoicePieces := intString(invoice.LineItemPieces())
	bolPieces := intString(bol.Pieces)
	severity := tolerance.CompareExact(invoicePieces, bolPieces)
	b.add(models.Discrepancy{
		FieldName:    "pieces",
		SourceDocID:  b.invoiceDocID,
		CompareDocID: b.bolDocID,
		SourceValue:  invoicePieces,
		CompareValue: bolPieces,
		Severity:     severity,
		Notes:        noteIfRed(severity, notePieceCountMismatch),
	})
}

func (b *builder) compareFuelSurcharge(invoice *models.InvoiceFields, rateCon *models.RateConFields) {
	result := tolerance.CompareNumeric(invoice.FuelSurchargePct, rateCon.FuelSurchargePct, fuelGreenTol, fuelYellowTol)
	b.add(models.Discrepancy{
		FieldName:      "fuel_surcharge",
		SourceDocID:    b.invoiceDocID,
		CompareDocID:   b.rateDocID,
		SourceValue:    decimalString(invoice.FuelSurchargePct),
		CompareValue:   decimalString(rateCon.FuelSurchargePct),
		VarianceAmount: result.VarianceAmount,
		VariancePct:    result.VariancePct,
		Severity:       result.Severity,
	})
}

// compareAccessorials checks each invoiced accessorial against the rate
// confirmation's approved schedule, matched by code with a description
// fallback. Unmatched charges are red.
func (b *builder) compareAccessorials(invoice *models.InvoiceFields, rateCon *models.RateConFields) {
	approved := make(map[string]struct{}, len(rateCon.AccessorialSchedule))
	for _, item := range rateCon.AccessorialSchedule {
		approved[item.MatchKey()] = struct{}{}
	}

	for _, item := range invoice.Accessorials {
		amount := item.Amount
		_, isApproved := approved[item.MatchKey()]
		severity := models.SeverityGreen
		compareValue := "Approved"
		var notes *string
		if !isApproved {
			severity = models.SeverityRed
			compareValue = "Not approved"
			notes = strPtr(noteUnapprovedCharge)
		}
		b.add(models.Discrepancy{
			FieldName:      "accessorials",
			SourceDocID:    b.invoiceDocID,
			CompareDocID:   b.rateDocID,
			SourceValue:    strPtr(item.MatchKey() + " " + amount.String()),
			CompareValue:   strPtr(compareValue),
			VarianceAmount: &amount,
			Severity:       severity,
			Notes:          notes,
		})
	}
}

// flagUnscheduledAccessorials marks every invoiced accessorial red when no
// rate confirmation is linked at all: there is no approved schedule to
// check against.
func (b *builder) flagUnscheduledAccessorials(invoice *models.InvoiceFields) {
	for _, item := range invoice.Accessorials {
		amount := item.Amount
		b.add(models.Discrepancy{
			FieldName:      "accessorials",
			SourceDocID:    b.invoiceDocID,
			SourceValue:    strPtr(item.MatchKey() + " " + amount.String()),
			CompareValue:   strPtr("No approved schedule"),
			VarianceAmount: &amount,
			Severity:       models.SeverityRed,
			Notes:          strPtr(noteNoSchedule),
		})
	}
}

func (b *builder) add(row models.Discrepancy) {
	row.ID = uuid.NewString()
	row.ShipmentID = b.shipmentID
	row.CreatedAt = b.now
	b.rows = append(b.rows, row)
}

func firstOfType(documents []*models.Document, docType models.DocType) *models.Document {
	for _, doc := range documents {
		if doc.DocType == docType {
			return doc
		}
	}
	return nil
}

func fieldsOf(doc *models.Document) models.ExtractedFields {
	if doc == nil {
		return nil
	}
	return doc.Fields()
}

func docID(doc *models.Document) *string {
	if doc == nil {
		return nil
	}
	id := doc.ID
	return &id
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func intString(i *int) *string {
	if i == nil {
		return nil
	}
	s := strconv.Itoa(*i)
	return &s
}

func noteIfRed(severity models.Severity, note string) *string {
	if severity != models.SeverityRed {
		return nil
	}
	return strPtr(note)
}

func strPtr(s string) *string { return &s }
