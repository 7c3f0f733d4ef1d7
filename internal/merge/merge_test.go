package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight-reconciliation-service/internal/models"
)

func strPtr(s string) *string { return &s }

func docWithFields(id string, docType models.DocType, fields models.ExtractedFields) *models.Document {
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

func TestApplyDocumentToShipment_FillsEmptyFieldsFromBol(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	shipment := &models.Shipment{ID: "ship-1", OrganizationID: "org-1", Status: models.ShipmentPending}
	doc := docWithFields("doc-bol", models.DocTypeBOL, &models.BolFields{
		BolNumber:        strPtr("BOL-4521"),
		ShipperName:      strPtr("Acme Steel"),
		ShipperAddress:   strPtr("100 Mill Rd, Chicago, IL"),
		ConsigneeName:    strPtr("Lone Star Dist"),
		ConsigneeAddress: strPtr("2 Port Way, Dallas, TX"),
		CarrierName:      strPtr("Roadway"),
		CarrierScac:      strPtr("RDWY"),
		ReferenceNumbers: []string{"CUST-88"},
	})

	next := ApplyDocumentToShipment(shipment, doc, now)

	assert.Equal(t, "BOL-4521", *next.BolNumber)
	assert.Equal(t, "CUST-88", *next.ShipmentRef)
	assert.Equal(t, "Acme Steel", *next.ShipperName)
	assert.Equal(t, "Lone Star Dist", *next.ConsigneeName)
	assert.Equal(t, "Roadway", *next.CarrierName)
	assert.Equal(t, "RDWY", *next.CarrierScac)
	assert.Equal(t, "100 Mill Rd, Chicago, IL", *next.Origin)
	assert.Equal(t, "2 Port Way, Dallas, TX", *next.Destination)
	assert.Equal(t, now, next.UpdatedAt)

	// Input shipment is untouched.
	assert.Nil(t, shipment.BolNumber)
}

func TestApplyDocumentToShipment_NeverOverwritesNonNil(t *testing.T) {
	shipment := &models.Shipment{
		ID:             "ship-1",
		OrganizationID: "org-1",
		Status:         models.ShipmentMatched,
		BolNumber:      strPtr("BOL-ORIGINAL"),
		CarrierName:    strPtr("Original Carrier"),
		Origin:         strPtr("Original Origin"),
	}
	doc := docWithFields("doc-inv", models.DocTypeInvoice, &models.InvoiceFields{
		InvoiceNumber: strPtr("INV-9"),
		BolReference:  strPtr("BOL-OTHER"),
		ProNumber:     strPtr("PRO-123"),
		CarrierName:   strPtr("Other Carrier"),
		Origin:        models.Location{City: strPtr("Chicago"), State: strPtr("IL")},
		Destination:   models.Location{City: strPtr("Dallas"), State: strPtr("TX")},
	})

	next := ApplyDocumentToShipment(shipment, doc, time.Now())

	assert.Equal(t, "BOL-ORIGINAL", *next.BolNumber)
	assert.Equal(t, "Original Carrier", *next.CarrierName)
	assert.Equal(t, "Original Origin", *next.Origin)
	// Empty fields still fill.
	assert.Equal(t, "PRO-123", *next.ProNumber)
	assert.Equal(t, "Dallas, TX", *next.Destination)
}

func TestApplyDocumentToShipment_InvoiceLocationLabels(t *testing.T) {
	shipment := &models.Shipment{ID: "ship-1", OrganizationID: "org-1", Status: models.ShipmentPending}
	doc := docWithFields("doc-inv", models.DocTypeInvoice, &models.InvoiceFields{
		InvoiceNumber: strPtr("INV-9"),
		Origin:        models.Location{City: strPtr("Chicago")},
		Destination:   models.Location{},
	})

	next := ApplyDocumentToShipment(shipment, doc, time.Now())

	require.NotNil(t, next.Origin)
	assert.Equal(t, "Chicago", *next.Origin)
	assert.Nil(t, next.Destination)
}

func TestApplyDocumentToShipment_NoExtractedDataOnlyBumpsTimestamp(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	shipment := &models.Shipment{ID: "ship-1", OrganizationID: "org-1", Status: models.ShipmentPending}
	doc := &models.Document{ID: "doc-raw", OrganizationID: "org-1", Source: models.SourceEmail, Status: models.DocumentPending}

	next := ApplyDocumentToShipment(shipment, doc, now)

	assert.Equal(t, now, next.UpdatedAt)
	assert.Nil(t, next.BolNumber)
	assert.Nil(t, next.ShipmentRef)
}

func TestApplyDocumentToShipment_PodOnlyFillsBolNumber(t *testing.T) {
	shipment := &models.Shipment{ID: "ship-1", OrganizationID: "org-1", Status: models.ShipmentPending}
	doc := docWithFields("doc-pod", models.DocTypePOD, &models.PodFields{
		BolReference: strPtr("BOL-4521"),
		ReceiverName: strPtr("J. Alvarez"),
	})

	next := ApplyDocumentToShipment(shipment, doc, time.Now())

	assert.Equal(t, "BOL-4521", *next.BolNumber)
	assert.Nil(t, next.ShipmentRef)
	assert.Nil(t, next.ConsigneeName)
}

func TestBuildShipmentLinks_AppendsUnderDocTypeRole(t *testing.T) {
	doc := docWithFields("doc-inv", models.DocTypeInvoice, &models.InvoiceFields{})
	existing := []models.ShipmentDocumentLink{
		{ShipmentID: "ship-1", DocumentID: "doc-bol", Role: models.DocTypeBOL},
		{ShipmentID: "ship-other", DocumentID: "doc-x", Role: models.DocTypePOD},
	}

	links := BuildShipmentLinks("ship-1", doc, existing)

	require.Len(t, links, 2)
	assert.Equal(t, "doc-bol", links[0].DocumentID)
	assert.Equal(t, "doc-inv", links[1].DocumentID)
	assert.Equal(t, models.DocTypeInvoice, links[1].Role)
}

func TestBuildShipmentLinks_Idempotent(t *testing.T) {
	doc := docWithFields("doc-inv", models.DocTypeInvoice, &models.InvoiceFields{})
	existing := []models.ShipmentDocumentLink{
		{ShipmentID: "ship-1", DocumentID: "doc-inv", Role: models.DocTypeInvoice},
	}

	links := BuildShipmentLinks("ship-1", doc, existing)
	require.Len(t, links, 1)

	// A second pass over its own output changes nothing either.
	again := BuildShipmentLinks("ship-1", doc, links)
	assert.Equal(t, links, again)
}

func TestBuildShipmentLinks_UnclassifiedDocumentGetsUnknownRole(t *testing.T) {
	doc := &models.Document{ID: "doc-mystery", OrganizationID: "org-1", Source: models.SourceEmail, Status: models.DocumentExtracted}

	links := BuildShipmentLinks("ship-1", doc, nil)

	require.Len(t, links, 1)
	assert.Equal(t, models.DocTypeUnknown, links[0].Role)
}
