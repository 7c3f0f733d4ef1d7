// Package merge projects a document's extracted fields onto its shipment.
//
// Merging is first-write-wins: a shipment attribute is filled only while it
// is nil, so the set of non-nil reference fields grows monotonically more
// complete over time and a later document can never clobber a value an
// earlier one established.
package merge

import (
	"time"

	"freight-reconciliation-service/internal/models"
)

// ApplyDocumentToShipment returns a copy of shipment with any still-empty
// attributes filled from the document's extracted fields. The updated
// timestamp is always bumped; documents without extracted data pass
// through otherwise unchanged.
func ApplyDocumentToShipment(shipment *models.Shipment, doc *models.Document, now time.Time) *models.Shipment {
	next := shipment.Clone()
	next.UpdatedAt = now

	switch fields := doc.Fields().(type) {
	case *models.BolFields:
		fillStr(&next.BolNumber, fields.BolNumber)
		fillStr(&next.ShipmentRef, fields.PrimaryReference())
		fillStr(&next.ShipperName, fields.ShipperName)
		fillStr(&next.ConsigneeName, fields.ConsigneeName)
		fillStr(&next.CarrierName, fields.CarrierName)
		fillStr(&next.CarrierScac, fields.CarrierScac)
		fillStr(&next.Origin, fields.ShipperAddress)
		fillStr(&next.Destination, fields.ConsigneeAddress)
	case *models.InvoiceFields:
		fillStr(&next.BolNumber, fields.BolReference)
		fillStr(&next.ProNumber, fields.ProNumber)
		fillStr(&next.ShipmentRef, coalesce(fields.ShipperReference, fields.BolReference))
		fillStr(&next.CarrierName, fields.CarrierName)
		fillStr(&next.CarrierScac, fields.CarrierScac)
		fillStr(&next.Origin, fields.Origin.Label())
		fillStr(&next.Destination, fields.Destination.Label())
	case *models.RateConFields:
		fillStr(&next.ShipmentRef, fields.RateConNumber)
		fillStr(&next.CarrierName, fields.CarrierName)
		fillStr(&next.CarrierScac, fields.CarrierScac)
		fillStr(&next.Origin, fields.Origin.Label())
		fillStr(&next.Destination, fields.Destination.Label())
	case *models.PodFields:
		fillStr(&next.BolNumber, fields.BolReference)
	}

	return next
}

// BuildShipmentLinks returns the shipment's link set with the document
// appended under its doc-type role. Appending is idempotent: a document
// already linked leaves the set unchanged.
func BuildShipmentLinks(shipmentID string, doc *models.Document, existing []models.ShipmentDocumentLink) []models.ShipmentDocumentLink {
	links := make([]models.ShipmentDocumentLink, 0, len(existing)+1)
	hasLink := false
	for _, link := range existing {
		if link.ShipmentID != shipmentID {
			continue
		}
		if link.DocumentID == doc.ID {
			hasLink = true
		}
		links = append(links, link)
	}
	if hasLink {
		return links
	}

	return append(links, models.ShipmentDocumentLink{
		ShipmentID: shipmentID,
		DocumentID: doc.ID,
		Role:       doc.Role(),
	})
}

func fillStr(target **string, value *string) {
	if *target != nil {
		return
	}
	if value == nil || *value == "" {
		return
	}
	v := *value
	*target = &v
}

func coalesce(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
