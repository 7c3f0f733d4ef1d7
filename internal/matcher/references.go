package matcher

import (
	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/normalize"
)

// References is the canonical, normalized reference tuple a document
// contributes to shipment matching. Every field may be absent; an empty
// string counts as absent too.
type References struct {
	Bol         *string
	Pro         *string
	ShipmentRef *string
	CarrierScac *string
	Origin      *string
	Destination *string
}

// ExtractReferences derives the reference tuple from a document's extracted
// field variant, dispatched by the variant tag. Documents without extracted
// data contribute nothing.
func ExtractReferences(doc *models.Document) References {
	switch fields := doc.Fields().(type) {
	case *models.BolFields:
		return References{
			Bol:         normalize.Reference(fields.BolNumber),
			ShipmentRef: normalize.Reference(fields.PrimaryReference()),
			CarrierScac: normalize.Scac(fields.CarrierScac),
			Origin:      normalize.Text(fields.ShipperName),
			Destination: normalize.Text(fields.ConsigneeName),
		}
	case *models.InvoiceFields:
		shipmentRef := fields.ShipperReference
		if shipmentRef == nil {
			shipmentRef = fields.BolReference
		}
		return References{
			Bol:         normalize.Reference(fields.BolReference),
			Pro:         normalize.Reference(fields.ProNumber),
			ShipmentRef: normalize.Reference(shipmentRef),
			CarrierScac: normalize.Scac(fields.CarrierScac),
			Origin:      normalize.Text(fields.Origin.City),
			Destination: normalize.Text(fields.Destination.City),
		}
	case *models.RateConFields:
		return References{
			ShipmentRef: normalize.Reference(fields.RateConNumber),
			CarrierScac: normalize.Scac(fields.CarrierScac),
			Origin:      normalize.Text(fields.Origin.City),
			Destination: normalize.Text(fields.Destination.City),
		}
	case *models.PodFields:
		// A POD only carries the BOL it was delivered against.
		return References{
			Bol:         normalize.Reference(fields.BolReference),
			ShipmentRef: normalize.Reference(fields.BolReference),
		}
	default:
		return References{}
	}
}

func present(value *string) bool {
	return value != nil && *value != ""
}

func nilIfEmpty(value *string) *string {
	if !present(value) {
		return nil
	}
	return value
}
