// Package matcher finds the shipment a newly extracted document belongs
// to, or seeds a new one when nothing matches.
//
// Matching runs tiered, first hit wins: exact normalized BOL number (98),
// exact PRO number (94), exact shipment reference (90), then a fuzzy
// 2-of-3 signal check over carrier SCAC, origin, and destination. Absence
// of any match is not an error; it is the create-a-new-shipment branch,
// so every document always finds a home.
package matcher

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"freight-reconciliation-service/internal/confidence"
	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/normalize"
)

// Match tier confidences. The fuzzy tier uses a fixed blend independent of
// which two signals matched, preserving the observable confidence values
// existing fixtures rely on.
const (
	ConfidenceBolMatch = 98
	ConfidenceProMatch = 94
	ConfidenceRefMatch = 90
	ConfidenceCreated  = 60
)

// MatchResult reports the shipment selected for a document, the tier
// confidence, and whether the shipment was newly created.
type MatchResult struct {
	Shipment   *models.Shipment
	Confidence float64
	Created    bool
}

// MatchDocument resolves a document against the organization's existing
// shipments. Candidates must already be scoped to the document's
// organization and exclude the document's own prospective id.
func MatchDocument(doc *models.Document, existing []*models.Shipment, now time.Time) MatchResult {
	refs := ExtractReferences(doc)
	idx := NewShipmentIndex(existing)

	if shipment := idx.ByBol(refs.Bol); shipment != nil {
		return MatchResult{Shipment: shipment, Confidence: ConfidenceBolMatch}
	}
	if shipment := idx.ByPro(refs.Pro); shipment != nil {
		return MatchResult{Shipment: shipment, Confidence: ConfidenceProMatch}
	}
	if shipment := idx.ByRef(refs.ShipmentRef); shipment != nil {
		return MatchResult{Shipment: shipment, Confidence: ConfidenceRefMatch}
	}

	if shipment := fuzzyMatch(refs, existing); shipment != nil {
		return MatchResult{
			Shipment: shipment,
			Confidence: confidence.Weighted([]confidence.WeightedScore{
				{Score: 80, Weight: 0.6},
				{Score: 72, Weight: 0.4},
			}),
		}
	}

	return MatchResult{
		Shipment:   seedShipment(doc, refs, now),
		Confidence: ConfidenceCreated,
		Created:    true,
	}
}

// fuzzyMatch returns the first candidate for which at least 2 of 3 signals
// hold: equal carrier SCAC, candidate origin containing the document
// origin, candidate destination containing the document destination.
func fuzzyMatch(refs References, existing []*models.Shipment) *models.Shipment {
	for _, shipment := range existing {
		signals := 0
		if scac := normalize.Scac(shipment.CarrierScac); present(scac) && present(refs.CarrierScac) && *scac == *refs.CarrierScac {
			signals++
		}
		if containsText(shipment.Origin, refs.Origin) {
			signals++
		}
		if containsText(shipment.Destination, refs.Destination) {
			signals++
		}
		if signals >= 2 {
			return shipment
		}
	}
	return nil
}

func containsText(candidate, needle *string) bool {
	normalized := normalize.Text(candidate)
	if !present(normalized) || !present(needle) {
		return false
	}
	return strings.Contains(*normalized, *needle)
}

// seedShipment creates a new pending shipment carrying only the document's
// own normalized references.
func seedShipment(doc *models.Document, refs References, now time.Time) *models.Shipment {
	return &models.Shipment{
		ID:              uuid.NewString(),
		OrganizationID:  doc.OrganizationID,
		ShipmentRef:     nilIfEmpty(refs.ShipmentRef),
		BolNumber:       nilIfEmpty(refs.Bol),
		ProNumber:       nilIfEmpty(refs.Pro),
		CarrierScac:     nilIfEmpty(refs.CarrierScac),
		Status:          models.ShipmentPending,
		MatchConfidence: ConfidenceCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
