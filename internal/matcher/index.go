package matcher

import (
	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/normalize"
)

// ShipmentIndex provides O(1) lookup of candidate shipments by their
// normalized reference fields. When two shipments share a key the earlier
// one wins, preserving the scan order of the loaded snapshot.
type ShipmentIndex struct {
	byBol map[string]*models.Shipment
	byPro map[string]*models.Shipment
	byRef map[string]*models.Shipment

	// All keeps the original ordering for the fuzzy scan.
	All []*models.Shipment
}

// NewShipmentIndex builds reference indexes over the given shipments.
func NewShipmentIndex(shipments []*models.Shipment) *ShipmentIndex {
	idx := &ShipmentIndex{
		byBol: make(map[string]*models.Shipment, len(shipments)),
		byPro: make(map[string]*models.Shipment, len(shipments)),
		byRef: make(map[string]*models.Shipment, len(shipments)),
		All:   shipments,
	}

	for _, shipment := range shipments {
		indexKey(idx.byBol, normalize.Reference(shipment.BolNumber), shipment)
		indexKey(idx.byPro, normalize.Reference(shipment.ProNumber), shipment)
		indexKey(idx.byRef, normalize.Reference(shipment.ShipmentRef), shipment)
	}
	return idx
}

// ByBol returns the shipment whose normalized BOL number equals key.
func (idx *ShipmentIndex) ByBol(key *string) *models.Shipment {
	return lookup(idx.byBol, key)
}

// ByPro returns the shipment whose normalized PRO number equals key.
func (idx *ShipmentIndex) ByPro(key *string) *models.Shipment {
	return lookup(idx.byPro, key)
}

// ByRef returns the shipment whose normalized shipment reference equals key.
func (idx *ShipmentIndex) ByRef(key *string) *models.Shipment {
	return lookup(idx.byRef, key)
}

// Size returns the number of indexed shipments.
func (idx *ShipmentIndex) Size() int {
	return len(idx.All)
}

func indexKey(m map[string]*models.Shipment, key *string, shipment *models.Shipment) {
	if !present(key) {
		return
	}
	if _, exists := m[*key]; !exists {
		m[*key] = shipment
	}
}

func lookup(m map[string]*models.Shipment, key *string) *models.Shipment {
	if !present(key) {
		return nil
	}
	return m[*key]
}
