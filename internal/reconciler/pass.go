// Package reconciler runs the reconciliation pipeline: it matches an
// extracted document to a shipment, merges its fields, computes the
// discrepancy set, blends the shipment confidence, and drives the
// shipment status machine. The pass itself is a pure function over the
// organization's shipment graph; the orchestrator wraps it with locking,
// auto-approval, and the transactional commit.
package reconciler

import (
	"time"

	"freight-reconciliation-service/internal/confidence"
	"freight-reconciliation-service/internal/discrepancy"
	"freight-reconciliation-service/internal/matcher"
	"freight-reconciliation-service/internal/merge"
	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/repository"
	"freight-reconciliation-service/internal/tolerance"
)

// Confidence blend weights. The matcher's verdict dominates; the
// classifier's certainty and the discrepancy outcome refine it.
const (
	weightMatcher     = 0.5
	weightClassifier  = 0.25
	weightDiscrepancy = 0.25
)

// Discrepancy-derived confidence inputs. No computable discrepancies
// means limited evidence, which scores below a clean green outcome.
const (
	derivedNoData = 70
	derivedGreen  = 98
	derivedYellow = 84
	derivedRed    = 65
)

// PassResult is the outcome of one reconciliation pass, ready to commit.
type PassResult struct {
	Shipment      *models.Shipment
	Links         []models.ShipmentDocumentLink
	Discrepancies []models.Discrepancy
	// LinkedDocuments is every document attached to the shipment after
	// this pass, the triggering document included.
	LinkedDocuments []*models.Document
	// Created reports whether the pass seeded a new shipment.
	Created bool
}

// ReconcileDocument runs a full pass for one document against the
// organization's current graph. It never mutates the graph; the caller
// commits the result.
func ReconcileDocument(doc *models.Document, graph *repository.OrganizationGraph, now time.Time) PassResult {
	match := matcher.MatchDocument(doc, graph.Shipments, now)

	shipment := merge.ApplyDocumentToShipment(match.Shipment, doc, now)
	links := merge.BuildShipmentLinks(shipment.ID, doc, graph.Links)

	linked := graph.LinkedDocuments(shipment.ID)
	if !containsDocument(linked, doc.ID) {
		linked = append(linked, doc)
	}

	discrepancies := discrepancy.Compute(shipment, linked, now)

	shipment.DiscrepancyLevel = nil
	if len(discrepancies) > 0 {
		level := tolerance.WorstSeverity(severities(discrepancies))
		shipment.DiscrepancyLevel = &level
	}

	shipment.MatchConfidence = confidence.Weighted([]confidence.WeightedScore{
		{Score: match.Confidence, Weight: weightMatcher},
		{Score: doc.DocTypeConfidence * 100, Weight: weightClassifier},
		{Score: derivedScore(shipment.DiscrepancyLevel), Weight: weightDiscrepancy},
	})

	shipment.Status = nextStatus(shipment.DiscrepancyLevel, len(linked))

	return PassResult{
		Shipment:        shipment,
		Links:           links,
		Discrepancies:   discrepancies,
		LinkedDocuments: linked,
		Created:         match.Created,
	}
}

func nextStatus(level *models.Severity, linkedDocs int) models.ShipmentStatus {
	if level != nil && *level == models.SeverityRed {
		return models.ShipmentDisputed
	}
	if linkedDocs > 1 {
		return models.ShipmentMatched
	}
	return models.ShipmentPending
}

func derivedScore(level *models.Severity) float64 {
	if level == nil {
		return derivedNoData
	}
	switch *level {
	case models.SeverityGreen:
		return derivedGreen
	case models.SeverityYellow:
		return derivedYellow
	default:
		return derivedRed
	}
}

func severities(discrepancies []models.Discrepancy) []models.Severity {
	out := make([]models.Severity, len(discrepancies))
	for i, d := range discrepancies {
		out[i] = d.Severity
	}
	return out
}

func containsDocument(docs []*models.Document, id string) bool {
	for _, d := range docs {
		if d.ID == id {
			return true
		}
	}
	return false
}
