// Package repository persists documents, shipments, links, discrepancies,
// and audit records, and provides the transactional commit operations the
// reconciliation orchestrator depends on. Two implementations exist: a
// SQLite-backed store for real use and an in-memory store for tests.
package repository

import (
	"context"
	"time"

	"freight-reconciliation-service/internal/models"
)

// OrganizationGraph is the reconciliation working set for one
// organization: every shipment, every shipment-document link, and the
// documents those links point at.
type OrganizationGraph struct {
	Shipments []*models.Shipment
	Links     []models.ShipmentDocumentLink
	// Documents is keyed by document ID and covers every linked document.
	Documents map[string]*models.Document
}

// LinkedDocuments returns the documents linked to the given shipment, in
// link order.
func (g *OrganizationGraph) LinkedDocuments(shipmentID string) []*models.Document {
	var docs []*models.Document
	for _, link := range g.Links {
		if link.ShipmentID != shipmentID {
			continue
		}
		if doc, ok := g.Documents[link.DocumentID]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// DashboardSummary aggregates the operational state of one organization.
type DashboardSummary struct {
	DocumentsProcessedToday int                     `json:"documents_processed_today"`
	PendingReview           int                     `json:"pending_review"`
	AutoApproved            int                     `json:"auto_approved"`
	DisputesOpen            int                     `json:"disputes_open"`
	DiscrepancyDistribution map[models.Severity]int `json:"discrepancy_distribution"`
	RecentActivity          []models.AuditLogRecord `json:"recent_activity"`
}

// Repository is the persistence contract. All write operations that span
// multiple records are transactional: either everything commits or
// nothing does.
type Repository interface {
	// SaveDocument inserts or replaces a document, including its latest
	// extraction.
	SaveDocument(ctx context.Context, doc *models.Document) error

	// GetDocument fetches a document scoped to an organization.
	GetDocument(ctx context.Context, orgID, documentID string) (*models.Document, error)

	// LoadOrganizationGraph loads the full reconciliation working set for
	// an organization.
	LoadOrganizationGraph(ctx context.Context, orgID string) (*OrganizationGraph, error)

	// GetShipment fetches a shipment scoped to an organization.
	GetShipment(ctx context.Context, orgID, shipmentID string) (*models.Shipment, error)

	// ListDiscrepancies returns the current discrepancy set for a shipment.
	ListDiscrepancies(ctx context.Context, shipmentID string) ([]models.Discrepancy, error)

	// CommitReconciliation atomically upserts the shipment, replaces its
	// link set and discrepancy set wholesale, and appends the audit record
	// when one is present.
	CommitReconciliation(ctx context.Context, shipment *models.Shipment, links []models.ShipmentDocumentLink, discrepancies []models.Discrepancy, audit *models.AuditLogRecord) error

	// CommitAction atomically updates the shipment, rewrites the given
	// discrepancies in place, and appends the audit record. Used by the
	// approve and dispute actions, which resolve discrepancies without
	// recomputing them.
	CommitAction(ctx context.Context, shipment *models.Shipment, discrepancies []models.Discrepancy, audit *models.AuditLogRecord) error

	// GetSettings returns the organization's reconciliation settings,
	// falling back to defaults when none are stored.
	GetSettings(ctx context.Context, orgID string) (models.OrganizationSettings, error)

	// SaveSettings stores the organization's reconciliation settings.
	SaveSettings(ctx context.Context, orgID string, settings models.OrganizationSettings) error

	// ListAuditLog returns the most recent audit entries for an
	// organization, newest first.
	ListAuditLog(ctx context.Context, orgID string, limit int) ([]models.AuditLogRecord, error)

	// DashboardSummary computes the operational summary for an
	// organization as of now.
	DashboardSummary(ctx context.Context, orgID string, now time.Time) (*DashboardSummary, error)

	// Close releases the underlying storage.
	Close() error
}
