package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
)

// MemoryRepository is an in-memory Repository used by tests and the CLI's
// dry-run mode. All operations are safe for concurrent use.
type MemoryRepository struct {
	mu            sync.RWMutex
	documents     map[string]*models.Document
	shipments     map[string]*models.Shipment
	links         []models.ShipmentDocumentLink
	discrepancies map[string][]models.Discrepancy
	audit         []models.AuditLogRecord
	settings      map[string]models.OrganizationSettings
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		documents:     make(map[string]*models.Document),
		shipments:     make(map[string]*models.Shipment),
		discrepancies: make(map[string][]models.Discrepancy),
		settings:      make(map[string]models.OrganizationSettings),
	}
}

func (r *MemoryRepository) SaveDocument(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[doc.ID] = doc
	return nil
}

func (r *MemoryRepository) GetDocument(ctx context.Context, orgID, documentID string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[documentID]
	if !ok || doc.OrganizationID != orgID {
		return nil, apperrors.RepositoryError(apperrors.CodeNotFound, "document", documentID, nil)
	}
	return doc, nil
}

func (r *MemoryRepository) LoadOrganizationGraph(ctx context.Context, orgID string) (*OrganizationGraph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := &OrganizationGraph{Documents: make(map[string]*models.Document)}

	var ids []string
	for id, shipment := range r.shipments {
		if shipment.OrganizationID == orgID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		graph.Shipments = append(graph.Shipments, r.shipments[id].Clone())
	}

	for _, link := range r.links {
		shipment, ok := r.shipments[link.ShipmentID]
		if !ok || shipment.OrganizationID != orgID {
			continue
		}
		graph.Links = append(graph.Links, link)
		if doc, ok := r.documents[link.DocumentID]; ok {
			graph.Documents[doc.ID] = doc
		}
	}

	return graph, nil
}

func (r *MemoryRepository) GetShipment(ctx context.Context, orgID, shipmentID string) (*models.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shipment, ok := r.shipments[shipmentID]
	if !ok || shipment.OrganizationID != orgID {
		return nil, apperrors.RepositoryError(apperrors.CodeNotFound, "shipment", shipmentID, nil)
	}
	return shipment.Clone(), nil
}

func (r *MemoryRepository) ListDiscrepancies(ctx context.Context, shipmentID string) ([]models.Discrepancy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Discrepancy(nil), r.discrepancies[shipmentID]...), nil
}

func (r *MemoryRepository) CommitReconciliation(ctx context.Context, shipment *models.Shipment, links []models.ShipmentDocumentLink, discrepancies []models.Discrepancy, audit *models.AuditLogRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shipments[shipment.ID] = shipment.Clone()

	kept := r.links[:0]
	for _, link := range r.links {
		if link.ShipmentID != shipment.ID {
			kept = append(kept, link)
		}
	}
	r.links = append(kept, links...)

	r.discrepancies[shipment.ID] = append([]models.Discrepancy(nil), discrepancies...)

	if audit != nil {
		r.audit = append(r.audit, *audit)
	}
	return nil
}

func (r *MemoryRepository) CommitAction(ctx context.Context, shipment *models.Shipment, discrepancies []models.Discrepancy, audit *models.AuditLogRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shipments[shipment.ID] = shipment.Clone()

	updated := make(map[string]models.Discrepancy, len(discrepancies))
	for _, d := range discrepancies {
		updated[d.ID] = d
	}
	current := r.discrepancies[shipment.ID]
	for i, d := range current {
		if replacement, ok := updated[d.ID]; ok {
			current[i] = replacement
		}
	}

	if audit != nil {
		r.audit = append(r.audit, *audit)
	}
	return nil
}

func (r *MemoryRepository) GetSettings(ctx context.Context, orgID string) (models.OrganizationSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if settings, ok := r.settings[orgID]; ok {
		return settings, nil
	}
	return models.DefaultOrganizationSettings(), nil
}

func (r *MemoryRepository) SaveSettings(ctx context.Context, orgID string, settings models.OrganizationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[orgID] = settings
	return nil
}

func (r *MemoryRepository) ListAuditLog(ctx context.Context, orgID string, limit int) ([]models.AuditLogRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	var records []models.AuditLogRecord
	for _, record := range r.audit {
		if record.OrganizationID == orgID {
			records = append(records, record)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *MemoryRepository) DashboardSummary(ctx context.Context, orgID string, now time.Time) (*DashboardSummary, error) {
	r.mu.RLock()
	summary := &DashboardSummary{
		DiscrepancyDistribution: map[models.Severity]int{
			models.SeverityGreen:  0,
			models.SeverityYellow: 0,
			models.SeverityRed:    0,
		},
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, doc := range r.documents {
		if doc.OrganizationID == orgID && doc.ProcessedAt != nil && !doc.ProcessedAt.Before(startOfDay) {
			summary.DocumentsProcessedToday++
		}
	}

	for _, shipment := range r.shipments {
		if shipment.OrganizationID != orgID {
			continue
		}
		if shipment.Status == models.ShipmentMatched ||
			(shipment.DiscrepancyLevel != nil && *shipment.DiscrepancyLevel == models.SeverityYellow) {
			summary.PendingReview++
		}
		if shipment.Status == models.ShipmentDisputed {
			summary.DisputesOpen++
		}
		if shipment.DiscrepancyLevel != nil {
			summary.DiscrepancyDistribution[*shipment.DiscrepancyLevel]++
		}
	}

	for _, record := range r.audit {
		if record.OrganizationID == orgID && record.Action == models.AuditAutoApproved {
			summary.AutoApproved++
		}
	}
	r.mu.RUnlock()

	recent, err := r.ListAuditLog(ctx, orgID, 20)
	if err != nil {
		return nil, err
	}
	summary.RecentActivity = recent

	return summary, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
