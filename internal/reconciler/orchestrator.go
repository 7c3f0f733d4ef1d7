package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"freight-reconciliation-service/internal/lock"
	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/repository"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// Orchestrator wires the reconciliation pass to persistence, locking,
// and the auto-approval policy. Passes for one organization are
// serialized through the locker; the shipment graph is only ever read
// and committed while the organization's lock is held.
type Orchestrator struct {
	repo   repository.Repository
	locker lock.Locker
	log    logger.Logger
	clock  func() time.Time
}

// NewOrchestrator creates an orchestrator. A nil clock defaults to UTC
// wall time.
func NewOrchestrator(repo repository.Repository, locker lock.Locker, log logger.Logger, clock func() time.Time) *Orchestrator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{
		repo:   repo,
		locker: locker,
		log:    log.WithComponent("reconciler"),
		clock:  clock,
	}
}

// Reconcile runs one reconciliation pass for a document and commits the
// outcome. The document must already be extracted.
func (o *Orchestrator) Reconcile(ctx context.Context, orgID, documentID string) (*PassResult, error) {
	release, err := o.locker.Acquire(ctx, "org:"+orgID)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	doc, err := o.repo.GetDocument(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.ExtractedData == nil {
		return nil, apperrors.ExtractionError(apperrors.CodeNotExtracted, documentID, nil)
	}

	graph, err := o.repo.LoadOrganizationGraph(ctx, orgID)
	if err != nil {
		return nil, err
	}
	settings, err := o.repo.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := o.clock()
	result := ReconcileDocument(doc, graph, now)

	audit := o.applyAutoApproval(&result, settings, orgID, now)

	if err := o.repo.CommitReconciliation(ctx, result.Shipment, result.Links, result.Discrepancies, audit); err != nil {
		return nil, err
	}

	log := o.log.WithFields(logger.Fields{
		"organization_id": orgID,
		"document_id":     documentID,
		"shipment_id":     result.Shipment.ID,
		"status":          result.Shipment.Status,
		"confidence":      result.Shipment.MatchConfidence,
		"discrepancies":   len(result.Discrepancies),
		"created":         result.Created,
	})
	if audit != nil {
		log = log.WithField("auto_approved", true)
	}
	log.Info("reconciliation pass committed")

	return &result, nil
}

// applyAutoApproval promotes a clean, confident pass straight to
// approved when the organization has opted in. It returns the audit
// record to commit alongside the pass, or nil.
func (o *Orchestrator) applyAutoApproval(result *PassResult, settings models.OrganizationSettings, orgID string, now time.Time) *models.AuditLogRecord {
	if !settings.AutoApproveEnabled {
		return nil
	}
	level := result.Shipment.DiscrepancyLevel
	if level == nil || *level != models.SeverityGreen {
		return nil
	}
	if result.Shipment.MatchConfidence < settings.AutoApproveConfidenceThreshold {
		return nil
	}

	result.Shipment.Status = models.ShipmentApproved

	resolution := models.ResolutionAutoApproved
	for i := range result.Discrepancies {
		result.Discrepancies[i].Resolution = &resolution
		resolvedAt := now
		result.Discrepancies[i].ResolvedAt = &resolvedAt
	}

	shipmentID := result.Shipment.ID
	return &models.AuditLogRecord{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		ShipmentID:     &shipmentID,
		Action:         models.AuditAutoApproved,
		Details: map[string]any{
			"confidence": result.Shipment.MatchConfidence,
			"threshold":  settings.AutoApproveConfidenceThreshold,
		},
		CreatedAt: now,
	}
}
