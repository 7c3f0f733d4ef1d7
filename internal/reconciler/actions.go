package reconciler

import (
	"context"

	"github.com/google/uuid"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// Approve settles a shipment manually: every discrepancy is marked
// manually approved by the acting user and the shipment moves to
// approved.
func (o *Orchestrator) Approve(ctx context.Context, orgID, shipmentID, userID string) error {
	release, err := o.locker.Acquire(ctx, "org:"+orgID)
	if err != nil {
		return err
	}
	defer release(ctx)

	shipment, err := o.repo.GetShipment(ctx, orgID, shipmentID)
	if err != nil {
		return err
	}
	if shipment.Status == models.ShipmentPaid {
		return apperrors.ValidationError(apperrors.CodeInvalidStatus, "status", shipment.Status, nil)
	}

	discrepancies, err := o.repo.ListDiscrepancies(ctx, shipmentID)
	if err != nil {
		return err
	}

	now := o.clock()
	shipment.Status = models.ShipmentApproved
	shipment.UpdatedAt = now

	resolution := models.ResolutionManuallyApproved
	for i := range discrepancies {
		discrepancies[i].Resolution = &resolution
		discrepancies[i].ResolvedBy = &userID
		resolvedAt := now
		discrepancies[i].ResolvedAt = &resolvedAt
	}

	audit := &models.AuditLogRecord{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         &userID,
		ShipmentID:     &shipmentID,
		Action:         models.AuditApproved,
		Details:        map[string]any{},
		CreatedAt:      now,
	}

	if err := o.repo.CommitAction(ctx, shipment, discrepancies, audit); err != nil {
		return err
	}

	o.log.WithFields(logger.Fields{
		"organization_id": orgID,
		"shipment_id":     shipmentID,
		"user_id":         userID,
	}).Info("shipment approved")
	return nil
}

// Dispute flags a shipment for carrier follow-up. Every discrepancy is
// marked disputed with the user's notes, and a shipment with no recorded
// discrepancy level gets the worst one since disputing asserts a problem
// the engine did not catch.
func (o *Orchestrator) Dispute(ctx context.Context, orgID, shipmentID, userID, notes string) error {
	release, err := o.locker.Acquire(ctx, "org:"+orgID)
	if err != nil {
		return err
	}
	defer release(ctx)

	shipment, err := o.repo.GetShipment(ctx, orgID, shipmentID)
	if err != nil {
		return err
	}
	if shipment.Status == models.ShipmentPaid {
		return apperrors.ValidationError(apperrors.CodeInvalidStatus, "status", shipment.Status, nil)
	}

	discrepancies, err := o.repo.ListDiscrepancies(ctx, shipmentID)
	if err != nil {
		return err
	}

	now := o.clock()
	shipment.Status = models.ShipmentDisputed
	shipment.UpdatedAt = now
	if shipment.DiscrepancyLevel == nil {
		red := models.SeverityRed
		shipment.DiscrepancyLevel = &red
	}

	resolution := models.ResolutionDisputed
	for i := range discrepancies {
		discrepancies[i].Resolution = &resolution
		discrepancies[i].ResolvedBy = &userID
		resolvedAt := now
		discrepancies[i].ResolvedAt = &resolvedAt
		if notes != "" {
			n := notes
			discrepancies[i].Notes = &n
		}
	}

	audit := &models.AuditLogRecord{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         &userID,
		ShipmentID:     &shipmentID,
		Action:         models.AuditDisputed,
		Details:        map[string]any{"notes": notes},
		CreatedAt:      now,
	}

	if err := o.repo.CommitAction(ctx, shipment, discrepancies, audit); err != nil {
		return err
	}

	o.log.WithFields(logger.Fields{
		"organization_id": orgID,
		"shipment_id":     shipmentID,
		"user_id":         userID,
	}).Info("shipment disputed")
	return nil
}
