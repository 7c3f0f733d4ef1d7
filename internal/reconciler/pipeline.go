package reconciler

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/extraction"
	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/queue"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// TextSource yields a document's raw text for classification and
// extraction.
type TextSource interface {
	Text(ctx context.Context, doc *models.Document) (string, error)
}

// FileTextSource reads document text straight from the document's
// storage path. Binary documents yield empty text and rely on the
// provider's mime-type heuristics.
type FileTextSource struct{}

func (FileTextSource) Text(ctx context.Context, doc *models.Document) (string, error) {
	if !strings.HasPrefix(doc.MimeType, "text/") && doc.MimeType != "application/pdf" {
		return "", nil
	}
	data, err := os.ReadFile(doc.StoragePath)
	if err != nil {
		return "", apperrors.ExtractionError(apperrors.CodeExtractionFailed, doc.ID, err)
	}
	return string(data), nil
}

// Pipeline drives a document from intake through extraction into
// reconciliation. It is the queue worker's handler.
type Pipeline struct {
	orchestrator *Orchestrator
	provider     extraction.Provider
	source       TextSource
	queue        queue.Queue
	log          logger.Logger
}

// NewPipeline wires the processing pipeline. A nil source defaults to
// reading document text from disk.
func NewPipeline(orchestrator *Orchestrator, provider extraction.Provider, source TextSource, q queue.Queue, log logger.Logger) *Pipeline {
	if source == nil {
		source = FileTextSource{}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Pipeline{
		orchestrator: orchestrator,
		provider:     provider,
		source:       source,
		queue:        q,
		log:          log.WithComponent("pipeline"),
	}
}

// Intake registers a new document and enqueues it for processing.
func (p *Pipeline) Intake(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = p.orchestrator.clock()
	}
	doc.Status = models.DocumentPending

	if err := doc.Validate(); err != nil {
		return apperrors.ValidationError(apperrors.CodeInvalidValue, "document", doc.ID, err)
	}
	if err := p.orchestrator.repo.SaveDocument(ctx, doc); err != nil {
		return err
	}

	return p.queue.Enqueue(ctx, queue.Job{
		OrganizationID: doc.OrganizationID,
		DocumentID:     doc.ID,
		EnqueuedAt:     p.orchestrator.clock(),
	})
}

// Handle processes one queued job. It is the queue worker's handler.
func (p *Pipeline) Handle(ctx context.Context, job queue.Job) error {
	_, err := p.HandleResult(ctx, job)
	return err
}

// HandleResult processes one queued job: classify, extract, validate,
// persist, and reconcile. Low-confidence classifications flag the
// document for review but still reconcile; the confidence blend carries
// the penalty into the shipment score. Processing is safe to retry; it
// is idempotent up to new extraction IDs.
func (p *Pipeline) HandleResult(ctx context.Context, job queue.Job) (*PassResult, error) {
	doc, err := p.orchestrator.repo.GetDocument(ctx, job.OrganizationID, job.DocumentID)
	if err != nil {
		return nil, err
	}

	doc.Status = models.DocumentProcessing
	if err := p.orchestrator.repo.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := p.process(ctx, doc); err != nil {
		msg := err.Error()
		doc.Status = models.DocumentFailed
		doc.ProcessingError = &msg
		if saveErr := p.orchestrator.repo.SaveDocument(ctx, doc); saveErr != nil {
			p.log.WithError(saveErr).Error("failed to record processing failure")
		}
		return nil, err
	}

	if doc.Status == models.DocumentNeedsReview {
		p.log.WithFields(logger.Fields{
			"document_id": doc.ID,
			"doc_type":    doc.DocType,
			"confidence":  doc.DocTypeConfidence,
		}).Info("low classification confidence, document flagged for review")
	}

	return p.orchestrator.Reconcile(ctx, job.OrganizationID, job.DocumentID)
}

func (p *Pipeline) process(ctx context.Context, doc *models.Document) error {
	now := p.orchestrator.clock()

	text, err := p.source.Text(ctx, doc)
	if err != nil {
		return err
	}

	classification, err := p.provider.Classify(ctx, doc, text)
	if err != nil {
		return apperrors.ExtractionError(apperrors.CodeExtractionFailed, doc.ID, err)
	}
	doc.DocType = classification.DocType
	doc.DocTypeConfidence = classification.Confidence

	result, err := p.provider.Extract(ctx, doc, classification.DocType, text)
	if err != nil {
		return apperrors.ExtractionError(apperrors.CodeExtractionFailed, doc.ID, err)
	}

	extraction.ValidateFields(result.Fields, now)

	doc.ExtractedData = &models.ExtractedData{
		ID:                  uuid.NewString(),
		DocumentID:          doc.ID,
		DocType:             classification.DocType,
		Fields:              result.Fields,
		FieldConfidences:    result.FieldConfidences,
		ExtractionModel:     result.Model,
		ExtractionCostCents: decimal.NewFromFloat(result.CostCents),
		CreatedAt:           now,
	}
	doc.Status = extraction.StatusForConfidence(classification.Confidence)
	doc.ProcessedAt = &now

	return p.orchestrator.repo.SaveDocument(ctx, doc)
}
