// Package extraction classifies freight paperwork into document types and
// pulls structured fields out of it. Providers are pluggable; the
// processing pipeline treats their output as advisory and never fails a
// document because a provider performed poorly, only because it errored.
package extraction

import (
	"context"

	"freight-reconciliation-service/internal/models"
)

// ClassificationResult is the outcome of identifying a document's type.
type ClassificationResult struct {
	DocType    models.DocType `json:"doc_type"`
	Confidence float64        `json:"confidence"`
	// Reasoning is an optional human-readable note on how the type was
	// chosen.
	Reasoning string `json:"reasoning,omitempty"`
}

// ExtractionResult is the outcome of structured field extraction.
type ExtractionResult struct {
	Fields           models.ExtractedFields `json:"fields"`
	FieldConfidences map[string]float64     `json:"field_confidences,omitempty"`
	Model            *string                `json:"model,omitempty"`
	CostCents        float64                `json:"cost_cents"`
}

// Provider classifies documents and extracts structured fields from them.
type Provider interface {
	// Classify determines the document type from the document's raw text
	// and metadata.
	Classify(ctx context.Context, doc *models.Document, text string) (ClassificationResult, error)

	// Extract pulls the doc-type-specific field variant out of the
	// document text. The docType argument is the type Classify settled on.
	Extract(ctx context.Context, doc *models.Document, docType models.DocType, text string) (ExtractionResult, error)
}

// Review threshold: classifications below this confidence route the
// document to human review instead of straight into reconciliation.
const ReviewConfidenceThreshold = 0.7

// StatusForConfidence maps a classification confidence to the document
// status the pipeline should record.
func StatusForConfidence(confidence float64) models.DocumentStatus {
	if confidence < ReviewConfidenceThreshold {
		return models.DocumentNeedsReview
	}
	return models.DocumentExtracted
}
