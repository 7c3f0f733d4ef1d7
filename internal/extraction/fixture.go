package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
)

// fixtureFile is the on-disk shape of a canned extraction result.
type fixtureFile struct {
	DocType          models.DocType     `json:"doc_type"`
	Confidence       float64            `json:"confidence"`
	FieldConfidences map[string]float64 `json:"field_confidences,omitempty"`
	Fields           json.RawMessage    `json:"extracted_fields"`
}

// FixtureProvider serves classification and extraction results from JSON
// files on disk, one file per document named <document id>.json. It backs
// local development and the CLI's offline mode, where no model-backed
// provider is available.
type FixtureProvider struct {
	dir      string
	fallback *FallbackProvider
}

// NewFixtureProvider creates a provider reading fixtures from dir.
// Documents without a fixture fall through to the heuristic provider.
func NewFixtureProvider(dir string, fallback *FallbackProvider) *FixtureProvider {
	return &FixtureProvider{dir: dir, fallback: fallback}
}

// Classify returns the fixture's document type, or the heuristic guess
// when no fixture exists for the document.
func (p *FixtureProvider) Classify(ctx context.Context, doc *models.Document, text string) (ClassificationResult, error) {
	fixture, err := p.load(doc.ID)
	if err != nil {
		return ClassificationResult{}, err
	}
	if fixture == nil {
		return p.fallback.Classify(ctx, doc, text)
	}
	return ClassificationResult{
		DocType:    fixture.DocType,
		Confidence: fixture.Confidence,
		Reasoning:  "fixture",
	}, nil
}

// Extract decodes the fixture's field payload into the variant for the
// given type.
func (p *FixtureProvider) Extract(ctx context.Context, doc *models.Document, docType models.DocType, text string) (ExtractionResult, error) {
	fixture, err := p.load(doc.ID)
	if err != nil {
		return ExtractionResult{}, err
	}
	if fixture == nil || len(fixture.Fields) == 0 {
		return p.fallback.Extract(ctx, doc, docType, text)
	}

	fields, err := models.UnmarshalFields(docType, fixture.Fields)
	if err != nil {
		return ExtractionResult{}, apperrors.ExtractionError(apperrors.CodeInvalidPayload, doc.ID, err)
	}

	return ExtractionResult{
		Fields:           fields,
		FieldConfidences: fixture.FieldConfidences,
		CostCents:        0,
	}, nil
}

func (p *FixtureProvider) load(documentID string) (*fixtureFile, error) {
	path := filepath.Join(p.dir, documentID+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.ExtractionError(apperrors.CodeExtractionFailed, documentID, err)
	}

	var fixture fixtureFile
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, apperrors.ExtractionError(apperrors.CodeInvalidPayload, documentID,
			fmt.Errorf("fixture %s: %w", path, err))
	}
	return &fixture, nil
}
