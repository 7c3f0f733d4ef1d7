package extraction

import (
	"context"
	"regexp"
	"strings"

	"freight-reconciliation-service/internal/models"

	"freight-reconciliation-service/pkg/logger"
)

// Classification confidences for the heuristic fallback. Keyword hits are
// strong signals; mime-type guesses are weak ones.
const (
	keywordConfidence = 0.92
	imagePodGuess     = 0.55
	unknownGuess      = 0.42
)

// typePattern pairs a document type with the phrases that identify it.
// Order matters: the first matching pattern wins.
type typePattern struct {
	docType models.DocType
	pattern *regexp.Regexp
}

var typePatterns = []typePattern{
	{models.DocTypeRateCon, regexp.MustCompile(`(?i)rate\s+confirmation|rate\s+con\b|load\s+confirmation`)},
	{models.DocTypeBOL, regexp.MustCompile(`(?i)bill\s+of\s+lading|\bbol\b|straight\s+bill`)},
	{models.DocTypePOD, regexp.MustCompile(`(?i)proof\s+of\s+delivery|\bpod\b|delivery\s+receipt|received\s+in\s+good\s+(?:order|condition)`)},
	{models.DocTypeInvoice, regexp.MustCompile(`(?i)\binvoice\b|freight\s+bill|amount\s+due|remit\s+to`)},
	{models.DocTypeAccessorial, regexp.MustCompile(`(?i)accessorial|detention\s+charge|lumper\s+receipt`)},
}

// FallbackProvider is a keyword-based classifier used when no model-backed
// provider is configured or a model-backed provider fails. Its field
// extraction is an empty shell carrying a warning; classification is the
// only thing it does with real signal.
type FallbackProvider struct {
	log logger.Logger
}

// NewFallbackProvider creates the heuristic provider.
func NewFallbackProvider(log logger.Logger) *FallbackProvider {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &FallbackProvider{log: log.WithComponent("extraction.fallback")}
}

// filenameSeparators split an uploaded filename into scannable tokens, so
// "carrier_invoice_2024.pdf" carries the same signal as its words.
var filenameSeparators = regexp.MustCompile(`[_\-.]+`)

// Classify scans the original filename and the document text for
// type-identifying phrases. Binary uploads yield no text, so the filename
// is often the only signal. When neither yields anything and the document
// is an image, a proof of delivery is the best guess since drivers
// photograph signed PODs.
func (p *FallbackProvider) Classify(ctx context.Context, doc *models.Document, text string) (ClassificationResult, error) {
	haystack := text
	if doc.OriginalFilename != nil {
		haystack = filenameSeparators.ReplaceAllString(*doc.OriginalFilename, " ") + "\n" + text
	}
	for _, tp := range typePatterns {
		if tp.pattern.MatchString(haystack) {
			p.log.WithFields(logger.Fields{
				"document_id": doc.ID,
				"doc_type":    tp.docType,
			}).Debug("classified by keyword match")
			return ClassificationResult{
				DocType:    tp.docType,
				Confidence: keywordConfidence,
				Reasoning:  "filename or text keyword match",
			}, nil
		}
	}

	if strings.HasPrefix(doc.MimeType, "image/") {
		return ClassificationResult{
			DocType:    models.DocTypePOD,
			Confidence: imagePodGuess,
			Reasoning:  "image with no recognizable text",
		}, nil
	}

	return ClassificationResult{
		DocType:    models.DocTypeUnknown,
		Confidence: unknownGuess,
		Reasoning:  "no recognizable type markers",
	}, nil
}

// Extract returns an empty field variant for the type. The heuristic
// provider cannot read field values, so the variant carries a warning and
// the document lands in review via its low-confidence classification.
func (p *FallbackProvider) Extract(ctx context.Context, doc *models.Document, docType models.DocType, text string) (ExtractionResult, error) {
	fields := models.EmptyFields(docType)
	fields.AddWarning("fields not extracted: heuristic provider has no field-level extraction")

	return ExtractionResult{
		Fields:    fields,
		CostCents: 0,
	}, nil
}
