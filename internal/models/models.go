// Package models defines the persisted data model for the freight
// reconciliation engine: documents, their extracted field variants,
// shipments, document links, discrepancies, and audit records.
//
// Monetary amounts, weights, and variances are represented with
// decimal.Decimal and serialized as strings so values round-trip
// losslessly through storage. Nullable attributes use pointer types;
// nil always means "not known yet".
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocType identifies the kind of freight paperwork a document contains.
type DocType string

const (
	DocTypeBOL         DocType = "bol"
	DocTypeInvoice     DocType = "invoice"
	DocTypeRateCon     DocType = "rate_con"
	DocTypePOD         DocType = "pod"
	DocTypeAccessorial DocType = "accessorial"
	DocTypeUnknown     DocType = "unknown"
)

// String returns the string representation of DocType.
func (d DocType) String() string {
	return string(d)
}

// IsValid checks if the document type is one of the known categories.
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeBOL, DocTypeInvoice, DocTypeRateCon, DocTypePOD, DocTypeAccessorial, DocTypeUnknown:
		return true
	default:
		return false
	}
}

// ParseDocType parses and validates a document type from string.
func ParseDocType(s string) (DocType, error) {
	d := DocType(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("invalid document type '%s'", s)
	}
	return d, nil
}

// DocumentSource records how a document entered the system.
type DocumentSource string

const (
	SourceUpload DocumentSource = "upload"
	SourceEmail  DocumentSource = "email"
	SourceAPI    DocumentSource = "api"
)

// IsValid checks if the document source is valid.
func (s DocumentSource) IsValid() bool {
	return s == SourceUpload || s == SourceEmail || s == SourceAPI
}

// DocumentStatus is the processing lifecycle state of a document.
type DocumentStatus string

const (
	DocumentPending     DocumentStatus = "pending"
	DocumentProcessing  DocumentStatus = "processing"
	DocumentExtracted   DocumentStatus = "extracted"
	DocumentFailed      DocumentStatus = "failed"
	DocumentNeedsReview DocumentStatus = "needs_review"
)

// IsValid checks if the document status is valid.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentPending, DocumentProcessing, DocumentExtracted, DocumentFailed, DocumentNeedsReview:
		return true
	default:
		return false
	}
}

// ShipmentStatus is the reconciliation lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentPending  ShipmentStatus = "pending"
	ShipmentMatched  ShipmentStatus = "matched"
	ShipmentApproved ShipmentStatus = "approved"
	ShipmentDisputed ShipmentStatus = "disputed"
	ShipmentPaid     ShipmentStatus = "paid"
)

// IsValid checks if the shipment status is valid.
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentPending, ShipmentMatched, ShipmentApproved, ShipmentDisputed, ShipmentPaid:
		return true
	default:
		return false
	}
}

// Severity is a discrepancy severity band: within tight tolerance (green),
// within loose tolerance or data missing (yellow), exceeds tolerance or
// unapproved (red).
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityRed    Severity = "red"
)

// IsValid checks if the severity band is valid.
func (s Severity) IsValid() bool {
	return s == SeverityGreen || s == SeverityYellow || s == SeverityRed
}

// Resolution records how a discrepancy was settled.
type Resolution string

const (
	ResolutionAutoApproved     Resolution = "auto_approved"
	ResolutionManuallyApproved Resolution = "manually_approved"
	ResolutionDisputed         Resolution = "disputed"
)

// AuditAction identifies the event recorded in an audit log entry.
type AuditAction string

const (
	AuditAutoApproved AuditAction = "auto_approved"
	AuditApproved     AuditAction = "approved"
	AuditDisputed     AuditAction = "disputed"
)

// Document represents a single piece of freight paperwork. A document is
// immutable once extracted, except for status transitions driven by the
// processing pipeline.
type Document struct {
	ID               string         `json:"id"`
	OrganizationID   string         `json:"organization_id"`
	Source           DocumentSource `json:"source"`
	SourceMetadata   map[string]any `json:"source_metadata,omitempty"`
	OriginalFilename *string        `json:"original_filename"`
	StoragePath      string         `json:"storage_path"`
	MimeType         string         `json:"mime_type"`
	PageCount        *int           `json:"page_count"`
	Status           DocumentStatus `json:"status"`

	// DocType is empty until classification has run.
	DocType           DocType `json:"doc_type,omitempty"`
	DocTypeConfidence float64 `json:"doc_type_confidence"`
	ProcessingError   *string `json:"processing_error"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`

	// ExtractedData is the latest extraction for this document, if any.
	ExtractedData *ExtractedData `json:"extracted_data,omitempty"`
}

// Role returns the role this document plays when linked to a shipment.
func (d *Document) Role() DocType {
	if d.DocType == "" {
		return DocTypeUnknown
	}
	return d.DocType
}

// Fields returns the document's extracted field variant, or nil when the
// document has not been extracted yet.
func (d *Document) Fields() ExtractedFields {
	if d.ExtractedData == nil {
		return nil
	}
	return d.ExtractedData.Fields
}

// Validate performs basic validation on the Document.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("document id cannot be empty")
	}
	if strings.TrimSpace(d.OrganizationID) == "" {
		return fmt.Errorf("document organization id cannot be empty")
	}
	if !d.Source.IsValid() {
		return fmt.Errorf("invalid document source: %s", d.Source)
	}
	if !d.Status.IsValid() {
		return fmt.Errorf("invalid document status: %s", d.Status)
	}
	if d.DocType != "" && !d.DocType.IsValid() {
		return fmt.Errorf("invalid document type: %s", d.DocType)
	}
	return nil
}

// ExtractedData holds one extraction pass over a document: the doc-type
// specific field variant, per-field confidences, and extraction metadata.
// Extractions are logically versioned; the latest one wins.
type ExtractedData struct {
	ID                  string             `json:"id"`
	DocumentID          string             `json:"document_id"`
	DocType             DocType            `json:"doc_type"`
	Fields              ExtractedFields    `json:"extracted_fields"`
	FieldConfidences    map[string]float64 `json:"field_confidences,omitempty"`
	ExtractionModel     *string            `json:"extraction_model"`
	ExtractionCostCents decimal.Decimal    `json:"extraction_cost_cents"`
	CreatedAt           time.Time          `json:"created_at"`
}

// Shipment is the reconciliation aggregate that documents attach to.
// Reference fields start nil and are filled incrementally by the field
// merger; once set they are never overwritten, only read.
type Shipment struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	ShipmentRef    *string `json:"shipment_ref"`
	BolNumber      *string `json:"bol_number"`
	ProNumber      *string `json:"pro_number"`
	ShipperName    *string `json:"shipper_name"`
	ConsigneeName  *string `json:"consignee_name"`
	CarrierName    *string `json:"carrier_name"`
	CarrierScac    *string `json:"carrier_scac"`
	Origin         *string `json:"origin"`
	Destination    *string `json:"destination"`

	Status           ShipmentStatus `json:"status"`
	MatchConfidence  float64        `json:"match_confidence"`
	DiscrepancyLevel *Severity      `json:"discrepancy_level"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the shipment so a reconciliation pass can
// mutate its working copy without touching the loaded snapshot.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	clone := *s
	clone.ShipmentRef = copyStr(s.ShipmentRef)
	clone.BolNumber = copyStr(s.BolNumber)
	clone.ProNumber = copyStr(s.ProNumber)
	clone.ShipperName = copyStr(s.ShipperName)
	clone.ConsigneeName = copyStr(s.ConsigneeName)
	clone.CarrierName = copyStr(s.CarrierName)
	clone.CarrierScac = copyStr(s.CarrierScac)
	clone.Origin = copyStr(s.Origin)
	clone.Destination = copyStr(s.Destination)
	if s.DiscrepancyLevel != nil {
		level := *s.DiscrepancyLevel
		clone.DiscrepancyLevel = &level
	}
	return &clone
}

// Validate performs basic validation on the Shipment.
func (s *Shipment) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("shipment id cannot be empty")
	}
	if strings.TrimSpace(s.OrganizationID) == "" {
		return fmt.Errorf("shipment organization id cannot be empty")
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("invalid shipment status: %s", s.Status)
	}
	if s.MatchConfidence < 0 || s.MatchConfidence > 100 {
		return fmt.Errorf("match confidence %v is outside the 0-100 range", s.MatchConfidence)
	}
	if s.DiscrepancyLevel != nil && !s.DiscrepancyLevel.IsValid() {
		return fmt.Errorf("invalid discrepancy level: %s", *s.DiscrepancyLevel)
	}
	return nil
}

// ShipmentDocumentLink associates a document with a shipment under a role.
// At most one link exists per (shipment, document) pair.
type ShipmentDocumentLink struct {
	ShipmentID string  `json:"shipment_id"`
	DocumentID string  `json:"document_id"`
	Role       DocType `json:"role"`
}

// Discrepancy is one field-level comparison result for a shipment. The full
// set is recomputed and replaced on every reconciliation pass.
type Discrepancy struct {
	ID             string           `json:"id"`
	ShipmentID     string           `json:"shipment_id"`
	FieldName      string           `json:"field_name"`
	SourceDocID    *string          `json:"source_doc_id"`
	CompareDocID   *string          `json:"compare_doc_id"`
	SourceValue    *string          `json:"source_value"`
	CompareValue   *string          `json:"compare_value"`
	VarianceAmount *decimal.Decimal `json:"variance_amount"`
	VariancePct    *decimal.Decimal `json:"variance_pct"`
	Severity       Severity         `json:"severity"`
	Resolution     *Resolution      `json:"resolution"`
	ResolvedBy     *string          `json:"resolved_by"`
	ResolvedAt     *time.Time       `json:"resolved_at"`
	Notes          *string          `json:"notes"`
	CreatedAt      time.Time        `json:"created_at"`
}

// AuditLogRecord is an append-only event written on auto-approval, manual
// approval, and dispute.
type AuditLogRecord struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	UserID         *string        `json:"user_id"`
	ShipmentID     *string        `json:"shipment_id"`
	Action         AuditAction    `json:"action"`
	Details        map[string]any `json:"details,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// OrganizationSettings is read-only input to the reconciliation
// orchestrator's auto-approval decision.
type OrganizationSettings struct {
	AutoApproveEnabled             bool    `json:"autoApproveEnabled"`
	AutoApproveConfidenceThreshold float64 `json:"autoApproveConfidenceThreshold"`
}

// DefaultOrganizationSettings returns settings with auto-approval disabled
// and the threshold at its conventional 90 starting point.
func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{
		AutoApproveEnabled:             false,
		AutoApproveConfidenceThreshold: 90,
	}
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
