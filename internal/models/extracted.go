package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ExtractedFields is the doc-type-specific payload of an extraction. The
// variant is discriminated by an explicit tag rather than by probing for
// field names, so overlapping fields across variants stay unambiguous.
type ExtractedFields interface {
	// DocType returns the variant tag.
	DocType() DocType
	// Warnings returns the advisory extraction warnings attached so far.
	Warnings() []string
	// AddWarning appends an advisory warning. Warnings never block the
	// pipeline.
	AddWarning(warning string)
}

// Location is a city/state/zip triple used on invoices and rate
// confirmations.
type Location struct {
	City  *string `json:"city"`
	State *string `json:"state"`
	Zip   *string `json:"zip"`
}

// Label renders the location as "City, State", dropping absent parts.
func (l Location) Label() *string {
	parts := make([]string, 0, 2)
	if l.City != nil && *l.City != "" {
		parts = append(parts, *l.City)
	}
	if l.State != nil && *l.State != "" {
		parts = append(parts, *l.State)
	}
	if len(parts) == 0 {
		return nil
	}
	label := parts[0]
	if len(parts) == 2 {
		label = parts[0] + ", " + parts[1]
	}
	return &label
}

// Accessorial is a billed charge beyond linehaul on an invoice.
type Accessorial struct {
	Code        *string         `json:"code"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// MatchKey is the value an accessorial is matched by against an approved
// schedule: the code when present, otherwise the description.
func (a Accessorial) MatchKey() string {
	if a.Code != nil && *a.Code != "" {
		return *a.Code
	}
	return a.Description
}

// ScheduledAccessorial is a pre-approved accessorial on a rate
// confirmation's schedule.
type ScheduledAccessorial struct {
	Code        *string          `json:"code"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

// MatchKey mirrors Accessorial.MatchKey for schedule entries.
func (a ScheduledAccessorial) MatchKey() string {
	if a.Code != nil && *a.Code != "" {
		return *a.Code
	}
	return a.Description
}

// InvoiceLineItem is a single billed line on a freight invoice.
type InvoiceLineItem struct {
	Description string           `json:"description"`
	Pieces      *int             `json:"pieces"`
	Weight      *decimal.Decimal `json:"weight"`
	WeightUnit  *string          `json:"weight_unit"`
	Rate        *decimal.Decimal `json:"rate"`
	Amount      *decimal.Decimal `json:"amount"`
}

// InvoiceFields is the extraction variant for freight invoices.
type InvoiceFields struct {
	InvoiceNumber      *string           `json:"invoice_number"`
	InvoiceDate        *string           `json:"invoice_date"`
	CarrierName        *string           `json:"carrier_name"`
	CarrierScac        *string           `json:"carrier_scac"`
	BolReference       *string           `json:"bol_reference"`
	ProNumber          *string           `json:"pro_number"`
	ShipperReference   *string           `json:"shipper_reference"`
	Origin             Location          `json:"origin"`
	Destination        Location          `json:"destination"`
	LineItems          []InvoiceLineItem `json:"line_items"`
	Subtotal           *decimal.Decimal  `json:"subtotal"`
	FuelSurcharge      *decimal.Decimal  `json:"fuel_surcharge"`
	FuelSurchargePct   *decimal.Decimal  `json:"fuel_surcharge_pct"`
	Accessorials       []Accessorial     `json:"accessorials"`
	TotalAmount        *decimal.Decimal  `json:"total_amount"`
	PaymentTerms       *string           `json:"payment_terms"`
	RemitTo            *string           `json:"remit_to"`
	Notes              *string           `json:"notes"`
	ExtractionWarnings []string          `json:"extraction_warnings"`
}

func (f *InvoiceFields) DocType() DocType           { return DocTypeInvoice }
func (f *InvoiceFields) Warnings() []string         { return f.ExtractionWarnings }
func (f *InvoiceFields) AddWarning(warning string)  { f.ExtractionWarnings = append(f.ExtractionWarnings, warning) }

// LineItemWeight sums the line-item weights. An absent or zero sum is
// reported as nil so downstream comparisons treat it as missing data.
func (f *InvoiceFields) LineItemWeight() *decimal.Decimal {
	sum := decimal.Zero
	for _, item := range f.LineItems {
		if item.Weight != nil {
			sum = sum.Add(*item.Weight)
		}
	}
	if sum.IsZero() {
		return nil
	}
	return &sum
}

// LineItemPieces sums the line-item piece counts; nil when nothing summed.
func (f *InvoiceFields) LineItemPieces() *int {
	sum := 0
	for _, item := range f.LineItems {
		if item.Pieces != nil {
			sum += *item.Pieces
		}
	}
	if sum == 0 {
		return nil
	}
	return &sum
}

// BolFields is the extraction variant for bills of lading.
type BolFields struct {
	BolNumber            *string          `json:"bol_number"`
	ShipperName          *string          `json:"shipper_name"`
	ShipperAddress       *string          `json:"shipper_address"`
	ConsigneeName        *string          `json:"consignee_name"`
	ConsigneeAddress     *string          `json:"consignee_address"`
	CarrierName          *string          `json:"carrier_name"`
	CarrierScac          *string          `json:"carrier_scac"`
	PickupDate           *string          `json:"pickup_date"`
	DeliveryDate         *string          `json:"delivery_date"`
	Pieces               *int             `json:"pieces"`
	Weight               *decimal.Decimal `json:"weight"`
	WeightUnit           *string          `json:"weight_unit"`
	CommodityDescription *string          `json:"commodity_description"`
	ReferenceNumbers     []string         `json:"reference_numbers"`
	HazmatFlag           *bool            `json:"hazmat_flag"`
	SpecialInstructions  *string          `json:"special_instructions"`
	ExtractionWarnings   []string         `json:"extraction_warnings"`
}

func (f *BolFields) DocType() DocType          { return DocTypeBOL }
func (f *BolFields) Warnings() []string        { return f.ExtractionWarnings }
func (f *BolFields) AddWarning(warning string) { f.ExtractionWarnings = append(f.ExtractionWarnings, warning) }

// PrimaryReference returns the first customer reference number, falling
// back to the BOL number.
func (f *BolFields) PrimaryReference() *string {
	if len(f.ReferenceNumbers) > 0 && f.ReferenceNumbers[0] != "" {
		ref := f.ReferenceNumbers[0]
		return &ref
	}
	return f.BolNumber
}

// RateConFields is the extraction variant for rate confirmations.
type RateConFields struct {
	RateConNumber       *string                `json:"rate_con_number"`
	CarrierName         *string                `json:"carrier_name"`
	CarrierScac         *string                `json:"carrier_scac"`
	Origin              Location               `json:"origin"`
	Destination         Location               `json:"destination"`
	AgreedRate          *decimal.Decimal       `json:"agreed_rate"`
	FuelSurchargePct    *decimal.Decimal       `json:"fuel_surcharge_pct"`
	AccessorialSchedule []ScheduledAccessorial `json:"accessorial_schedule"`
	EffectiveDate       *string                `json:"effective_date"`
	EquipmentType       *string                `json:"equipment_type"`
	ExtractionWarnings  []string               `json:"extraction_warnings"`
}

func (f *RateConFields) DocType() DocType          { return DocTypeRateCon }
func (f *RateConFields) Warnings() []string        { return f.ExtractionWarnings }
func (f *RateConFields) AddWarning(warning string) { f.ExtractionWarnings = append(f.ExtractionWarnings, warning) }

// PodFields is the extraction variant for proofs of delivery. A POD only
// contributes a BOL reference to matching.
type PodFields struct {
	BolReference        *string  `json:"bol_reference"`
	DeliveryDate        *string  `json:"delivery_date"`
	DeliveryTime        *string  `json:"delivery_time"`
	ReceiverSignature   *string  `json:"receiver_signature"`
	ReceiverName        *string  `json:"receiver_name"`
	ExceptionNotes      *string  `json:"exception_notes"`
	PieceCountConfirmed *int     `json:"piece_count_confirmed"`
	DamageNotes         *string  `json:"damage_notes"`
	ExtractionWarnings  []string `json:"extraction_warnings"`
}

func (f *PodFields) DocType() DocType          { return DocTypePOD }
func (f *PodFields) Warnings() []string        { return f.ExtractionWarnings }
func (f *PodFields) AddWarning(warning string) { f.ExtractionWarnings = append(f.ExtractionWarnings, warning) }

// UnknownFields is the extraction variant for documents that could not be
// classified into a structured shape. Accessorial sheets use it too.
type UnknownFields struct {
	ExtractionWarnings []string `json:"extraction_warnings"`
}

func (f *UnknownFields) DocType() DocType          { return DocTypeUnknown }
func (f *UnknownFields) Warnings() []string        { return f.ExtractionWarnings }
func (f *UnknownFields) AddWarning(warning string) { f.ExtractionWarnings = append(f.ExtractionWarnings, warning) }

// EmptyFields returns a zero-valued field variant for the given document
// type.
func EmptyFields(docType DocType) ExtractedFields {
	switch docType {
	case DocTypeInvoice:
		return &InvoiceFields{}
	case DocTypeBOL:
		return &BolFields{}
	case DocTypeRateCon:
		return &RateConFields{}
	case DocTypePOD:
		return &PodFields{}
	default:
		return &UnknownFields{}
	}
}

// MarshalJSON implements custom JSON marshaling for ExtractedData so the
// tagged union serializes alongside its discriminator.
func (e *ExtractedData) MarshalJSON() ([]byte, error) {
	type Alias ExtractedData
	return json.Marshal(&struct {
		*Alias
		Fields json.RawMessage `json:"extracted_fields,omitempty"`
	}{
		Alias:  (*Alias)(e),
		Fields: marshalFields(e.Fields),
	})
}

func marshalFields(fields ExtractedFields) json.RawMessage {
	if fields == nil {
		return nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return raw
}

// UnmarshalJSON implements custom JSON unmarshaling for ExtractedData,
// dispatching the field payload by the doc_type tag.
func (e *ExtractedData) UnmarshalJSON(data []byte) error {
	type Alias ExtractedData
	aux := &struct {
		*Alias
		Fields json.RawMessage `json:"extracted_fields"`
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Fields) == 0 {
		e.Fields = nil
		return nil
	}
	fields, err := UnmarshalFields(e.DocType, aux.Fields)
	if err != nil {
		return err
	}
	e.Fields = fields
	return nil
}

// UnmarshalFields decodes a raw field payload into the variant selected by
// the document type tag.
func UnmarshalFields(docType DocType, data []byte) (ExtractedFields, error) {
	fields := EmptyFields(docType)
	if err := json.Unmarshal(data, fields); err != nil {
		return nil, fmt.Errorf("invalid %s extraction payload: %w", docType, err)
	}
	return fields, nil
}
