package extraction

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/models"
)

var (
	scacPattern = regexp.MustCompile(`^[A-Z]{2,4}$`)

	// Totals that disagree by a cent or less are rounding noise.
	totalTolerance = decimal.NewFromFloat(0.01)

	// Legal gross weight limit for a five-axle combination in the US.
	maxPlausibleWeight = decimal.NewFromInt(48000)

	invoiceDateWindow = 90 * 24 * time.Hour
)

// ValidateFields runs sanity checks over an extracted field variant and
// attaches advisory warnings to it. Warnings never block processing; they
// surface next to the document for reviewers.
func ValidateFields(fields models.ExtractedFields, now time.Time) {
	switch f := fields.(type) {
	case *models.InvoiceFields:
		validateInvoice(f, now)
	case *models.BolFields:
		validateBol(f)
	case *models.RateConFields:
		validateScac(f.CarrierScac, f)
	}
}

func validateInvoice(f *models.InvoiceFields, now time.Time) {
	validateScac(f.CarrierScac, f)

	if f.TotalAmount != nil {
		// A missing subtotal counts as zero; the total must still be
		// accounted for by surcharges and accessorials.
		expected := decimal.Zero
		if f.Subtotal != nil {
			expected = *f.Subtotal
		}
		if f.FuelSurcharge != nil {
			expected = expected.Add(*f.FuelSurcharge)
		}
		for _, acc := range f.Accessorials {
			expected = expected.Add(acc.Amount)
		}
		if f.TotalAmount.Sub(expected).Abs().GreaterThan(totalTolerance) {
			f.AddWarning(fmt.Sprintf(
				"invoice total %s does not equal subtotal plus surcharges and accessorials (%s)",
				f.TotalAmount.StringFixed(2), expected.StringFixed(2)))
		}
	}

	if f.InvoiceDate != nil {
		if d, err := time.Parse("2006-01-02", *f.InvoiceDate); err == nil {
			if d.After(now) || d.Before(now.Add(-invoiceDateWindow)) {
				f.AddWarning(fmt.Sprintf("invoice date %s is outside the expected 90-day window", *f.InvoiceDate))
			}
		}
	}
}

func validateBol(f *models.BolFields) {
	validateScac(f.CarrierScac, f)

	if f.Weight != nil && f.Weight.GreaterThan(maxPlausibleWeight) {
		f.AddWarning(fmt.Sprintf("weight %s lb exceeds the plausible truckload maximum of %s lb",
			f.Weight.String(), maxPlausibleWeight.String()))
	}
}

func validateScac(scac *string, fields models.ExtractedFields) {
	if scac != nil && *scac != "" && !scacPattern.MatchString(*scac) {
		fields.AddWarning(fmt.Sprintf("carrier SCAC %q is not a valid 2-4 letter code", *scac))
	}
}
