// Package tolerance implements numeric and exact value comparison with
// severity bands. Missing data is deliberately a soft warning (yellow),
// distinct from both "matches" and "mismatches": the engine cannot confirm
// a value it never saw, and silence must not look like agreement.
package tolerance

import (
	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/models"
)

// NumericComparison is the result of comparing two numeric values against
// tolerance bands. Variances are nil when either input was absent.
type NumericComparison struct {
	Severity       models.Severity
	VarianceAmount *decimal.Decimal
	VariancePct    *decimal.Decimal
}

// CompareNumeric compares left against right with a tight (green) and loose
// (yellow) relative tolerance.
//
// The variance percentage uses |right| as denominator; a zero baseline falls
// back to a denominator of 1, which degrades the comparison to an
// absolute-amount check instead of dividing by zero.
func CompareNumeric(left, right *decimal.Decimal, greenTol, yellowTol decimal.Decimal) NumericComparison {
	if left == nil || right == nil {
		return NumericComparison{Severity: models.SeverityYellow}
	}

	denominator := right.Abs()
	if denominator.IsZero() {
		denominator = decimal.NewFromInt(1)
	}

	varianceAmount := left.Sub(*right)
	variancePct := varianceAmount.Abs().Div(denominator)

	severity := models.SeverityRed
	if variancePct.LessThanOrEqual(greenTol) {
		severity = models.SeverityGreen
	} else if variancePct.LessThanOrEqual(yellowTol) {
		severity = models.SeverityYellow
	}

	return NumericComparison{
		Severity:       severity,
		VarianceAmount: &varianceAmount,
		VariancePct:    &variancePct,
	}
}

// CompareExact compares two values stringwise: either absent is yellow,
// equal is green, anything else is red.
func CompareExact(left, right *string) models.Severity {
	if left == nil || right == nil {
		return models.SeverityYellow
	}
	if *left == *right {
		return models.SeverityGreen
	}
	return models.SeverityRed
}

// WorstSeverity folds a list of severities: red wins over yellow wins over
// green. An empty list defaults to green; callers that want "no
// discrepancies" to read as "no level" must guard before calling.
func WorstSeverity(severities []models.Severity) models.Severity {
	worst := models.SeverityGreen
	for _, s := range severities {
		switch s {
		case models.SeverityRed:
			return models.SeverityRed
		case models.SeverityYellow:
			worst = models.SeverityYellow
		}
	}
	return worst
}
