package tolerance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight-reconciliation-service/internal/models"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string { return &s }

func TestCompareNumeric_MissingData(t *testing.T) {
	green := decimal.Zero
	yellow := decimal.RequireFromString("0.02")

	for name, inputs := range map[string][2]*decimal.Decimal{
		"left absent":  {nil, dec("100")},
		"right absent": {dec("100"), nil},
		"both absent":  {nil, nil},
	} {
		t.Run(name, func(t *testing.T) {
			result := CompareNumeric(inputs[0], inputs[1], green, yellow)
			assert.Equal(t, models.SeverityYellow, result.Severity)
			assert.Nil(t, result.VarianceAmount)
			assert.Nil(t, result.VariancePct)
		})
	}
}

func TestCompareNumeric_ExactMatch(t *testing.T) {
	result := CompareNumeric(dec("100"), dec("100"), decimal.Zero, decimal.RequireFromString("0.02"))

	assert.Equal(t, models.SeverityGreen, result.Severity)
	require.NotNil(t, result.VarianceAmount)
	require.NotNil(t, result.VariancePct)
	assert.True(t, result.VarianceAmount.IsZero())
	assert.True(t, result.VariancePct.IsZero())
}

func TestCompareNumeric_Bands(t *testing.T) {
	greenTol := decimal.RequireFromString("0.02")
	yellowTol := decimal.RequireFromString("0.05")

	tests := []struct {
		name        string
		left, right string
		severity    models.Severity
		variancePct string
	}{
		{"inside green band", "101", "100", models.SeverityGreen, "0.01"},
		{"at green boundary", "102", "100", models.SeverityGreen, "0.02"},
		{"inside yellow band", "104", "100", models.SeverityYellow, "0.04"},
		{"at yellow boundary", "105", "100", models.SeverityYellow, "0.05"},
		{"outside both bands", "120", "100", models.SeverityRed, "0.2"},
		{"undershoot is symmetric", "80", "100", models.SeverityRed, "0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CompareNumeric(dec(tt.left), dec(tt.right), greenTol, yellowTol)
			assert.Equal(t, tt.severity, result.Severity)
			require.NotNil(t, result.VariancePct)
			assert.True(t, result.VariancePct.Equal(decimal.RequireFromString(tt.variancePct)),
				"variance pct %s != %s", result.VariancePct, tt.variancePct)
		})
	}
}

func TestCompareNumeric_RedSpecExample(t *testing.T) {
	// 120 vs 100 at 2%/5% tolerances: 20% variance, red.
	result := CompareNumeric(dec("120"), dec("100"), decimal.RequireFromString("0.02"), decimal.RequireFromString("0.05"))

	assert.Equal(t, models.SeverityRed, result.Severity)
	assert.True(t, result.VariancePct.Equal(decimal.RequireFromString("0.2")))
	assert.True(t, result.VarianceAmount.Equal(decimal.NewFromInt(20)))
}

func TestCompareNumeric_ZeroBaseline(t *testing.T) {
	// A zero right side compares on absolute amount with denominator 1.
	result := CompareNumeric(dec("3"), dec("0"), decimal.Zero, decimal.RequireFromString("0.02"))

	assert.Equal(t, models.SeverityRed, result.Severity)
	assert.True(t, result.VariancePct.Equal(decimal.NewFromInt(3)))
	assert.True(t, result.VarianceAmount.Equal(decimal.NewFromInt(3)))
}

func TestCompareExact(t *testing.T) {
	assert.Equal(t, models.SeverityYellow, CompareExact(nil, strPtr("5")))
	assert.Equal(t, models.SeverityYellow, CompareExact(strPtr("5"), nil))
	assert.Equal(t, models.SeverityGreen, CompareExact(strPtr("5"), strPtr("5")))
	assert.Equal(t, models.SeverityRed, CompareExact(strPtr("5"), strPtr("6")))
}

func TestWorstSeverity(t *testing.T) {
	assert.Equal(t, models.SeverityGreen, WorstSeverity(nil))
	assert.Equal(t, models.SeverityGreen, WorstSeverity([]models.Severity{models.SeverityGreen}))
	assert.Equal(t, models.SeverityYellow, WorstSeverity([]models.Severity{models.SeverityGreen, models.SeverityYellow}))
	assert.Equal(t, models.SeverityRed, WorstSeverity([]models.Severity{models.SeverityRed, models.SeverityGreen}))
	assert.Equal(t, models.SeverityRed, WorstSeverity([]models.Severity{models.SeverityYellow, models.SeverityRed, models.SeverityGreen}))
}
