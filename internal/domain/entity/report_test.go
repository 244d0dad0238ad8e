package entity

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFinding_Name(t *testing.T) {
	require.Equal(t, "bumper", Finding{Part: "bumper", Area: "front"}.Name())
	require.Equal(t, "front", Finding{Area: "front"}.Name())
	require.Equal(t, UnknownPart, Finding{}.Name())
}

func TestParseEstimate(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		isAmount bool
	}{
		{in: "450", want: "450", isAmount: true},
		{in: "$1200.50", want: "1200.5", isAmount: true},
		{in: "300-500", want: "300-500"},
		{in: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e := ParseEstimate(tt.in)
			require.Equal(t, tt.want, e.String())
			require.Equal(t, tt.isAmount, e.Amount != nil)
		})
	}
	require.True(t, ParseEstimate("").IsZero())
}

func TestCanonicalReport_TotalEstimate(t *testing.T) {
	r := &CanonicalReport{Items: []Finding{
		{EstimatedRepairCostUSD: NewAmount(decimal.RequireFromString("100.25"))},
		{EstimatedRepairCostUSD: Estimate{Text: "call dealer"}},
		{EstimatedRepairCostUSD: NewAmount(decimal.NewFromInt(50))},
	}}
	total, ok := r.TotalEstimate()
	require.True(t, ok)
	require.Equal(t, "150.25", total.String())

	_, ok = (&CanonicalReport{}).TotalEstimate()
	require.False(t, ok)
}

func TestCanonicalReport_SummaryFallsBackToRaw(t *testing.T) {
	require.Equal(t, "raw text", (&CanonicalReport{Raw: "raw text"}).SummaryText())
	require.Equal(t, "s", (&CanonicalReport{Summary: "s", Raw: "raw"}).SummaryText())
}

func TestServiceError_Message(t *testing.T) {
	require.Equal(t, "model missing", (&ServiceError{Op: "predict", Detail: "model missing"}).Error())
	require.Equal(t, "Prediction failed.", (&ServiceError{Op: "predict"}).Error())
	require.Equal(t, "Damage analysis failed.", (&ServiceError{Op: "damage-analysis"}).Error())

	cause := errors.New("timeout")
	err := error(&AssetFetchError{Asset: "original", Err: cause})
	require.ErrorIs(t, err, cause)
}
