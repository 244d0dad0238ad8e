package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"damage-portal/internal/domain/entity"
)

func TestNormalize_SummaryWithEmbeddedObject(t *testing.T) {
	raw := map[string]any{"summary": `  {"items":[{"part":"bumper"}]}  `}
	got := Canonicalize(Normalize(raw))
	require.Len(t, got.Items, 1)
	require.Equal(t, "bumper", got.Items[0].Part)
}

func TestNormalize_PlainTextFallback(t *testing.T) {
	raw := map[string]any{"summary": "plain text, not JSON", "overall_severity": "low"}
	got := Normalize(raw)
	require.Equal(t, raw, got)

	rep := Canonicalize(got)
	require.Equal(t, "plain text, not JSON", rep.Summary)
	require.Empty(t, rep.Items)
}

func TestNormalize_BrokenObjectFallsBack(t *testing.T) {
	raw := map[string]any{"summary": `{"items": [ }`}
	require.Equal(t, raw, Normalize(raw))

	raw = map[string]any{"summary": `{"a": 1} {"b": 2}`}
	require.Equal(t, raw, Normalize(raw))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []map[string]any{
		{"items": []any{map[string]any{"part": "door"}}, "summary": `{"items":[]}`},
		{"summary": `{"overall_severity":"high","items":[{"part":"hood"}]}`},
		{"summary": "text"},
		{},
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once))
	}
}

func TestNormalize_ItemsPresentIsUntouched(t *testing.T) {
	raw := map[string]any{"items": []any{}, "summary": `{"items":[{"part":"x"}]}`}
	require.Equal(t, raw, Normalize(raw))

	// null items считаются отсутствующими
	raw = map[string]any{"items": nil, "summary": `{"items":[{"part":"x"}]}`}
	require.Equal(t, "x", Canonicalize(Normalize(raw)).Items[0].Part)
}

func TestNormalize_NilAndNonString(t *testing.T) {
	require.Nil(t, Normalize(nil))
	raw := map[string]any{"summary": 42}
	require.Equal(t, raw, Normalize(raw))
}

func TestParse_FullReport(t *testing.T) {
	body := []byte(`{
		"overall_severity": "moderate",
		"summary": "Front-end collision.",
		"recommended_actions": "Replace bumper.",
		"items": [
			{"part": "front_bumper", "damage_type": "crack", "severity": "high", "estimated_repair_cost_usd": 1200.50},
			{"area": "hood", "damage_type": "dent", "estimated_repair_cost_usd": "300-500", "description": "Shallow dent."},
			"not an object",
			{"part": "grille", "estimated_repair_cost_usd": "$80"}
		]
	}`)
	rep, err := Parse(body)
	require.NoError(t, err)
	require.Equal(t, "moderate", rep.OverallSeverity)
	require.Equal(t, "Replace bumper.", rep.RecommendedActions)
	require.Len(t, rep.Items, 3)

	require.Equal(t, "front_bumper", rep.Items[0].Name())
	require.Equal(t, "1200.5", rep.Items[0].EstimatedRepairCostUSD.String())
	require.NotNil(t, rep.Items[0].EstimatedRepairCostUSD.Amount)

	require.Equal(t, "hood", rep.Items[1].Name())
	require.Equal(t, "300-500", rep.Items[1].EstimatedRepairCostUSD.String())
	require.Nil(t, rep.Items[1].EstimatedRepairCostUSD.Amount)

	total, ok := rep.TotalEstimate()
	require.True(t, ok)
	require.Equal(t, "1280.5", total.String())
}

func TestParse_SummaryEmbedded(t *testing.T) {
	rep, err := Parse([]byte(`{"summary": "{\"overall_severity\": \"low\", \"items\": [{\"part\": \"mirror\", \"severity\": 2}]}"}`))
	require.NoError(t, err)
	require.Equal(t, "low", rep.OverallSeverity)
	require.Equal(t, []entity.Finding{{Part: "mirror", Severity: "2"}}, rep.Items)
}

func TestParse_Malformed(t *testing.T) {
	for _, body := range []string{``, `[]`, `null`, `{"a":`, `"text"`} {
		_, err := Parse([]byte(body))
		require.Error(t, err, body)
	}
}

func TestCanonicalize_TolerantTypes(t *testing.T) {
	rep := Canonicalize(map[string]any{
		"summary":             []any{"line one", "line two"},
		"recommended_actions": map[string]any{"x": 1},
		"items":               "nope",
	})
	require.Equal(t, "line one\nline two", rep.Summary)
	require.Empty(t, rep.RecommendedActions)
	require.Empty(t, rep.Items)
}
