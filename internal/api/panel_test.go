package telegram

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	app "damage-portal/internal/application"
	"damage-portal/internal/document"
	"damage-portal/internal/domain/entity"
	"damage-portal/internal/overlay"
)

func TestFormatStatus(t *testing.T) {
	require.Equal(t, "No images loaded. Use /images.", FormatStatus(app.Snapshot{}))

	got := FormatStatus(app.Snapshot{Image: "a.jpg", Index: 1, Total: 3, Task: entity.TaskDamage, Error: "Prediction failed."})
	require.Equal(t, "🖼 a.jpg (2/3)\nTask: damage\n⚠️ Prediction failed.", got)
}

func TestFormatSummary(t *testing.T) {
	snap := app.Snapshot{
		Image:      "a.jpg",
		Task:       entity.TaskParts,
		Detections: []entity.Detection{{Label: "door"}, {Label: "door"}, {Label: "hood"}},
	}
	summary := overlay.NewRenderer().Summarize(snap.Detections)

	got := FormatSummary(snap, summary)
	require.Contains(t, got, "● door ×2")
	require.Contains(t, got, "● hood ×1")
	require.Contains(t, got, "/analyze")

	snap.Task = entity.TaskDamage
	require.NotContains(t, FormatSummary(snap, summary), "/analyze")
	require.Contains(t, FormatSummary(app.Snapshot{Image: "a.jpg"}, nil), "No detections.")
}

func TestFormatReport(t *testing.T) {
	rep := &entity.CanonicalReport{
		Raw: "free text answer",
	}
	got := FormatReport(rep)
	require.Contains(t, got, "free text answer")
	require.Contains(t, got, "unknown | unknown | unknown | n/a")
	require.NotContains(t, got, "Detailed findings")

	rep = &entity.CanonicalReport{
		OverallSeverity: "high",
		Items: []entity.Finding{{
			Part:                   "door",
			DamageType:             "dent",
			Severity:               "medium",
			EstimatedRepairCostUSD: entity.NewAmount(decimal.NewFromInt(120)),
		}},
	}
	got = FormatReport(rep)
	require.Contains(t, got, "No summary returned.")
	require.Contains(t, got, "door | dent | medium | 120")
	require.Contains(t, got, "#1 door - dent (medium)")
	require.Contains(t, got, "Estimated total (USD): 120.00")
}

func TestFormatExportCaption(t *testing.T) {
	doc := &document.Document{Pages: 2, Warnings: []error{&entity.AssetFetchError{Asset: "original", Err: errors.New("timeout")}}}
	got := FormatExportCaption(doc)
	require.True(t, strings.HasPrefix(got, "Damage report, 2 page(s)."))
	require.Contains(t, got, "original image unavailable: timeout")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab…", truncate("abcdef", 3))
}
