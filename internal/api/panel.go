package telegram

import (
	"fmt"
	"strings"

	app "damage-portal/internal/application"
	"damage-portal/internal/document"
	"damage-portal/internal/domain/entity"
	"damage-portal/internal/overlay"
)

const (
	maxMessageLen = 4000
	maxCaptionLen = 1000
)

// FormatStatus строка о текущем изображении и режиме.
func FormatStatus(snap app.Snapshot) string {
	if snap.Total == 0 {
		return "No images loaded. Use /images."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🖼 %s (%d/%d)\nTask: %s", snap.Image, snap.Index+1, snap.Total, snap.Task)
	if snap.Loading {
		b.WriteString("\n✨ Predicting...")
	}
	if snap.Error != "" {
		b.WriteString("\n⚠️ " + snap.Error)
	}
	if snap.AnalysisError != "" {
		b.WriteString("\n⚠️ " + snap.AnalysisError)
	}
	return b.String()
}

// FormatSummary подпись к фото с рамками: метки и их количество.
func FormatSummary(snap app.Snapshot, summary []overlay.LabelCount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %s", snap.Image, snap.Task)
	if len(summary) == 0 {
		b.WriteString("\nNo detections.")
		return truncate(b.String(), maxCaptionLen)
	}
	for _, lc := range summary {
		fmt.Fprintf(&b, "\n● %s ×%d", lc.Label, lc.Count)
	}
	if snap.CanAnalyze() {
		b.WriteString("\n\n/analyze for a damage report")
	}
	return truncate(b.String(), maxCaptionLen)
}

// FormatReport текстовая панель отчёта о повреждениях.
func FormatReport(rep *entity.CanonicalReport) string {
	var b strings.Builder
	b.WriteString("📋 Damage Analysis\n")
	fmt.Fprintf(&b, "Overall severity: %s\n\n", orDefault(rep.OverallSeverity, "unknown"))
	b.WriteString(orDefault(rep.SummaryText(), "No summary returned."))
	if rep.RecommendedActions != "" {
		b.WriteString("\n\nRecommended actions:\n" + rep.RecommendedActions)
	}
	if total, ok := rep.TotalEstimate(); ok {
		fmt.Fprintf(&b, "\n\nEstimated total (USD): %s", total.StringFixed(2))
	}

	b.WriteString("\n\nPart | Type | Severity | Estimate")
	for _, row := range document.TableRows(rep.Items) {
		b.WriteString("\n" + strings.Join(row, " | "))
	}

	if len(rep.Items) > 0 {
		b.WriteString("\n\nDetailed findings:")
		for i, f := range rep.Items {
			fmt.Fprintf(&b, "\n%s\n%s", document.FindingTitle(i, f), document.FindingBody(f))
			if f.RepairRecommendation != "" {
				b.WriteString("\nRecommendation: " + f.RepairRecommendation)
			}
		}
	}
	b.WriteString("\n\n/ask to discuss the report, /export for a PDF")
	return truncate(b.String(), maxMessageLen)
}

// FormatExportCaption подпись к PDF; пропущенные картинки перечисляются.
func FormatExportCaption(doc *document.Document) string {
	caption := fmt.Sprintf("Damage report, %d page(s).", doc.Pages)
	for _, w := range doc.Warnings {
		caption += "\n⚠️ " + w.Error()
	}
	return truncate(caption, maxCaptionLen)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
