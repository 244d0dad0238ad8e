// Package document собирает PDF-отчёт о повреждениях.
package document

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
)

const reportTitle = "Damage Analysis Report"

// Input всё, что попадает в документ.
type Input struct {
	ImageName  string
	Report     *entity.CanonicalReport
	Detections []entity.Detection
}

// Document готовый PDF и след раскладки.
type Document struct {
	Bytes    []byte
	Pages    int
	Blocks   []Block
	Warnings []error
}

// Builder собирает документ: загрузка, декодирование, разметка, раскладка, вывод.
type Builder struct {
	images    port.ImageSource
	annotator port.Annotator
	layout    Layout
}

// NewBuilder создаёт сборщик с заданной раскладкой.
func NewBuilder(images port.ImageSource, annotator port.Annotator, layout Layout) (*Builder, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Builder{images: images, annotator: annotator, layout: layout}, nil
}

type asset struct {
	name, caption string
	data          []byte
	meta          entity.ImageMeta
}

// Build собирает PDF. Ошибки загрузки картинок не прерывают сборку,
// а попадают в Warnings.
func (b *Builder) Build(ctx context.Context, in Input) (*Document, error) {
	if in.Report == nil {
		return nil, entity.ErrNoReport
	}
	logger := log.WithField("image", in.ImageName)

	assets, warnings := b.loadAssets(ctx, in)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.WithError(w).Warn("image section omitted")
	}

	w := newPageWriter(b.layout)
	b.writeHeader(w, in)
	for _, a := range assets {
		if err := w.image(a.name, a.caption, a.data, a.meta.Width, a.meta.Height); err != nil {
			assetErr := &entity.AssetFetchError{Asset: a.name, Err: err}
			logger.WithError(assetErr).Warn("image section omitted")
			warnings = append(warnings, assetErr)
		}
	}
	b.writeFindings(w, in.Report.Items)

	data, err := w.output()
	if err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{
		"pages":    w.page,
		"blocks":   len(w.blocks),
		"warnings": len(warnings),
	}).Debug("document built")

	return &Document{
		Bytes:    data,
		Pages:    w.page,
		Blocks:   w.blocks,
		Warnings: warnings,
	}, nil
}

// loadAssets готовит исходное и размеченное изображения в JPEG.
func (b *Builder) loadAssets(ctx context.Context, in Input) ([]asset, []error) {
	const (
		original  = "original"
		annotated = "annotated"
	)
	raw, err := b.images.FetchImage(ctx, in.ImageName)
	if err != nil {
		return nil, []error{
			&entity.AssetFetchError{Asset: original, Err: err},
			&entity.AssetFetchError{Asset: annotated, Err: err},
		}
	}

	var (
		assets   []asset
		warnings []error
	)
	// Annotate без детекций перекодирует исходник в JPEG, понятный fpdf.
	if data, meta, err := b.annotator.Annotate(raw, nil); err != nil {
		warnings = append(warnings, &entity.AssetFetchError{Asset: original, Err: err})
	} else {
		assets = append(assets, asset{name: original, caption: "Original Image", data: data, meta: meta})
	}
	if data, meta, err := b.annotator.Annotate(raw, in.Detections); err != nil {
		warnings = append(warnings, &entity.AssetFetchError{Asset: annotated, Err: err})
	} else {
		assets = append(assets, asset{name: annotated, caption: "Detected Boxes", data: data, meta: meta})
	}
	return assets, warnings
}

func (b *Builder) writeHeader(w *pageWriter, in Input) {
	l := b.layout
	r := in.Report
	w.title(BlockTitle, reportTitle, "B", l.TitleSize, l.TitleAdvance+2)
	w.title(BlockText, "Image: "+in.ImageName, "", l.BodySize, l.TitleAdvance)
	w.title(BlockText, "Overall Severity: "+orDefault(r.OverallSeverity, "unknown"), "", l.BodySize, l.TitleAdvance)

	w.field("Summary:", r.SummaryText())
	w.field("Recommended Actions:", r.RecommendedActions)
	if total, ok := r.TotalEstimate(); ok {
		w.field("Estimated Total (USD):", total.StringFixed(2))
	}
}

func (b *Builder) writeFindings(w *pageWriter, items []entity.Finding) {
	l := b.layout
	w.title(BlockLabel, "Findings", "B", l.HeadingSize, l.TitleAdvance)
	w.table(TableRows(items))

	w.title(BlockLabel, "Detailed Findings", "B", l.HeadingSize, l.TitleAdvance)
	if len(items) == 0 {
		w.paragraph("No findings returned.", "", l.BodySize)
		return
	}
	for i, f := range items {
		w.font("B", l.BodySize)
		for _, line := range w.wrap(FindingTitle(i, f), l.ContentWidth) {
			w.line(BlockLabel, line, l.LineHeight)
		}
		w.paragraph(FindingBody(f), "", l.TableSize+1)
		if f.Description != "" && f.Evidence != "" {
			w.paragraph("Evidence: "+f.Evidence, "", l.TableSize+1)
		}
		if f.RepairRecommendation != "" {
			w.paragraph("Recommendation: "+f.RepairRecommendation, "", l.TableSize+1)
		}
		if !f.EstimatedRepairCostUSD.IsZero() {
			w.paragraph("Estimate (USD): "+f.EstimatedRepairCostUSD.String(), "", l.TableSize+1)
		}
	}
}

// FindingTitle заголовок находки: "#1 bumper - crack (high)".
func FindingTitle(i int, f entity.Finding) string {
	return fmt.Sprintf("#%d %s - %s (%s)", i+1, f.Name(), orDefault(f.DamageType, "unknown"), orDefault(f.Severity, "unknown"))
}

// FindingBody описание, затем evidence, затем заглушка.
func FindingBody(f entity.Finding) string {
	switch {
	case f.Description != "":
		return f.Description
	case f.Evidence != "":
		return f.Evidence
	default:
		return "No description returned."
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
