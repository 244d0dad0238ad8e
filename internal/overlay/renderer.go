package overlay

import (
	"fmt"

	"damage-portal/internal/domain/entity"
)

// Annotation одна рамка поверх изображения.
type Annotation struct {
	Box            entity.Rect
	Color          string
	Label          string
	ConfidenceText string // "87.3%"
}

// Caption подпись рамки, например "door 87.3%".
func (a Annotation) Caption() string {
	return a.Label + " " + a.ConfidenceText
}

// LabelCount строка сводки по меткам.
type LabelCount struct {
	Label string
	Count int
	Color string
}

// Overlay всё, что рисуется поверх текущего изображения.
type Overlay struct {
	Annotations []Annotation
	Summary     []LabelCount
}

// Renderer собирает рамки и сводку по меткам.
type Renderer struct {
	Palette []string
}

// NewRenderer создаёт рендерер с палитрой по умолчанию.
func NewRenderer() *Renderer {
	return &Renderer{Palette: DefaultPalette}
}

// FormatConfidence переводит уверенность в проценты с одним знаком.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// Render строит рамки для текущего размера отображения.
// Пока изображение не загружено (meta или display == nil), рамок нет.
func (r *Renderer) Render(dets []entity.Detection, meta *entity.ImageMeta, display *entity.DisplaySize) Overlay {
	out := Overlay{Summary: r.Summarize(dets)}
	if meta == nil || display == nil || len(dets) == 0 {
		return out
	}

	// До раскладки у изображения нет размера, берём исходный.
	size := *display
	if size.Width <= 0 {
		size.Width = meta.Width
	}
	if size.Height <= 0 {
		size.Height = meta.Height
	}
	m, err := NewMapper(*meta, size)
	if err != nil {
		return out
	}
	out.Annotations = r.Annotate(m, dets)
	return out
}

// Annotate строит рамки заданным преобразованием координат.
func (r *Renderer) Annotate(m Mapper, dets []entity.Detection) []Annotation {
	anns := make([]Annotation, 0, len(dets))
	for _, d := range dets {
		anns = append(anns, Annotation{
			Box:            m.Map(d.BBox),
			Color:          ColorFor(r.Palette, d.Label, d.ClassID),
			Label:          d.Label,
			ConfidenceText: FormatConfidence(d.Confidence),
		})
	}
	return anns
}

// Summarize считает метки в порядке первого появления.
// Сводка не привязана к одному class id, поэтому цвет всегда по метке.
func (r *Renderer) Summarize(dets []entity.Detection) []LabelCount {
	if len(dets) == 0 {
		return nil
	}
	index := make(map[string]int, len(dets))
	var out []LabelCount
	for _, d := range dets {
		if i, ok := index[d.Label]; ok {
			out[i].Count++
			continue
		}
		index[d.Label] = len(out)
		out = append(out, LabelCount{
			Label: d.Label,
			Count: 1,
			Color: ColorFor(r.Palette, d.Label, nil),
		})
	}
	return out
}
