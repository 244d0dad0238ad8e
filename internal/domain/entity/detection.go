package entity

import (
	"encoding/json"
	"fmt"
)

// Task режим распознавания, выбранный пользователем.
type Task string

const (
	TaskParts  Task = "parts"  // детали кузова
	TaskDamage Task = "damage" // повреждения
)

// ParseTask проверяет название режима.
func ParseTask(s string) (Task, error) {
	switch Task(s) {
	case TaskParts, TaskDamage:
		return Task(s), nil
	}
	return "", fmt.Errorf("unknown task %q (use parts or damage)", s)
}

// BBox рамка детекции в исходных пиксельных координатах изображения.
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// MarshalJSON кодирует рамку как [x1, y1, x2, y2].
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON принимает форму [x1, y1, x2, y2], которую отдаёт сервис предсказаний.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bbox: %w", err)
	}
	if len(v) != 4 {
		return fmt.Errorf("bbox: expected 4 values, got %d", len(v))
	}
	b.X1, b.Y1, b.X2, b.Y2 = v[0], v[1], v[2], v[3]
	return nil
}

// Detection одна найденная моделью область.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // 0..1
	BBox       BBox    `json:"bbox"`
	ClassID    *int    `json:"class_id,omitempty"`
}

// ImageMeta исходный размер изображения в пикселях.
type ImageMeta struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DisplaySize размер области, в которой изображение сейчас показано.
type DisplaySize struct {
	Width  float64
	Height float64
}

// Rect прямоугольник в координатах отображения.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// PredictionResult ответ сервиса предсказаний.
type PredictionResult struct {
	Predictions []Detection `json:"predictions"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
}

// Meta возвращает исходный размер изображения из ответа.
func (r PredictionResult) Meta() ImageMeta {
	return ImageMeta{Width: r.Width, Height: r.Height}
}

// DistinctLabels возвращает непустые метки в порядке первого появления.
func DistinctLabels(dets []Detection) []string {
	seen := make(map[string]struct{}, len(dets))
	out := make([]string, 0, len(dets))
	for _, d := range dets {
		if d.Label == "" {
			continue
		}
		if _, ok := seen[d.Label]; ok {
			continue
		}
		seen[d.Label] = struct{}{}
		out = append(out, d.Label)
	}
	return out
}
