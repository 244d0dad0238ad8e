// Package overlay переводит детекции в рамки на экране и раскрашивает метки.
package overlay

import (
	"fmt"

	"damage-portal/internal/domain/entity"
)

// Mapper переводит координаты из исходного изображения в координаты отображения.
type Mapper struct {
	ScaleX float64
	ScaleY float64
}

// NewMapper считает независимые масштабы по осям.
func NewMapper(native entity.ImageMeta, display entity.DisplaySize) (Mapper, error) {
	if !(native.Width > 0) || !(native.Height > 0) {
		return Mapper{}, fmt.Errorf("native %vx%v: %w", native.Width, native.Height, entity.ErrInvalidDimensions)
	}
	if !(display.Width > 0) || !(display.Height > 0) {
		return Mapper{}, fmt.Errorf("display %vx%v: %w", display.Width, display.Height, entity.ErrInvalidDimensions)
	}
	return Mapper{
		ScaleX: display.Width / native.Width,
		ScaleY: display.Height / native.Height,
	}, nil
}

// IdentityMapper масштаб 1:1, рамки рисуются прямо в исходном разрешении.
func IdentityMapper() Mapper {
	return Mapper{ScaleX: 1, ScaleY: 1}
}

// Map возвращает прямоугольник рамки в координатах отображения.
func (m Mapper) Map(b entity.BBox) entity.Rect {
	return entity.Rect{
		Left:   b.X1 * m.ScaleX,
		Top:    b.Y1 * m.ScaleY,
		Width:  (b.X2 - b.X1) * m.ScaleX,
		Height: (b.Y2 - b.Y1) * m.ScaleY,
	}
}

// Inverse переводит точку отображения обратно в исходные координаты.
func (m Mapper) Inverse(x, y float64) (float64, float64) {
	return x / m.ScaleX, y / m.ScaleY
}
