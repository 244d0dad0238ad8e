package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
	"damage-portal/internal/overlay"
)

// jpegQuality качество итоговой картинки с рамками.
const jpegQuality = 90

// fallbackColor используется, если цвет палитры не разобрался.
var fallbackColor = color.NRGBA{G: 255, A: 255}

// BoxAnnotator рисует рамки детекций поверх изображения в исходном разрешении.
type BoxAnnotator struct {
	renderer *overlay.Renderer
}

// NewAnnotator создаёт аннотатор с заданной палитрой.
func NewAnnotator(palette []string) *BoxAnnotator {
	return &BoxAnnotator{renderer: &overlay.Renderer{Palette: palette}}
}

// StrokeWidth толщина линии, чтобы рамки оставались видны на больших снимках.
func StrokeWidth(nativeWidth float64) float64 {
	return math.Max(2, nativeWidth*0.003)
}

// Annotate декодирует изображение и рисует на нём рамки детекций.
func (a *BoxAnnotator) Annotate(imageData []byte, dets []entity.Detection) ([]byte, entity.ImageMeta, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, entity.ImageMeta{}, err
	}
	b := img.Bounds()
	meta := entity.ImageMeta{Width: float64(b.Dx()), Height: float64(b.Dy())}

	// Экспорт рисует прямо в пикселях исходника, без экранного масштаба.
	anns := a.renderer.Annotate(overlay.IdentityMapper(), dets)
	out := drawAnnotations(img, anns, StrokeWidth(meta.Width))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, meta, fmt.Errorf("encode annotated image: %w", err)
	}
	return buf.Bytes(), meta, nil
}

// decodeImage декодирует jpeg, png, gif и webp в хранимой ориентации:
// рамки детектора заданы в этих пикселях, EXIF-поворот не применяется.
func decodeImage(imageData []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image: %w", entity.ErrInvalidDimensions)
	}
	return img, nil
}

func annotationColor(hex string) color.NRGBA {
	c, err := overlay.ParseHex(hex)
	if err != nil {
		return fallbackColor
	}
	return c
}

// Проверка реализации интерфейса
var _ port.Annotator = (*BoxAnnotator)(nil)
