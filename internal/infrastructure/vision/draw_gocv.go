//go:build gocv
// +build gocv

package vision

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"damage-portal/internal/overlay"
)

// drawAnnotations рисует рамки средствами OpenCV.
func drawAnnotations(img image.Image, anns []overlay.Annotation, stroke float64) image.Image {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil || mat.Empty() {
		return img
	}
	defer mat.Close()

	thickness := int(math.Round(stroke))
	for _, ann := range anns {
		c := annotationColor(ann.Color)
		rgba := color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
		box := ann.Box
		rect := image.Rect(
			int(box.Left), int(box.Top),
			int(box.Left+box.Width), int(box.Top+box.Height),
		)
		gocv.Rectangle(&mat, rect, rgba, thickness)

		origin := image.Pt(rect.Min.X+2, rect.Min.Y-4)
		if origin.Y < 12 {
			origin.Y = rect.Min.Y + 14
		}
		gocv.PutText(&mat, ann.Caption(), origin, gocv.FontHersheySimplex, 0.5, rgba, 1)
	}

	out, err := mat.ToImage()
	if err != nil {
		return img
	}
	return out
}
