//go:build !gocv
// +build !gocv

package vision

import (
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"damage-portal/internal/overlay"
)

// drawAnnotations рисует рамки, полупрозрачную заливку и подписи.
func drawAnnotations(img image.Image, anns []overlay.Annotation, stroke float64) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(stroke)

	for _, ann := range anns {
		c := annotationColor(ann.Color)
		box := ann.Box

		dc.DrawRectangle(box.Left, box.Top, box.Width, box.Height)
		dc.SetRGBA255(int(c.R), int(c.G), int(c.B), 0x22)
		dc.FillPreserve()
		dc.SetColor(c)
		dc.Stroke()

		caption := ann.Caption()
		tw, th := dc.MeasureString(caption)
		tagH := th + 6
		tagTop := box.Top - tagH
		if tagTop < 0 {
			tagTop = box.Top
		}
		dc.DrawRectangle(box.Left, tagTop, tw+8, tagH)
		dc.SetColor(c)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawString(caption, box.Left+4, tagTop+tagH-4)
	}
	return dc.Image()
}
