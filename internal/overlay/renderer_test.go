package overlay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"damage-portal/internal/domain/entity"
)

func TestRenderer_DoorScenario(t *testing.T) {
	r := NewRenderer()
	dets := []entity.Detection{{Label: "door", Confidence: 0.873, BBox: entity.BBox{X1: 100, Y1: 50, X2: 300, Y2: 250}}}

	out := r.Render(dets, &entity.ImageMeta{Width: 1000, Height: 800}, &entity.DisplaySize{Width: 500, Height: 400})
	require.Len(t, out.Annotations, 1)
	ann := out.Annotations[0]
	require.Equal(t, entity.Rect{Left: 50, Top: 25, Width: 100, Height: 100}, ann.Box)
	require.Equal(t, "door 87.3%", ann.Caption())
	require.Equal(t, ColorFor(DefaultPalette, "door", nil), ann.Color)
}

func TestRenderer_ClassIDColorOnlyOnBoxes(t *testing.T) {
	r := NewRenderer()
	dets := []entity.Detection{
		{Label: "door", ClassID: intPtr(2), Confidence: 0.5, BBox: entity.BBox{X2: 10, Y2: 10}},
		{Label: "door", ClassID: intPtr(2), Confidence: 0.5, BBox: entity.BBox{X2: 10, Y2: 10}},
	}
	out := r.Render(dets, &entity.ImageMeta{Width: 10, Height: 10}, &entity.DisplaySize{Width: 10, Height: 10})
	require.Equal(t, DefaultPalette[2], out.Annotations[0].Color)
	require.Equal(t, []LabelCount{{Label: "door", Count: 2, Color: ColorFor(DefaultPalette, "door", nil)}}, out.Summary)
}

func TestRenderer_SummaryOrder(t *testing.T) {
	r := NewRenderer()
	dets := []entity.Detection{{Label: "wheel"}, {Label: "door"}, {Label: "wheel"}, {Label: "hood"}, {Label: "door"}, {Label: "wheel"}}
	sum := r.Summarize(dets)
	require.Len(t, sum, 3)
	require.Equal(t, "wheel", sum[0].Label)
	require.Equal(t, 3, sum[0].Count)
	require.Equal(t, "door", sum[1].Label)
	require.Equal(t, 2, sum[1].Count)
	require.Equal(t, "hood", sum[2].Label)
	require.Equal(t, 1, sum[2].Count)
}

func TestRenderer_EmptyCases(t *testing.T) {
	r := NewRenderer()
	dets := []entity.Detection{{Label: "door", Confidence: 0.9, BBox: entity.BBox{X2: 5, Y2: 5}}}
	meta := &entity.ImageMeta{Width: 100, Height: 100}

	require.Empty(t, r.Render(nil, meta, &entity.DisplaySize{Width: 50, Height: 50}).Annotations)
	require.Empty(t, r.Render(dets, nil, &entity.DisplaySize{Width: 50, Height: 50}).Annotations)
	require.Empty(t, r.Render(dets, meta, nil).Annotations)
	require.Empty(t, r.Render(dets, &entity.ImageMeta{}, &entity.DisplaySize{Width: 50, Height: 50}).Annotations)
}

func TestRenderer_ZeroDisplayFallsBackToNative(t *testing.T) {
	r := NewRenderer()
	dets := []entity.Detection{{Label: "door", Confidence: 1, BBox: entity.BBox{X1: 1, Y1: 2, X2: 3, Y2: 4}}}
	out := r.Render(dets, &entity.ImageMeta{Width: 100, Height: 100}, &entity.DisplaySize{})
	require.Len(t, out.Annotations, 1)
	require.Equal(t, entity.Rect{Left: 1, Top: 2, Width: 2, Height: 2}, out.Annotations[0].Box)
	require.Equal(t, "100.0%", out.Annotations[0].ConfidenceText)
}
