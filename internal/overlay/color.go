package overlay

import (
	"fmt"
	"image/color"
	"strings"
)

// DefaultPalette фиксированная палитра меток.
var DefaultPalette = []string{
	"#22c55e",
	"#06b6d4",
	"#a855f7",
	"#f97316",
	"#e11d48",
	"#0ea5e9",
	"#84cc16",
	"#f59e0b",
	"#14b8a6",
	"#6366f1",
}

// ColorFor выбирает цвет метки: по class id, если он есть, иначе по сумме кодов символов.
// Разные метки могут получить одинаковый цвет.
func ColorFor(palette []string, label string, classID *int) string {
	n := len(palette)
	if n == 0 {
		return ""
	}
	var base int
	if classID != nil {
		base = *classID
	} else {
		for _, r := range label {
			base += int(r)
		}
	}
	return palette[((base%n)+n)%n]
}

// ParseHex разбирает цвет вида #rrggbb.
func ParseHex(s string) (color.NRGBA, error) {
	var c color.NRGBA
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return c, fmt.Errorf("bad color %q", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("bad color %q: %w", s, err)
	}
	c.A = 0xff
	return c, nil
}
