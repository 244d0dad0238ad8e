package document

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout размеры страницы и шрифтов в миллиметрах и пунктах.
type Layout struct {
	PageSize      string    `yaml:"page_size"`
	TopMargin     float64   `yaml:"top_margin"`
	LeftMargin    float64   `yaml:"left_margin"`
	ContentWidth  float64   `yaml:"content_width"`
	PageThreshold float64   `yaml:"page_threshold"` // нижняя граница содержимого
	LineHeight    float64   `yaml:"line_height"`
	BlockMargin   float64   `yaml:"block_margin"`
	TitleAdvance  float64   `yaml:"title_advance"`
	LabelAdvance  float64   `yaml:"label_advance"`
	RowPadding    float64   `yaml:"row_padding"`
	CellPadding   float64   `yaml:"cell_padding"`
	Columns       []float64 `yaml:"columns"` // Part, Type, Severity, Estimate
	TitleSize     float64   `yaml:"title_size"`
	HeadingSize   float64   `yaml:"heading_size"`
	BodySize      float64   `yaml:"body_size"`
	TableSize     float64   `yaml:"table_size"`
}

// DefaultLayout A4 с полями 14 мм и шириной содержимого 180 мм.
func DefaultLayout() Layout {
	return Layout{
		PageSize:      "A4",
		TopMargin:     14,
		LeftMargin:    14,
		ContentWidth:  180,
		PageThreshold: 270,
		LineHeight:    5,
		BlockMargin:   4,
		TitleAdvance:  8,
		LabelAdvance:  6,
		RowPadding:    3,
		CellPadding:   1.5,
		Columns:       []float64{60, 50, 35, 35},
		TitleSize:     16,
		HeadingSize:   12,
		BodySize:      11,
		TableSize:     9,
	}
}

// UsableHeight высота, доступная содержимому на одной странице.
func (l Layout) UsableHeight() float64 {
	return l.PageThreshold - l.TopMargin
}

// Validate проверяет, что раскладка не вырождена.
func (l Layout) Validate() error {
	if l.LineHeight <= 0 || l.ContentWidth <= 0 {
		return fmt.Errorf("layout: line_height and content_width must be positive")
	}
	if l.UsableHeight() < 4*l.LineHeight {
		return fmt.Errorf("layout: page_threshold %.1f leaves no room below top_margin %.1f", l.PageThreshold, l.TopMargin)
	}
	if len(l.Columns) != 4 {
		return fmt.Errorf("layout: expected 4 table columns, got %d", len(l.Columns))
	}
	var total float64
	for _, c := range l.Columns {
		if c <= 2*l.CellPadding {
			return fmt.Errorf("layout: column width %.1f is too narrow", c)
		}
		total += c
	}
	if total > l.ContentWidth+0.01 {
		return fmt.Errorf("layout: table width %.1f exceeds content width %.1f", total, l.ContentWidth)
	}
	return nil
}

// LoadLayout читает переопределения раскладки из YAML поверх значений по умолчанию.
func LoadLayout(path string) (Layout, error) {
	l := DefaultLayout()
	data, err := os.ReadFile(path)
	if err != nil {
		return l, fmt.Errorf("failed to read layout file: %w", err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("failed to parse layout file: %w", err)
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	return l, nil
}
