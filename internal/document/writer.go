package document

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// BlockKind тип неделимого блока на странице.
type BlockKind string

const (
	BlockTitle       BlockKind = "title"
	BlockLabel       BlockKind = "label"
	BlockText        BlockKind = "text"
	BlockImage       BlockKind = "image"
	BlockTableHeader BlockKind = "table-header"
	BlockTableRow    BlockKind = "table-row"
)

// Block след размещённого блока; используется в тестах и логах.
type Block struct {
	Kind   BlockKind
	Page   int
	Top    float64
	Height float64
	Lines  int
	Text   string
}

// Bottom нижняя граница блока.
func (b Block) Bottom() float64 {
	return b.Top + b.Height
}

// pageWriter ведёт курсор и переносит блоки на новую страницу целиком.
type pageWriter struct {
	pdf    *fpdf.Fpdf
	layout Layout
	tr     func(string) string
	page   int
	y      float64
	blocks []Block
}

func newPageWriter(layout Layout) *pageWriter {
	pdf := fpdf.New("P", "mm", layout.PageSize, "")
	pdf.SetMargins(layout.LeftMargin, layout.TopMargin, layout.LeftMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("damage-portal", true)

	w := &pageWriter{
		pdf:    pdf,
		layout: layout,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	w.newPage()
	return w
}

func (w *pageWriter) newPage() {
	w.pdf.AddPage()
	w.page++
	w.y = w.layout.TopMargin
}

// reserve начинает новую страницу, если блок высотой h не помещается.
// Блок выше целой страницы ставится с верха страницы как есть.
func (w *pageWriter) reserve(h float64) {
	if w.y+h > w.layout.PageThreshold && w.y > w.layout.TopMargin {
		w.newPage()
	}
}

func (w *pageWriter) record(kind BlockKind, h float64, lines int, text string) {
	w.blocks = append(w.blocks, Block{
		Kind:   kind,
		Page:   w.page,
		Top:    w.y,
		Height: h,
		Lines:  lines,
		Text:   text,
	})
}

func (w *pageWriter) font(style string, size float64) {
	w.pdf.SetFont(fontFamily, style, size)
}

// wrap переносит текст по ширине текущим шрифтом.
func (w *pageWriter) wrap(text string, width float64) []string {
	raw := w.pdf.SplitLines([]byte(w.tr(text)), width)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, string(l))
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

// line пишет одну строку как неделимый блок высотой advance.
func (w *pageWriter) line(kind BlockKind, text string, advance float64) {
	w.reserve(advance)
	w.record(kind, advance, 1, text)
	w.pdf.Text(w.layout.LeftMargin, w.y+w.layout.LineHeight*0.75, text)
	w.y += advance
}

// title строка заголовка, уже переведённая в кодировку шрифта.
func (w *pageWriter) title(kind BlockKind, text string, style string, size, advance float64) {
	w.font(style, size)
	w.line(kind, w.tr(text), advance)
}

// paragraph переносит текст и сдвигает курсор на lines*lineHeight + blockMargin.
func (w *pageWriter) paragraph(text string, style string, size float64) int {
	w.font(style, size)
	lines := w.wrap(text, w.layout.ContentWidth)
	for _, l := range lines {
		w.line(BlockText, l, w.layout.LineHeight)
	}
	w.y += w.layout.BlockMargin
	return len(lines)
}

// field подпись и абзац под ней; пустое значение пропускается.
func (w *pageWriter) field(label, text string) {
	if text == "" {
		return
	}
	w.title(BlockLabel, label, "B", w.layout.BodySize, w.layout.LabelAdvance)
	w.paragraph(text, "", w.layout.BodySize)
}

// image вставляет JPEG на ширину содержимого с сохранением пропорций.
func (w *pageWriter) image(name, caption string, jpegData []byte, pxW, pxH float64) error {
	if pxW <= 0 || pxH <= 0 {
		return fmt.Errorf("%s: zero image size", name)
	}
	width := w.layout.ContentWidth
	height := pxH / pxW * width
	if maxH := w.layout.UsableHeight() - w.layout.LabelAdvance; height > maxH {
		height = maxH
		width = maxH * pxW / pxH
	}

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(jpegData))
	if err := w.pdf.Error(); err != nil {
		// fpdf запоминает ошибку и иначе пропустит всё дальнейшее
		w.pdf.ClearError()
		return fmt.Errorf("register %s: %w", name, err)
	}

	// подпись не отрывается от картинки
	w.reserve(w.layout.LabelAdvance + height)
	w.title(BlockLabel, caption, "B", w.layout.BodySize, w.layout.LabelAdvance)
	w.record(BlockImage, height, 0, name)
	w.pdf.ImageOptions(name, w.layout.LeftMargin, w.y, width, height, false, opts, 0, "")
	w.y += height + w.layout.BlockMargin
	return nil
}

func (w *pageWriter) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
