package document

import (
	"damage-portal/internal/domain/entity"
)

// Placeholder пустая ячейка таблицы.
const Placeholder = "—"

var tableHeader = []string{"Part", "Type", "Severity", "Estimate"}

// TableRows строки таблицы находок; без находок одна строка-заглушка.
func TableRows(items []entity.Finding) [][]string {
	if len(items) == 0 {
		return [][]string{{entity.UnknownPart, "unknown", "unknown", "n/a"}}
	}
	rows := make([][]string, 0, len(items))
	for _, f := range items {
		rows = append(rows, []string{
			cell(f.Name()),
			cell(f.DamageType),
			cell(f.Severity),
			cell(f.EstimatedRepairCostUSD.String()),
		})
	}
	return rows
}

func cell(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// tableRow строка таблицы после переноса текста в ячейках.
type tableRow struct {
	cells  [][]string
	lines  int
	height float64
	label  string
}

func (w *pageWriter) layoutRows(rows [][]string) []tableRow {
	l := w.layout
	w.font("", l.TableSize)
	out := make([]tableRow, 0, len(rows))
	for _, row := range rows {
		r := tableRow{cells: make([][]string, len(row)), lines: 1, label: row[0]}
		for c, text := range row {
			r.cells[c] = w.wrap(text, l.Columns[c]-2*l.CellPadding)
			r.lines = max(r.lines, len(r.cells[c]))
		}
		r.height = float64(r.lines)*l.LineHeight + l.RowPadding
		out = append(out, r)
	}
	return out
}

// table рисует заголовок один раз и строки, не разрывая их между страницами.
// Заголовок переносится вместе с первой строкой.
func (w *pageWriter) table(rows [][]string) {
	l := w.layout
	laid := w.layoutRows(rows)
	headerH := l.LineHeight + l.RowPadding
	first := 0.0
	if len(laid) > 0 {
		first = laid[0].height
	}
	w.reserve(headerH + first)

	w.font("B", l.TableSize)
	w.record(BlockTableHeader, headerH, 1, "")
	w.pdf.SetFillColor(31, 41, 55)
	w.pdf.SetTextColor(255, 255, 255)
	x := l.LeftMargin
	for i, title := range tableHeader {
		w.pdf.Rect(x, w.y, l.Columns[i], headerH, "F")
		w.pdf.Text(x+l.CellPadding, w.y+l.RowPadding/2+l.LineHeight*0.75, title)
		x += l.Columns[i]
	}
	w.pdf.SetTextColor(0, 0, 0)
	w.y += headerH

	w.font("", l.TableSize)
	for i, row := range laid {
		w.reserve(row.height)
		w.record(BlockTableRow, row.height, row.lines, row.label)

		style := "D"
		if i%2 == 1 {
			w.pdf.SetFillColor(243, 244, 246)
			style = "FD"
		}
		w.pdf.SetDrawColor(209, 213, 219)
		x := l.LeftMargin
		for c, lines := range row.cells {
			w.pdf.Rect(x, w.y, l.Columns[c], row.height, style)
			for k, text := range lines {
				w.pdf.Text(x+l.CellPadding, w.y+l.RowPadding/2+float64(k)*l.LineHeight+l.LineHeight*0.75, text)
			}
			x += l.Columns[c]
		}
		w.y += row.height
	}
	w.y += l.BlockMargin
}
