package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pdfTableWidth = 190.0

// PDFExporter renders reports into a tabular PDF document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with the report title, a generated-at line, the table
// body and a record-count footer. Column widths follow the relative weights
// declared on the report.
func (e *PDFExporter) Render(r Report) ([]byte, error) {
	if len(r.Columns) == 0 {
		return nil, fmt.Errorf("report requires at least one column")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if r.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(r.Title), "", 1, "C", false, 0, "")
	}
	if !r.GeneratedAt.IsZero() {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, "Generated "+r.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	widths := columnWidths(r.Columns)

	pdf.SetFont("Arial", "B", 10)
	for i, col := range r.Columns {
		pdf.CellFormat(widths[i], 8, col.Title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range r.Rows {
		for i := range r.Columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d records", len(r.Rows)), "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns []Column) []float64 {
	total := 0.0
	weights := make([]float64, len(columns))
	for i, col := range columns {
		w := col.Width
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}

	widths := make([]float64, len(columns))
	for i, w := range weights {
		widths[i] = pdfTableWidth * w / total
	}
	return widths
}
