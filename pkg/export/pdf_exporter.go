package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// CodeCard is one printable login-code card.
type CodeCard struct {
	Name string
	Code string
}

// PDFExporter renders datasets into tabular or card-sheet PDFs. The built-in
// core fonts only encode Latin-1, so Korean student and class names need an
// embedded TTF: when fontPath is set it is registered per document and used
// for every text cell. Login codes stay in Courier, they are ASCII.
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter constructs a PDF exporter using the core fonts.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// NewPDFExporterWithFont embeds the TTF at path (e.g. NanumGothic.ttf) so
// Hangul text renders on the printed sheet. An empty path falls back to the
// core fonts.
func NewPDFExporterWithFont(path string) *PDFExporter {
	return &PDFExporter{fontPath: path}
}

// textFamily registers the embedded font on the document and returns the
// family name to use for text cells. Registration errors surface through
// pdf.Output.
func (e *PDFExporter) textFamily(pdf *gofpdf.Fpdf) string {
	if e.fontPath == "" {
		return "Arial"
	}
	pdf.AddUTF8Font("embedded", "", e.fontPath)
	pdf.AddUTF8Font("embedded", "B", e.fontPath)
	return "embedded"
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	family := e.textFamily(pdf)

	if title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont(family, "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCodeCards lays the cards out as a cut-out sheet, three per row,
// matching the classroom handout the teacher prints for student logins.
func (e *PDFExporter) RenderCodeCards(cards []CodeCard, title string) ([]byte, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("card sheet requires at least one card")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	family := e.textFamily(pdf)

	if title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	const (
		cardWidth  = 60.0
		cardHeight = 28.0
		perRow     = 3
		gutter     = 5.0
	)
	pdf.SetDrawColor(120, 120, 120)

	for i, card := range cards {
		col := i % perRow
		if col == 0 && i > 0 {
			pdf.Ln(cardHeight + gutter)
		}
		if pdf.GetY()+cardHeight > 280 {
			pdf.AddPage()
		}
		x := 10 + float64(col)*(cardWidth+gutter)
		y := pdf.GetY()

		pdf.Rect(x, y, cardWidth, cardHeight, "D")
		pdf.SetXY(x, y+4)
		pdf.SetFont(family, "B", 11)
		pdf.CellFormat(cardWidth, 7, card.Name, "", 0, "C", false, 0, "")
		pdf.SetXY(x, y+14)
		pdf.SetFont("Courier", "B", 16)
		pdf.CellFormat(cardWidth, 9, card.Code, "", 0, "C", false, 0, "")
		pdf.SetY(y)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render card sheet: %w", err)
	}
	return buf.Bytes(), nil
}
