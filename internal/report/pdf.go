package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// documentDate is stamped into every PDF so identical input gives identical bytes.
var documentDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type implPDF struct {
	opts Options
}

func (r *implPDF) Format() string      { return FormatPDF }
func (r *implPDF) ContentType() string { return "application/pdf" }

// Render draws the layout on one page sized to fit it, in Courier so the
// column count of the layout matches the drawn width.
func (r *implPDF) Render(in Input) ([]byte, error) {
	page := Layout(in, r.opts)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(r.opts.Margin, r.opts.Margin, r.opts.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("chart-flow", true)
	pdf.SetTitle(TitleLabel+" - "+in.PatientName, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	contentWidth := page.Width - 2*r.opts.Margin

	for i, b := range page.Blocks {
		y := b.Y
		style, size := "B", r.opts.FontSize
		if i == 0 {
			size = r.opts.FontSize * 1.2
		}
		pdf.SetFont("Courier", style, size)
		pdf.SetXY(r.opts.Margin, y)
		pdf.CellFormat(contentWidth, page.LineHeight, tr(b.Label), "", 0, "L", false, 0, "")

		pdf.SetFont("Courier", "", r.opts.FontSize)
		for _, line := range b.Lines {
			y += page.LineHeight
			pdf.SetXY(r.opts.Margin, y)
			pdf.CellFormat(contentWidth, page.LineHeight, tr(line), "", 0, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
