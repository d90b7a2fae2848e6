package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// fpdfMeasurer measures text with the core Helvetica metrics.
type fpdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newMeasurer() *fpdfMeasurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &fpdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *fpdfMeasurer) Width(text string, size float64, bold bool) float64 {
	m.pdf.SetFont(fontFamily, style(bold), size)
	return m.pdf.GetStringWidth(m.tr(text))
}

func style(bold bool) string {
	if bold {
		return "B"
	}
	return ""
}

type docMeta struct {
	Title   string
	Created time.Time
}

// writePDF draws laid-out pages with fpdf.
func writePDF(pages []*Page, meta docMeta) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetCreator("fieldaudit", true)
	pdf.SetCreationDate(meta.Created)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	registered := make(map[string]bool)
	for _, p := range pages {
		pdf.AddPage()
		for _, op := range p.Ops {
			switch op := op.(type) {
			case TextOp:
				pdf.SetFont(fontFamily, style(op.Bold), op.Size)
				pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.Text(op.X, op.Y, tr(op.Text))
			case RectOp:
				if op.Fill {
					pdf.SetFillColor(op.Color.R, op.Color.G, op.Color.B)
					pdf.Rect(op.X, op.Y, op.W, op.H, "F")
				} else {
					pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
					pdf.SetLineWidth(0.2)
					pdf.Rect(op.X, op.Y, op.W, op.H, "D")
				}
			case LineOp:
				pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.SetLineWidth(op.Width)
				pdf.Line(op.X1, op.Y1, op.X2, op.Y2)
			case ImageOp:
				opts := fpdf.ImageOptions{ImageType: op.Type}
				if !registered[op.Name] {
					pdf.RegisterImageOptionsReader(op.Name, opts, bytes.NewReader(op.Data))
					registered[op.Name] = true
				}
				pdf.ImageOptions(op.Name, op.X, op.Y, op.W, op.H, false, opts, 0, "")
			}
			if pdf.Err() {
				return nil, fmt.Errorf("report: draw: %w", pdf.Error())
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
