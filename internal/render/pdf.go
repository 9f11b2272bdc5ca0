package render

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"
	"honnef.co/go/curve"

	"github.com/example/cursive/internal/ink"
)

// PDFOptions controls PDF export.
type PDFOptions struct {
	// MarginMM is the page margin in millimetres.
	MarginMM float64
	// PagePerDrawing puts every drawing on its own page.
	PagePerDrawing bool
	Title          string
}

const (
	a4Width  = 210.0
	a4Height = 297.0
)

// WritePDF lays the drawings out on A4 pages, scaled to fit inside the
// margins.
func WritePDF(w io.Writer, drawings []*ink.Drawing, opts PDFOptions) error {
	if opts.MarginMM <= 0 {
		opts.MarginMM = 10
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	pages := [][]*ink.Drawing{drawings}
	if opts.PagePerDrawing {
		pages = pages[:0]
		for _, d := range drawings {
			pages = append(pages, []*ink.Drawing{d})
		}
	}
	for _, page := range pages {
		pdf.AddPage()
		r, ok := Bounds(page)
		if !ok {
			continue
		}
		pdfPage(pdf, page, fitPage(r, opts.MarginMM))
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fitPage maps r into the printable area of an A4 page, never enlarging.
func fitPage(r curve.Rect, margin float64) curve.Affine {
	availW := a4Width - 2*margin
	availH := a4Height - 2*margin
	scale := 1.0
	if r.Width() > 0 {
		scale = math.Min(scale, availW/r.Width())
	}
	if r.Height() > 0 {
		scale = math.Min(scale, availH/r.Height())
	}
	return curve.Translate(curve.Vec(margin, margin)).
		Mul(curve.Scale(scale, scale)).
		Mul(curve.Translate(curve.Vec(-r.X0, -r.Y0)))
}

func pdfPage(pdf *gofpdf.Fpdf, drawings []*ink.Drawing, aff curve.Affine) {
	scale := math.Hypot(aff.N0, aff.N1)
	for _, d := range drawings {
		for _, s := range d.Strokes {
			if len(s.Points) == 0 {
				continue
			}
			col, err := ink.ParseColor(s.Color)
			if err == nil {
				pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
				pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
			} else {
				pdf.SetDrawColor(0, 0, 0)
				pdf.SetFillColor(0, 0, 0)
			}
			width := math.Max(s.Width*scale, 0.1)
			pdf.SetLineWidth(width)
			if len(s.Points) == 1 {
				p := s.Points[0].Pt().Transform(aff)
				pdf.Circle(p.X, p.Y, width/2, "F")
				continue
			}
			for i := 1; i < len(s.Points); i++ {
				a := s.Points[i-1].Pt().Transform(aff)
				b := s.Points[i].Pt().Transform(aff)
				pdf.Line(a.X, a.Y, b.X, b.Y)
			}
		}
	}
}
