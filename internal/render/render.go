// Package render rasterizes drawings for export, clipboard copies and AI
// requests.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log"
	"math"

	"golang.org/x/image/vector"
	"honnef.co/go/curve"

	"github.com/example/cursive/internal/ink"
)

// Options controls rasterization.
type Options struct {
	// Scale is the number of pixels per canvas unit.
	Scale float64
	// Padding in canvas units around the content.
	Padding float64
	// Background fills the image first; nil leaves it transparent.
	Background color.Color
	// Tolerance is the flattening accuracy in pixels.
	Tolerance float64
}

// DefaultOptions renders at 1:1 on white with a small margin.
var DefaultOptions = Options{Scale: 1, Padding: 16, Background: color.White, Tolerance: 0.1}

func (o Options) normalized() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 0.1
	}
	return o
}

// MaxPixels bounds the size of a rendered image.
const MaxPixels = 64 << 20

// Bounds returns the extent of every stroke including pen width, and false
// when there is nothing to draw.
func Bounds(drawings []*ink.Drawing) (curve.Rect, bool) {
	var r curve.Rect
	found := false
	for _, d := range drawings {
		for _, s := range d.Strokes {
			if len(s.Points) == 0 {
				continue
			}
			b := s.Bounds().Inflate(s.Width/2, s.Width/2)
			if !found {
				r, found = b, true
				continue
			}
			r = r.Union(b)
		}
	}
	return r, found
}

// Rasterize renders every drawing, cropped to the content.
func Rasterize(drawings []*ink.Drawing, opts Options) (*image.RGBA, error) {
	r, ok := Bounds(drawings)
	if !ok {
		return nil, fmt.Errorf("nothing to render")
	}
	return Region(drawings, r, opts)
}

// Region renders the part of the canvas inside r.
func Region(drawings []*ink.Drawing, r curve.Rect, opts Options) (*image.RGBA, error) {
	opts = opts.normalized()
	r = r.Inflate(opts.Padding, opts.Padding)
	w := int(math.Ceil(r.Width() * opts.Scale))
	h := int(math.Ceil(r.Height() * opts.Scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty region %v", r)
	}
	if w*h > MaxPixels {
		return nil, fmt.Errorf("region %dx%d is too large", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if opts.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}
	aff := curve.Scale(opts.Scale, opts.Scale).Mul(curve.Translate(curve.Vec(-r.X0, -r.Y0)))
	for _, d := range drawings {
		for _, s := range d.Strokes {
			if err := Stroke(img, s, aff, opts.Tolerance); err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

// Stroke paints s onto dst after mapping it through aff. The pen width is
// scaled by the transform's horizontal scale.
func Stroke(dst draw.Image, s *ink.Stroke, aff curve.Affine, tolerance float64) error {
	if len(s.Points) == 0 {
		return nil
	}
	col, err := ink.ParseColor(s.Color)
	if err != nil {
		log.Printf("render: stroke %s: %v; drawing in black", s.ID, err)
		col = color.RGBA{A: 255}
	}
	width := s.Width * math.Hypot(aff.N0, aff.N1)
	if width <= 0 {
		width = 1
	}

	var outline curve.BezPath
	if len(s.Points) == 1 {
		c := curve.Circle{Center: s.Points[0].Pt().Transform(aff), Radius: width / 2}
		outline = c.Path(tolerance)
	} else {
		path := s.Path().Transform(aff)
		for el := range curve.StrokePath(path.Elements(), curve.DefaultStroke.WithWidth(width), curve.StrokeOpts{}, tolerance) {
			outline.Push(el)
		}
	}
	fill(dst, outline, col, tolerance)
	return nil
}

func fill(dst draw.Image, outline curve.BezPath, col color.Color, tolerance float64) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	ox, oy := float64(b.Min.X), float64(b.Min.Y)
	open := false
	for el := range curve.Flatten(outline.Elements(), tolerance) {
		switch el.Kind {
		case curve.MoveToKind:
			if open {
				z.ClosePath()
			}
			z.MoveTo(float32(el.P0.X-ox), float32(el.P0.Y-oy))
			open = true
		case curve.LineToKind:
			z.LineTo(float32(el.P0.X-ox), float32(el.P0.Y-oy))
		case curve.ClosePathKind:
			z.ClosePath()
			open = false
		}
	}
	if open {
		z.ClosePath()
	}
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
