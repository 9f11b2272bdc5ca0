package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow drawn under a rendered page.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions is a soft shadow below and to the right.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{Radius: 12, Offset: image.Pt(6, 8), Opacity: 0.35}
}

// WithShadow returns page composited over a blurred copy of its alpha on an
// enlarged transparent image. The second result is where page's top-left
// corner landed.
func WithShadow(page *image.RGBA, opts ShadowOptions) (*image.RGBA, image.Point) {
	if page == nil || page.Bounds().Empty() || opts.Opacity <= 0 {
		return page, image.Point{}
	}
	opacity := min(opts.Opacity, 1)
	radius := max(opts.Radius, 0)

	src := page.Bounds()
	spread := src.Inset(-radius)
	shadow := spread.Add(opts.Offset)
	all := src.Union(shadow)

	mask := image.NewAlpha(spread)
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			mask.SetAlpha(x, y, color.Alpha{A: page.RGBAAt(x, y).A})
		}
	}
	boxBlur(mask, radius)

	dst := image.NewRGBA(all.Sub(all.Min))
	shade := image.NewUniform(color.RGBA{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, shadow.Sub(all.Min), shade, image.Point{}, mask, spread.Min, draw.Over)
	draw.Draw(dst, src.Sub(all.Min), page, src.Min, draw.Over)
	return dst, src.Min.Sub(all.Min)
}

// boxBlur blurs m in place with a horizontal then vertical running average.
func boxBlur(m *image.Alpha, radius int) {
	if radius <= 0 {
		return
	}
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	line := make([]uint8, max(w, h))
	blur := func(get func(i int) uint8, set func(i int, v uint8), n int) {
		for i := 0; i < n; i++ {
			line[i] = get(i)
		}
		sum, count := 0, 0
		for i := 0; i < radius && i < n; i++ {
			sum += int(line[i])
			count++
		}
		for i := 0; i < n; i++ {
			if j := i + radius; j < n {
				sum += int(line[j])
				count++
			}
			if j := i - radius - 1; j >= 0 {
				sum -= int(line[j])
				count--
			}
			set(i, uint8(sum/count))
		}
	}
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride:]
		blur(func(i int) uint8 { return row[i] }, func(i int, v uint8) { row[i] = v }, w)
	}
	for x := 0; x < w; x++ {
		blur(func(i int) uint8 { return m.Pix[i*m.Stride+x] }, func(i int, v uint8) { m.Pix[i*m.Stride+x] = v }, h)
	}
}
