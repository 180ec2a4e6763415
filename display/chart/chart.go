// Package chart renders a Snapshot's four histories as a 2x2 PNG grid.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/display/widgets"
)

// Default canvas size.
const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

const (
	minPanelSize = 64
	margin       = 12
	titleHeight  = 20
	lineWidth    = 2
)

var (
	colorAxis  = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	colorGrid  = color.NRGBA{R: 0x2e, G: 0x2e, B: 0x2e, A: 0xff}
	colorTitle = color.NRGBA{R: 0xe5, G: 0xe5, B: 0xe5, A: 0xff}
)

// Options sizes the canvas.
type Options struct {
	Width  int
	Height int
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
}

// Render draws the snapshot's histories. Panels follow the dashboard order:
// CPU and memory on top, disk and network below.
func Render(snap *collectors.Snapshot, opts Options) (*image.NRGBA, error) {
	opts.applyDefaults()
	pw, ph := opts.Width/2, opts.Height/2
	if pw < minPanelSize || ph < minPanelSize {
		return nil, fmt.Errorf("chart: canvas %dx%d too small", opts.Width, opts.Height)
	}

	bg, err := parseHex(string(widgets.ColorBackground))
	if err != nil {
		return nil, err
	}
	canvas := imaging.New(opts.Width, opts.Height, bg)

	for i, ch := range collectors.SeriesChannels {
		panel, err := renderPanel(snap.Series(ch), pw, ph, bg)
		if err != nil {
			return nil, err
		}
		canvas = imaging.Paste(canvas, panel, image.Pt((i%2)*pw, (i/2)*ph))
	}
	return canvas, nil
}

// Encode renders snap and writes it to w as PNG.
func Encode(w io.Writer, snap *collectors.Snapshot, opts Options) error {
	img, err := Render(snap, opts)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("chart: encode: %w", err)
	}
	return nil
}

// Save renders snap to path. The format follows the file extension.
func Save(path string, snap *collectors.Snapshot, opts Options) error {
	img, err := Render(snap, opts)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("chart: save %s: %w", path, err)
	}
	return nil
}

// plot is the drawable area of one panel.
type plot struct {
	rect   image.Rectangle
	lo, hi float64
}

func (p plot) x(i, slots int) int {
	if slots <= 1 {
		return p.rect.Max.X - 1
	}
	return p.rect.Min.X + i*(p.rect.Dx()-1)/(slots-1)
}

func (p plot) y(v float64) int {
	n := (v - p.lo) / (p.hi - p.lo)
	n = math.Max(0, math.Min(1, n))
	return p.rect.Max.Y - 1 - int(math.Round(n*float64(p.rect.Dy()-1)))
}

func renderPanel(s collectors.Series, w, h int, bg color.Color) (*image.NRGBA, error) {
	style := widgets.StyleFor(s.Channel)
	line, err := parseHex(string(style.Color))
	if err != nil {
		return nil, err
	}

	img := imaging.New(w, h, bg)
	drawText(img, margin, margin+10, style.Title, colorTitle)

	p := plot{
		rect: image.Rect(margin, margin+titleHeight, w-margin, h-margin),
		lo:   0,
		hi:   100,
	}
	if s.Unit != collectors.UnitPercent {
		p.hi = 0
		for _, v := range s.Values {
			p.hi = math.Max(p.hi, v)
		}
		if p.hi == 0 {
			p.hi = 1
		}
	}

	// Quarter gridlines, then the frame on top.
	for q := 1; q < 4; q++ {
		y := p.y(p.lo + (p.hi-p.lo)*float64(q)/4)
		hline(img, p.rect.Min.X, p.rect.Max.X-1, y, colorGrid)
	}
	hline(img, p.rect.Min.X, p.rect.Max.X-1, p.rect.Max.Y-1, colorAxis)
	vline(img, p.rect.Min.X, p.rect.Min.Y, p.rect.Max.Y-1, colorAxis)
	drawText(img, p.rect.Max.X-60, margin+10, scaleLabel(p.hi, s.Unit), colorAxis)

	slots := max(s.Capacity, len(s.Values))
	for i := 1; i < len(s.Values); i++ {
		drawLine(img,
			p.x(i-1, slots), p.y(s.Values[i-1]),
			p.x(i, slots), p.y(s.Values[i]),
			line)
	}
	if len(s.Values) == 1 {
		drawLine(img, p.x(0, slots), p.y(s.Values[0]), p.x(0, slots), p.y(s.Values[0]), line)
	}
	return img, nil
}

func scaleLabel(hi float64, unit collectors.Unit) string {
	if unit == collectors.UnitPercent {
		return "max 100%"
	}
	return "max " + strconv.FormatFloat(hi, 'f', 2, 64) + " " + string(unit)
}

func drawText(img draw.Image, x, y int, s string, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func hline(img *image.NRGBA, x0, x1, y int, c color.Color) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.NRGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

// drawLine draws a lineWidth-thick segment with Bresenham's algorithm.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy

	for {
		for t := 0; t < lineWidth; t++ {
			img.Set(x0, y0-t, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// parseHex parses "#RRGGBB".
func parseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("chart: bad colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("chart: bad colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
