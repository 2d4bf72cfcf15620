package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Shape is one outlined region on an overlay: a closed polygon through
// Points, labelled near its first point.
type Shape struct {
	Label  string
	Points []image.Point
}

// OverlayOptions controls overlay rendering.
type OverlayOptions struct {
	// LineWidth is the stroke width in pixels (default 3).
	LineWidth int

	// Color forces a single stroke colour ("#RRGGBB"). Empty means each shape
	// gets its own colour from an evenly spaced hue palette.
	Color string
}

// Palette returns n visually distinct, fully opaque colours spread evenly
// around the hue circle. The result is deterministic for a given n.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		c := colorful.Hsv(float64(i)*360/float64(max(n, 1)), 0.85, 0.9)
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Overlay draws every shape's outline and label on a copy of img.
// The source image is not modified.
func Overlay(img image.Image, shapes []Shape, opts OverlayOptions) *image.NRGBA {
	result := imaging.Clone(img)

	lineWidth := opts.LineWidth
	if lineWidth <= 0 {
		lineWidth = 3
	}

	colors := Palette(len(shapes))
	if opts.Color != "" {
		if c, err := colorful.Hex(opts.Color); err == nil {
			r, g, b := c.RGB255()
			for i := range colors {
				colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
			}
		}
	}

	for i, s := range shapes {
		if len(s.Points) == 0 {
			continue
		}
		for j := range s.Points {
			next := s.Points[(j+1)%len(s.Points)]
			drawLine(result, s.Points[j], next, lineWidth, colors[i])
		}
		if s.Label != "" {
			drawLabel(result, s.Points[0].X+lineWidth, s.Points[0].Y+lineWidth, s.Label, colors[i])
		}
	}
	return result
}

// drawLine strokes a segment with a square brush using Bresenham stepping.
func drawLine(img *image.NRGBA, a, b image.Point, width int, c color.Color) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	half := width / 2
	err := dx + dy
	x, y := a.X, a.Y
	for {
		draw.Draw(img, image.Rect(x-half, y-half, x-half+width, y-half+width), image.NewUniform(c), image.Point{}, draw.Src)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawLabel renders text in white on a box of colour bg, with the box's
// top-left corner at (x, y).
func drawLabel(img *image.NRGBA, x, y int, text string, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	textWidth := d.MeasureString(text).Ceil()
	box := image.Rect(x, y, x+textWidth+4, y+face.Height+2)
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)
	d.Dot = fixed.P(x+2, y+1+face.Ascent)
	d.DrawString(text)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
