package detection

import (
	"errors"
	"image"

	"github.com/ironsheep/shelfscan/internal/geometry"
)

// contourSpec describes a synthetic contour and what the provider reports for it.
type contourSpec struct {
	points int
	rect   geometry.RotatedRect
	area   float64
}

// axisRect builds a spec for an unrotated w x h rectangle centered at (cx, cy)
// whose contour area equals fill * w * h.
func axisRect(cx, cy, w, h, fill float64) contourSpec {
	return contourSpec{
		points: 4,
		rect:   geometry.NewRotatedRect(geometry.Point{X: cx, Y: cy}, w, h, 0),
		area:   fill * w * h,
	}
}

// fakeProvider serves canned contours and counts resource lifetimes.
type fakeProvider struct {
	specs     []contourSpec
	opened    int
	closed    int
	rectCalls int
	areaCalls int
	failRect  int // 1-based contour index whose MinAreaRect fails; 0 disables
}

type fakeBitmap struct {
	p    *fakeProvider
	w, h int
	done bool
}

func (b *fakeBitmap) Size() (int, int) { return b.w, b.h }

func (b *fakeBitmap) Close() error {
	if !b.done {
		b.done = true
		b.p.closed++
	}
	return nil
}

type fakeContour struct {
	p    *fakeProvider
	idx  int
	spec contourSpec
	done bool
}

func (c *fakeContour) Points() []image.Point { return make([]image.Point, c.spec.points) }
func (c *fakeContour) Len() int              { return c.spec.points }

func (c *fakeContour) Close() error {
	if !c.done {
		c.done = true
		c.p.closed++
	}
	return nil
}

func (p *fakeProvider) bitmap(w, h int) geometry.Bitmap {
	p.opened++
	return &fakeBitmap{p: p, w: w, h: h}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Grayscale(img image.Image) (geometry.Bitmap, error) {
	return p.bitmap(img.Bounds().Dx(), img.Bounds().Dy()), nil
}

func (p *fakeProvider) AdaptiveThreshold(src geometry.Bitmap, _ int, _ float64) (geometry.Bitmap, error) {
	w, h := src.Size()
	return p.bitmap(w, h), nil
}

func (p *fakeProvider) MorphologicalClose(src geometry.Bitmap, _ int) (geometry.Bitmap, error) {
	w, h := src.Size()
	return p.bitmap(w, h), nil
}

func (p *fakeProvider) Edges(src geometry.Bitmap, _, _ float64) (geometry.Bitmap, error) {
	w, h := src.Size()
	return p.bitmap(w, h), nil
}

func (p *fakeProvider) FindExternalContours(geometry.Bitmap) ([]geometry.Contour, error) {
	out := make([]geometry.Contour, len(p.specs))
	for i, s := range p.specs {
		p.opened++
		out[i] = &fakeContour{p: p, idx: i + 1, spec: s}
	}
	return out, nil
}

func (p *fakeProvider) MinAreaRect(c geometry.Contour) (geometry.RotatedRect, error) {
	p.rectCalls++
	fc := c.(*fakeContour)
	if p.failRect != 0 && fc.idx == p.failRect {
		return geometry.RotatedRect{}, errors.New("backend failure")
	}
	return fc.spec.rect, nil
}

func (p *fakeProvider) ContourArea(c geometry.Contour) (float64, error) {
	p.areaCalls++
	return c.(*fakeContour).spec.area, nil
}

func blankPage(w, h int) image.Image {
	return image.NewGray(image.Rect(0, 0, w, h))
}
