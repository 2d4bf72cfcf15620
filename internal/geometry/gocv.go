//go:build gocv

package geometry

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"
)

func init() {
	Register("gocv", func() (Provider, error) { return NewGoCV() })
}

// GoCV is the OpenCV-backed provider.
type GoCV struct{}

// NewGoCV checks that OpenCV is linked and usable.
func NewGoCV() (*GoCV, error) {
	check := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8U)
	defer check.Close()
	if check.Empty() {
		return nil, errors.New("opencv failed to allocate a matrix")
	}
	return &GoCV{}, nil
}

// Name implements Provider.
func (*GoCV) Name() string { return "gocv" }

type matBitmap struct {
	mat    gocv.Mat
	closed bool
}

func (b *matBitmap) Size() (int, int) {
	if b.closed {
		return 0, 0
	}
	return b.mat.Cols(), b.mat.Rows()
}

func (b *matBitmap) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.mat.Close()
	return nil
}

type vectorContour struct {
	pv     gocv.PointVector
	pts    []image.Point
	closed bool
}

func (c *vectorContour) Points() []image.Point { return c.pts }
func (c *vectorContour) Len() int              { return len(c.pts) }

func (c *vectorContour) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.pv.Close()
	return nil
}

func (*GoCV) mat(b Bitmap) (gocv.Mat, error) {
	mb, ok := b.(*matBitmap)
	if !ok {
		return gocv.Mat{}, fmt.Errorf("gocv provider cannot read bitmap of type %T", b)
	}
	if mb.closed {
		return gocv.Mat{}, errClosed
	}
	return mb.mat, nil
}

func (*GoCV) vector(c Contour) (gocv.PointVector, error) {
	vc, ok := c.(*vectorContour)
	if !ok {
		return gocv.PointVector{}, fmt.Errorf("gocv provider cannot read contour of type %T", c)
	}
	if vc.closed {
		return gocv.PointVector{}, errClosed
	}
	return vc.pv, nil
}

// Grayscale implements Provider.
func (*GoCV) Grayscale(img image.Image) (Bitmap, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)
	return &matBitmap{mat: gray}, nil
}

// AdaptiveThreshold implements Provider.
func (g *GoCV) AdaptiveThreshold(src Bitmap, blockSize int, c float64) (Bitmap, error) {
	m, err := g.mat(src)
	if err != nil {
		return nil, err
	}
	dst := gocv.NewMat()
	gocv.AdaptiveThreshold(m, &dst, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinaryInv, blockSize, float32(c))
	return &matBitmap{mat: dst}, nil
}

// MorphologicalClose implements Provider.
func (g *GoCV) MorphologicalClose(src Bitmap, kernel int) (Bitmap, error) {
	m, err := g.mat(src)
	if err != nil {
		return nil, err
	}
	k := gocv.GetStructuringElement(gocv.MorphRect, image.Point{kernel, kernel})
	defer k.Close()

	dst := gocv.NewMat()
	gocv.MorphologyEx(m, &dst, gocv.MorphClose, k)
	return &matBitmap{mat: dst}, nil
}

// Edges implements Provider.
func (g *GoCV) Edges(src Bitmap, low, high float64) (Bitmap, error) {
	m, err := g.mat(src)
	if err != nil {
		return nil, err
	}
	dst := gocv.NewMat()
	gocv.Canny(m, &dst, float32(low), float32(high))
	return &matBitmap{mat: dst}, nil
}

// FindExternalContours implements Provider.
func (g *GoCV) FindExternalContours(src Bitmap) ([]Contour, error) {
	m, err := g.mat(src)
	if err != nil {
		return nil, err
	}
	contours := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]Contour, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pts := contours.At(i).ToPoints()
		out = append(out, &vectorContour{pv: gocv.NewPointVectorFromPoints(pts), pts: pts})
	}
	return out, nil
}

// MinAreaRect implements Provider.
func (g *GoCV) MinAreaRect(c Contour) (RotatedRect, error) {
	pv, err := g.vector(c)
	if err != nil {
		return RotatedRect{}, err
	}
	r := gocv.MinAreaRect(pv)
	center := Point{X: float64(r.Center.X), Y: float64(r.Center.Y)}
	return NewRotatedRect(center, float64(r.Width), float64(r.Height), r.Angle), nil
}

// ContourArea implements Provider.
func (g *GoCV) ContourArea(c Contour) (float64, error) {
	pv, err := g.vector(c)
	if err != nil {
		return 0, err
	}
	return gocv.ContourArea(pv), nil
}
