package geometry

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/shelfscan/internal/imaging"
)

var errClosed = errors.New("resource already closed")

// Native is the pure Go provider. It is stateless and safe for concurrent use.
type Native struct{}

// NewNative returns the pure Go provider.
func NewNative() *Native {
	return &Native{}
}

// Name implements Provider.
func (*Native) Name() string { return "native" }

type grayBitmap struct {
	img *image.Gray
}

func (b *grayBitmap) Size() (int, int) {
	if b.img == nil {
		return 0, 0
	}
	return b.img.Bounds().Dx(), b.img.Bounds().Dy()
}

func (b *grayBitmap) Close() error {
	b.img = nil
	return nil
}

type pointContour struct {
	pts []image.Point
}

func (c *pointContour) Points() []image.Point { return c.pts }
func (c *pointContour) Len() int              { return len(c.pts) }

func (c *pointContour) Close() error {
	c.pts = nil
	return nil
}

// NewContour wraps points as a Native contour.
func NewContour(pts []image.Point) Contour {
	return &pointContour{pts: pts}
}

func (*Native) gray(b Bitmap) (*image.Gray, error) {
	gb, ok := b.(*grayBitmap)
	if !ok {
		return nil, fmt.Errorf("native provider cannot read bitmap of type %T", b)
	}
	if gb.img == nil {
		return nil, errClosed
	}
	return gb.img, nil
}

// Grayscale implements Provider.
func (*Native) Grayscale(img image.Image) (Bitmap, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	return &grayBitmap{img: imaging.Grayscale(img)}, nil
}

// AdaptiveThreshold implements Provider.
func (n *Native) AdaptiveThreshold(src Bitmap, blockSize int, c float64) (Bitmap, error) {
	g, err := n.gray(src)
	if err != nil {
		return nil, err
	}
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("block size must be odd and >= 3, got %d", blockSize)
	}
	return &grayBitmap{img: imaging.AdaptiveThreshold(g, blockSize, c)}, nil
}

// MorphologicalClose implements Provider.
func (n *Native) MorphologicalClose(src Bitmap, kernel int) (Bitmap, error) {
	g, err := n.gray(src)
	if err != nil {
		return nil, err
	}
	if kernel < 1 {
		return nil, fmt.Errorf("kernel size must be >= 1, got %d", kernel)
	}
	return &grayBitmap{img: imaging.MorphClose(g, kernel)}, nil
}

// Edges implements Provider.
func (n *Native) Edges(src Bitmap, low, high float64) (Bitmap, error) {
	g, err := n.gray(src)
	if err != nil {
		return nil, err
	}
	if low > high {
		low, high = high, low
	}
	return &grayBitmap{img: imaging.Canny(g, low, high)}, nil
}

// FindExternalContours implements Provider.
func (n *Native) FindExternalContours(src Bitmap) ([]Contour, error) {
	g, err := n.gray(src)
	if err != nil {
		return nil, err
	}
	traced := findExternalContours(g)
	out := make([]Contour, len(traced))
	for i, pts := range traced {
		out[i] = &pointContour{pts: pts}
	}
	return out, nil
}

func (*Native) points(c Contour) ([]image.Point, error) {
	pc, ok := c.(*pointContour)
	if !ok {
		return nil, fmt.Errorf("native provider cannot read contour of type %T", c)
	}
	if pc.pts == nil {
		return nil, errClosed
	}
	return pc.pts, nil
}

// MinAreaRect implements Provider.
func (n *Native) MinAreaRect(c Contour) (RotatedRect, error) {
	pts, err := n.points(c)
	if err != nil {
		return RotatedRect{}, err
	}
	return minAreaRect(pts), nil
}

// ContourArea implements Provider.
func (n *Native) ContourArea(c Contour) (float64, error) {
	pts, err := n.points(c)
	if err != nil {
		return 0, err
	}
	return polygonArea(pts), nil
}
