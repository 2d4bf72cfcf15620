package geometry

import (
	"fmt"
	"image"
	"math"
	"sort"
	"sync"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
)

// Point is a sub-pixel position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RotatedRect is the minimum-area rectangle enclosing a contour.
type RotatedRect struct {
	Center  Point    `json:"center"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Angle   float64  `json:"angle"`
	Corners [4]Point `json:"corners"`
}

// Bitmap is a provider-owned single-channel raster.
type Bitmap interface {
	// Size returns the bitmap width and height in pixels.
	Size() (width, height int)
	Close() error
}

// Contour is a provider-owned closed polyline.
type Contour interface {
	// Points returns the contour vertices in tracing order.
	Points() []image.Point
	Len() int
	Close() error
}

// Provider is the capability set shelf detection runs on.
type Provider interface {
	// Name identifies the backend ("native", "gocv").
	Name() string

	Grayscale(img image.Image) (Bitmap, error)
	AdaptiveThreshold(src Bitmap, blockSize int, c float64) (Bitmap, error)
	MorphologicalClose(src Bitmap, kernel int) (Bitmap, error)
	Edges(src Bitmap, low, high float64) (Bitmap, error)
	FindExternalContours(src Bitmap) ([]Contour, error)
	MinAreaRect(c Contour) (RotatedRect, error)
	ContourArea(c Contour) (float64, error)
}

// Factory creates a ready-to-use provider. Creating the provider is where a
// backend loads its native libraries, so a failure here is an
// initialization error.
type Factory func() (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"native": func() (Provider, error) { return NewNative(), nil },
	}
)

// Register makes a backend available under name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the provider registered under name.
func Open(name string) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, apperrors.NewInitializationError(
			fmt.Sprintf("geometry backend %q is not available (built with: %v)", name, Backends()), nil)
	}
	p, err := f()
	if err != nil {
		return nil, apperrors.NewInitializationError(fmt.Sprintf("failed to start geometry backend %q", name), err)
	}
	return p, nil
}

// NewRotatedRect builds a RotatedRect from a center, side lengths and an
// angle in degrees, folding the angle into [0, 90) and computing corners.
func NewRotatedRect(center Point, width, height, angle float64) RotatedRect {
	angle = math.Mod(angle, 180)
	if angle < 0 {
		angle += 180
	}
	if angle >= 90 {
		angle -= 90
		width, height = height, width
	}
	if r := math.Round(angle); math.Abs(angle-r) < 1e-9 {
		angle = r
	}
	if angle >= 90 {
		angle = 0
		width, height = height, width
	}

	rad := angle * math.Pi / 180
	ux, uy := math.Cos(rad), math.Sin(rad)
	vx, vy := -uy, ux
	hw, hh := width/2, height/2

	corner := func(su, sv float64) Point {
		return Point{
			X: center.X + su*ux*hw + sv*vx*hh,
			Y: center.Y + su*uy*hw + sv*vy*hh,
		}
	}

	return RotatedRect{
		Center: center,
		Width:  width,
		Height: height,
		Angle:  angle,
		Corners: [4]Point{
			corner(-1, -1),
			corner(1, -1),
			corner(1, 1),
			corner(-1, 1),
		},
	}
}
