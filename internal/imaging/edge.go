package imaging

import (
	"image"
	"math"
)

// Canny runs Canny edge detection over an 8-bit grayscale image and returns a
// binary edge map (255 = edge, 0 = non-edge) with the same dimensions.
//
// Thresholds are gradient magnitudes on the 0-255 intensity scale. The input
// is expected to be a binarized mask already, so no smoothing pass is applied.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: keep only local maxima along the gradient
//     direction quantized to 0°, 45°, 90° or 135°
//
//  3. Hysteresis thresholding:
//     - Pixels at or above high are strong edges (always kept)
//     - Pixels between low and high are weak edges
//     (kept only if 8-connected, possibly through other weak edges, to a strong edge)
//     - Pixels below low are discarded
//
// Pixels on the outermost image border are never reported as edges.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[clamp(y, 0, height-1)*gray.Stride+clamp(x, 0, width-1)])
	}

	magnitude := make([]float64, width*height)
	sector := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*width + x
			magnitude[i] = math.Sqrt(gx*gx + gy*gy)
			sector[i] = gradientSector(math.Atan2(gy, gx))
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag < low {
				continue
			}

			var n1, n2 float64
			switch sector[i] {
			case 0:
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case 1:
				n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
			case 2:
				n1, n2 = magnitude[i-width], magnitude[i+width]
			default:
				n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Edge tracking by hysteresis
	stack := make([]int, 0, 256)
	for i, val := range suppressed {
		if val >= high && result.Pix[i/width*result.Stride+i%width] == 0 {
			result.Pix[i/width*result.Stride+i%width] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cx, cy := cur%width, cur/width
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					px, py := cx+kx, cy+ky
					if px < 1 || py < 1 || px >= width-1 || py >= height-1 {
						continue
					}
					n := py*width + px
					if suppressed[n] >= low && result.Pix[py*result.Stride+px] == 0 {
						result.Pix[py*result.Stride+px] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// gradientSector quantizes a gradient direction (screen coordinates, y down)
// into one of four neighbour axes: 0 horizontal, 1 down-right diagonal,
// 2 vertical, 3 down-left diagonal.
func gradientSector(angle float64) uint8 {
	switch {
	case (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8):
		return 0
	case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
		return 1
	case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
		return 2
	default:
		return 3
	}
}
