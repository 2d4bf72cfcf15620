package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) *image.Gray {
	return grayFromImage(effect.Grayscale(img))
}

// AdaptiveThreshold binarizes gray with a local mean threshold and inverted
// output: a pixel becomes foreground (255) when its value is at or below the
// mean of its blockSize x blockSize neighbourhood minus c, background (0)
// otherwise. Borders replicate the edge pixels.
//
// blockSize must be odd and at least 3. With the defaults (35, 10) thin dark
// print turns into solid foreground while large uniform areas, dark or light,
// drop to background.
func AdaptiveThreshold(gray *image.Gray, blockSize int, c float64) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if blockSize < 3 {
		blockSize = 3
	}
	r := blockSize / 2

	// Separable running sums. A row sum of blockSize 8-bit values fits uint16.
	rows := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		line := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		var sum int
		for k := -r; k <= r; k++ {
			sum += int(line[clamp(k, 0, w-1)])
		}
		for x := 0; x < w; x++ {
			rows[y*w+x] = uint16(sum)
			sum += int(line[clamp(x+r+1, 0, w-1)]) - int(line[clamp(x-r, 0, w-1)])
		}
	}

	area := float64(blockSize * blockSize)
	for x := 0; x < w; x++ {
		var sum int
		for k := -r; k <= r; k++ {
			sum += int(rows[clamp(k, 0, h-1)*w+x])
		}
		for y := 0; y < h; y++ {
			mean := float64(sum) / area
			if float64(gray.Pix[y*gray.Stride+x]) <= mean-c {
				out.Pix[y*out.Stride+x] = 255
			}
			sum += int(rows[clamp(y+r+1, 0, h-1)*w+x]) - int(rows[clamp(y-r, 0, h-1)*w+x])
		}
	}
	return out
}

// MorphClose applies a morphological closing (dilation followed by erosion)
// with a square kernel of the given size. It bridges one- or two-pixel gaps in
// printed borders so that contours close up.
//
// Any non-zero input pixel counts as foreground. Both passes are separable
// running counts over replicated borders, so the cost does not grow with the
// kernel.
func MorphClose(bin *image.Gray, kernel int) *image.Gray {
	out := grayFromImage(bin)
	r := kernel / 2
	if r <= 0 {
		return out
	}
	dilated := squareFilter(out, r, false)
	return squareFilter(dilated, r, true)
}

// squareFilter dilates (erode false) or erodes a 0-origin binary image with a
// (2r+1) x (2r+1) square. A pixel dilates to foreground when any neighbour is
// set and erodes to background unless every neighbour is set.
func squareFilter(src *image.Gray, r int, erode bool) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	tmp := image.NewGray(image.Rect(0, 0, w, h))
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	full := 2*r + 1
	decide := func(count int) uint8 {
		if (erode && count == full) || (!erode && count > 0) {
			return 255
		}
		return 0
	}
	set := func(v uint8) int {
		if v != 0 {
			return 1
		}
		return 0
	}

	for y := 0; y < h; y++ {
		line := src.Pix[y*src.Stride : y*src.Stride+w]
		count := 0
		for k := -r; k <= r; k++ {
			count += set(line[clamp(k, 0, w-1)])
		}
		for x := 0; x < w; x++ {
			tmp.Pix[y*tmp.Stride+x] = decide(count)
			count += set(line[clamp(x+r+1, 0, w-1)]) - set(line[clamp(x-r, 0, w-1)])
		}
	}

	for x := 0; x < w; x++ {
		count := 0
		for k := -r; k <= r; k++ {
			count += set(tmp.Pix[clamp(k, 0, h-1)*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			out.Pix[y*out.Stride+x] = decide(count)
			count += set(tmp.Pix[clamp(y+r+1, 0, h-1)*tmp.Stride+x]) - set(tmp.Pix[clamp(y-r, 0, h-1)*tmp.Stride+x])
		}
	}
	return out
}

// grayFromImage copies the red channel (equal to luminance for gray input)
// into a 0-origin *image.Gray.
func grayFromImage(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.Pix[y*out.Stride+x] = src.Pix[y*src.Stride+x*4]
			}
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], src.Pix[y*src.Stride:y*src.Stride+b.Dx()])
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Pix[y*out.Stride+x] = uint8(r >> 8)
			}
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
