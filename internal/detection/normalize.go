package detection

import (
	"fmt"
	"math"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
)

// NormalizePoint maps a pixel coordinate on a w x h bitmap onto the
// normW x normH grid, anchoring (0,0) and (w-1,h-1) to the grid corners.
// w and h must be at least 2.
func NormalizePoint(x, y, w, h, normW, normH int) (int, int) {
	return scaleCoord(x, w, normW), scaleCoord(y, h, normH)
}

// DenormalizePoint is the approximate inverse of NormalizePoint.
func DenormalizePoint(nx, ny, w, h, normW, normH int) (int, int) {
	return scaleCoord(nx, normW, w), scaleCoord(ny, normH, h)
}

func scaleCoord(v, from, to int) int {
	return int(math.Round(float64(v) / float64(from-1) * float64(to-1)))
}

// Normalize fills BoxNorm and BBoxNorm from the image-space fields.
// A bitmap narrower or shorter than 2 pixels has no defined mapping and
// yields a degenerate-geometry error; c is left unchanged in that case.
func Normalize(c *Candidate, normW, normH int) error {
	if c.ImgW < 2 || c.ImgH < 2 {
		return apperrors.NewDegenerateGeometryError(c.Page,
			fmt.Sprintf("cannot normalize coordinates of a %dx%d bitmap", c.ImgW, c.ImgH))
	}

	for i, pt := range c.BoxImg {
		x, y := NormalizePoint(pt[0], pt[1], c.ImgW, c.ImgH, normW, normH)
		c.BoxNorm[i] = [2]int{x, y}
	}
	x1, y1 := NormalizePoint(c.BBoxImg[0], c.BBoxImg[1], c.ImgW, c.ImgH, normW, normH)
	x2, y2 := NormalizePoint(c.BBoxImg[2], c.BBoxImg[3], c.ImgW, c.ImgH, normW, normH)
	c.BBoxNorm = BBox{x1, y1, x2, y2}
	return nil
}
