package detection

import (
	"math"

	"github.com/ironsheep/shelfscan/internal/geometry"
)

// Polygon is four (x, y) corners, clockwise from the corner that is top-left
// for an unrotated rectangle.
type Polygon [4][2]int

// BBox is an axis-aligned box [xmin, ymin, xmax, ymax] with inclusive edges.
type BBox [4]int

// Candidate is one detected shelf rectangle on one page.
//
// Image-space fields always satisfy 0 <= x < ImgW and 0 <= y < ImgH, and
// BBoxImg is the tight envelope of BoxImg. Text and Numbers stay empty until
// the OCR step fills them.
type Candidate struct {
	Page     int      `json:"page"`
	BoxImg   Polygon  `json:"box_img"`
	BBoxImg  BBox     `json:"bbox_img"`
	BoxNorm  Polygon  `json:"box_norm"`
	BBoxNorm BBox     `json:"bbox_norm"`
	Angle    float64  `json:"angle"`
	Area     float64  `json:"area"`
	Score    float64  `json:"score"`
	ImgW     int      `json:"img_w"`
	ImgH     int      `json:"img_h"`
	Text     string   `json:"text"`
	Numbers  []string `json:"numbers"`
}

// Thresholds are the acceptance limits applied to every contour.
type Thresholds struct {
	MinArea           float64 `json:"min_area"`
	MinRectangularity float64 `json:"min_rectangularity"`
	MaxAspect         float64 `json:"max_aspect"`
}

// DefaultThresholds returns minArea 800, minRectangularity 0.7, maxAspect 25.
func DefaultThresholds() Thresholds {
	return Thresholds{MinArea: 800, MinRectangularity: 0.7, MaxAspect: 25}
}

// Rejection names the first filter rule a contour failed.
type Rejection int

const (
	Accepted Rejection = iota
	RejectTooFewPoints
	RejectDegenerateRect
	RejectTooSmall
	RejectTooElongated
	RejectNotRectangular
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectTooFewPoints:
		return "too_few_points"
	case RejectDegenerateRect:
		return "degenerate_rect"
	case RejectTooSmall:
		return "too_small"
	case RejectTooElongated:
		return "too_elongated"
	case RejectNotRectangular:
		return "not_rectangular"
	}
	return "unknown"
}

const rectEpsilon = 1e-6

// Score combines fill ratio and elongation, each contributing half.
func Score(rectangularity, aspect, maxAspect float64) float64 {
	return 0.5*rectangularity + 0.5*(1-math.Min(aspect/maxAspect, 1))
}

// Evaluate applies the filter rules to contour c in order and returns the
// scored candidate when all pass. The first failing rule wins and no further
// measurements are taken. imgW and imgH bound the polygon corners.
//
// Evaluate does not close c.
func Evaluate(p geometry.Provider, c geometry.Contour, imgW, imgH int, th Thresholds) (*Candidate, Rejection, error) {
	if c.Len() < 4 {
		return nil, RejectTooFewPoints, nil
	}

	rect, err := p.MinAreaRect(c)
	if err != nil {
		return nil, Accepted, err
	}
	rw, rh := rect.Width, rect.Height
	if rw <= 1 || rh <= 1 {
		return nil, RejectDegenerateRect, nil
	}

	area := rw * rh
	if area < th.MinArea {
		return nil, RejectTooSmall, nil
	}

	aspect := math.Max(rw, rh) / math.Max(1, math.Min(rw, rh))
	if aspect > th.MaxAspect {
		return nil, RejectTooElongated, nil
	}

	contourArea, err := p.ContourArea(c)
	if err != nil {
		return nil, Accepted, err
	}
	rectangularity := contourArea / (area + rectEpsilon)
	if rectangularity < th.MinRectangularity {
		return nil, RejectNotRectangular, nil
	}

	poly := polygonFromCorners(rect.Corners, imgW, imgH)
	return &Candidate{
		BoxImg:  poly,
		BBoxImg: envelope(poly),
		Angle:   rect.Angle,
		Area:    area,
		Score:   Score(rectangularity, aspect, th.MaxAspect),
		ImgW:    imgW,
		ImgH:    imgH,
		Numbers: []string{},
	}, Accepted, nil
}

// polygonFromCorners rounds corners half away from zero and clamps them into
// the bitmap.
func polygonFromCorners(corners [4]geometry.Point, imgW, imgH int) Polygon {
	var poly Polygon
	for i, pt := range corners {
		poly[i] = [2]int{
			clampInt(int(math.Round(pt.X)), 0, imgW-1),
			clampInt(int(math.Round(pt.Y)), 0, imgH-1),
		}
	}
	return poly
}

func envelope(poly Polygon) BBox {
	b := BBox{poly[0][0], poly[0][1], poly[0][0], poly[0][1]}
	for _, pt := range poly[1:] {
		b[0] = min(b[0], pt[0])
		b[1] = min(b[1], pt[1])
		b[2] = max(b[2], pt[0])
		b[3] = max(b[3], pt[1])
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
