package export

import (
	"image"
	"strconv"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/imaging"
)

// Overlay draws the candidates that belong to page on a copy of img. Each
// outline is labelled with its shelf_id, the 1-based position in cands, so
// the preview matches the CSV rows.
func Overlay(img image.Image, page int, cands []detection.Candidate, opts imaging.OverlayOptions) *image.NRGBA {
	shapes := Shapes(page, cands)
	return imaging.Overlay(img, shapes, opts)
}

// Shapes converts the candidates of page into overlay shapes.
func Shapes(page int, cands []detection.Candidate) []imaging.Shape {
	shapes := []imaging.Shape{}
	for i := range cands {
		c := &cands[i]
		if c.Page != page {
			continue
		}
		pts := make([]image.Point, len(c.BoxImg))
		for j, p := range c.BoxImg {
			pts[j] = image.Pt(p[0], p[1])
		}
		shapes = append(shapes, imaging.Shape{Label: strconv.Itoa(i + 1), Points: pts})
	}
	return shapes
}
