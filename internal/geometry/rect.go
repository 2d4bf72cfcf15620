package geometry

import (
	"image"
	"math"
	"sort"
)

// polygonArea returns the absolute shoelace area of the closed polygon pts.
func polygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y)
	}
	return math.Abs(float64(sum)) / 2
}

func cross(o, a, b image.Point) int64 {
	return int64(a.X-o.X)*int64(b.Y-o.Y) - int64(a.Y-o.Y)*int64(b.X-o.X)
}

// convexHull returns the convex hull of pts with Andrew's monotone chain,
// without collinear points.
func convexHull(pts []image.Point) []image.Point {
	sorted := make([]image.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	uniq := sorted[:0]
	for _, p := range sorted {
		if len(uniq) == 0 || p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return uniq
	}

	hull := make([]image.Point, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRect finds the minimum-area enclosing rectangle of pts by rotating
// calipers over the convex hull edges. Ties keep the first edge found.
func minAreaRect(pts []image.Point) RotatedRect {
	hull := convexHull(pts)
	switch len(hull) {
	case 0:
		return NewRotatedRect(Point{}, 0, 0, 0)
	case 1:
		return NewRotatedRect(Point{X: float64(hull[0].X), Y: float64(hull[0].Y)}, 0, 0, 0)
	}

	bestArea := math.Inf(1)
	var best RotatedRect
	n := len(hull)
	if n == 2 {
		n = 1
	}
	for i := 0; i < n; i++ {
		a, b := hull[i], hull[(i+1)%len(hull)]
		ex, ey := float64(b.X-a.X), float64(b.Y-a.Y)
		length := math.Hypot(ex, ey)
		if length == 0 {
			continue
		}
		ux, uy := ex/length, ey/length
		vx, vy := -uy, ux

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			px, py := float64(p.X-a.X), float64(p.Y-a.Y)
			pu := px*ux + py*uy
			pv := px*vx + py*vy
			minU, maxU = math.Min(minU, pu), math.Max(maxU, pu)
			minV, maxV = math.Min(minV, pv), math.Max(maxV, pv)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			mu, mv := (minU+maxU)/2, (minV+maxV)/2
			center := Point{
				X: float64(a.X) + mu*ux + mv*vx,
				Y: float64(a.Y) + mu*uy + mv*vy,
			}
			angle := math.Atan2(uy, ux) * 180 / math.Pi
			best = NewRotatedRect(center, maxU-minU, maxV-minV, angle)
		}
	}
	return best
}
