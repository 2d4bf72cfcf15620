package geometry

import "image"

// Moore neighbourhood in clockwise screen order, starting West.
var mooreDirs = [8]image.Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// mooreIndex maps (dx+1)+(dy+1)*3 to an index into mooreDirs.
var mooreIndex = [9]int{1, 2, 3, 0, -1, 4, 7, 6, 5}

func dirIndex(d image.Point) int {
	return mooreIndex[(d.X+1)+(d.Y+1)*3]
}

// findExternalContours traces the outer border of every 8-connected
// foreground region of bin that is not enclosed by another region, and
// returns each border with straight runs collapsed.
//
// Regions are reported in raster order of their top-left-most pixel.
func findExternalContours(bin *image.Gray) [][]image.Point {
	w, h := bin.Bounds().Dx(), bin.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil
	}

	fg := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && bin.Pix[y*bin.Stride+x] != 0
	}

	type region struct {
		start  image.Point
		border []image.Point
		bounds image.Rectangle
	}

	labels := make([]int32, w*h)
	var regions []region
	queue := make([]int, 0, 1024)
	maxSteps := 4*w*h + 8

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if labels[y*w+x] != 0 || !fg(x, y) {
				continue
			}
			id := int32(len(regions) + 1)
			labels[y*w+x] = id
			queue = append(queue[:0], y*w+x)
			for len(queue) > 0 {
				cur := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				cx, cy := cur%w, cur/w
				for _, d := range mooreDirs {
					nx, ny := cx+d.X, cy+d.Y
					if fg(nx, ny) && labels[ny*w+nx] == 0 {
						labels[ny*w+nx] = id
						queue = append(queue, ny*w+nx)
					}
				}
			}

			start := image.Pt(x, y)
			border := traceBorder(fg, start, maxSteps)
			regions = append(regions, region{start: start, border: border, bounds: pointBounds(border)})
		}
	}

	var out [][]image.Point
	for i, r := range regions {
		nested := false
		for j, outer := range regions {
			if i == j || !r.start.In(outer.bounds) {
				continue
			}
			if insidePolygon(r.start, outer.border) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, compressChain(r.border))
		}
	}
	return out
}

// traceBorder follows the outer border of the region containing start with
// Moore-neighbour tracing. start must be the region's first pixel in raster
// order, so its West neighbour is background.
func traceBorder(fg func(x, y int) bool, start image.Point, maxSteps int) []image.Point {
	pts := []image.Point{start}
	c := start
	back := 0
	var first image.Point

	for step := 0; step < maxSteps; step++ {
		found := -1
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if fg(c.X+mooreDirs[d].X, c.Y+mooreDirs[d].Y) {
				found = d
				break
			}
		}
		if found < 0 {
			return pts
		}

		next := c.Add(mooreDirs[found])
		if step == 0 {
			first = next
		} else if c == start && next == first {
			return pts[:len(pts)-1]
		}

		prev := c.Add(mooreDirs[(found+7)%8])
		back = dirIndex(prev.Sub(next))
		pts = append(pts, next)
		c = next
	}
	return pts
}

// compressChain drops every vertex whose incoming and outgoing steps have the
// same direction, keeping only the ends of horizontal, vertical and diagonal runs.
func compressChain(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	out := make([]image.Point, 0, n/2+1)
	for i, p := range pts {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		if p.Sub(prev) != next.Sub(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return pts
	}
	return out
}

// insidePolygon reports whether p lies inside poly by even-odd ray casting.
func insidePolygon(p image.Point, poly []image.Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := float64(b.X-a.X)*float64(p.Y-a.Y)/float64(b.Y-a.Y) + float64(a.X)
			if float64(p.X) < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// pointBounds returns the half-open bounding box of pts.
func pointBounds(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0].Add(image.Pt(1, 1))}
	for _, p := range pts[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}
