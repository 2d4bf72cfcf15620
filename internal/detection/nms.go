package detection

import (
	"math"
	"sort"
)

// IoU is the intersection over union of two inclusive pixel boxes.
// The union is floored at 1e-6.
func IoU(a, b BBox) float64 {
	xx1, yy1 := max(a[0], b[0]), max(a[1], b[1])
	xx2, yy2 := min(a[2], b[2]), min(a[3], b[3])

	w := max(0, xx2-xx1+1)
	h := max(0, yy2-yy1+1)
	inter := float64(w * h)

	areaA := float64((a[2] - a[0] + 1) * (a[3] - a[1] + 1))
	areaB := float64((b[2] - b[0] + 1) * (b[3] - b[1] + 1))
	return inter / math.Max(1e-6, areaA+areaB-inter)
}

// NMS performs greedy non-maximum suppression on image-space boxes.
//
// Candidates are visited by descending score, ties kept in input order. Each
// visited candidate is kept and every remaining one whose IoU with it is at
// least iouThreshold is dropped. The result is in keep order.
func NMS(cands []Candidate, iouThreshold float64) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cands[order[i]].Score > cands[order[j]].Score
	})

	keep := make([]Candidate, 0, len(cands))
	for len(order) > 0 {
		best := order[0]
		keep = append(keep, cands[best])

		rest := order[1:][:0]
		for _, j := range order[1:] {
			if IoU(cands[best].BBoxImg, cands[j].BBoxImg) < iouThreshold {
				rest = append(rest, j)
			}
		}
		order = rest
	}
	return keep
}
