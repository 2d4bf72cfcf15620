// Package detection turns page bitmaps into scored shelf rectangles.
//
// # Pipeline
//
// DetectPage drives a geometry.Provider through binarization and contour
// extraction, then applies three pure stages that can be tested without any
// image backend:
//
//  1. Evaluate: per-contour filter and scorer. Rules run in order and the
//     first failure rejects the contour:
//     fewer than 4 points; rotated-rect side <= 1; area < MinArea;
//     aspect > MaxAspect; rectangularity < MinRectangularity.
//  2. NMS: greedy non-maximum suppression on image-space bounding boxes.
//  3. Normalize: linear mapping of pixel coordinates onto a fixed logical grid
//     (1240x1754 by default) so scans of different resolutions compare.
//
// # Scoring
//
//	score = 0.5 * rectangularity + 0.5 * (1 - min(aspect / maxAspect, 1))
//
// where rectangularity = contourArea / (rw*rh + 1e-6) and
// aspect = max(rw, rh) / max(1, min(rw, rh)). Candidate.Area is rw*rh, the
// rotated rectangle area, not the contour's own area.
//
// # Coordinate System
//
// Image-space polygons are rounded half away from zero and clamped into the
// bitmap, so every bounding box lies within [0, ImgW) x [0, ImgH). Bounding
// boxes are inclusive on both ends and IoU measures them in whole pixels:
// a box [x1, y1, x2, y2] covers (x2-x1+1) * (y2-y1+1) pixels.
//
// # Resource Handling
//
// Bitmaps and contours handed out by the provider are closed as soon as the
// stage that consumes them is done, including on early rejection and on
// error paths.
package detection
