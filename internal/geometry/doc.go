// Package geometry defines the image-geometry capability the shelf detector
// depends on and provides its implementations.
//
// A Provider turns a page bitmap into a binarized edge map, extracts the outer
// borders of connected regions and measures them with a minimum-area rotated
// rectangle. Two providers exist:
//
//   - Native: pure Go, always available.
//   - GoCV: OpenCV through gocv, compiled in with the "gocv" build tag.
//
// Both follow the same conventions so their results are interchangeable:
//
//   - Binary bitmaps are 8-bit with 255 as foreground.
//   - Contours are the outer borders of 8-connected foreground regions that
//     are not nested inside another region, with straight runs collapsed to
//     their end points.
//   - RotatedRect angles are degrees in [0, 90). Width is measured along the
//     angle direction and Height perpendicular to it. Corners are listed
//     clockwise on screen, starting at the corner that is top-left when the
//     angle is 0.
//
// Bitmaps and contours are provider-owned resources. Callers must Close them
// once done, on every exit path.
package geometry
