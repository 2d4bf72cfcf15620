// Package imaging provides the raster operations the shelf detector is built on.
//
// It covers decoding page bitmaps, the binarization chain that feeds contour
// extraction (grayscale, adaptive mean threshold, morphological closing and
// Canny edges), cropping and upsampling regions for OCR, and drawing preview
// overlays of detected shelves.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based and relative to the image
// origin:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Binary Images
//
// Binarization steps return *image.Gray where 255 marks foreground and 0
// background. Threshold uses the inverted convention (dark ink becomes
// foreground) so that printed shelf borders end up as 255.
//
// # Thread Safety
//
// Every function is stateless and allocates its own output, so different
// images can be processed concurrently. No function mutates its input.
package imaging
