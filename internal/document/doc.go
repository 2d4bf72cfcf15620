// Package document turns input files into page bitmaps.
//
// A document is either a single bitmap (PNG, JPEG, GIF, BMP, TIFF, WebP) or a
// PDF. PDF pages are rasterized at a configurable resolution by compositing
// the page's embedded raster images onto the page viewport, which covers the
// scanned shelf lists this tool is built for. Pages are always indexed from 0.
//
// # Thread Safety
//
// Load and LoadBytes are safe for concurrent use. Cache is safe for concurrent
// use by multiple goroutines.
package document
