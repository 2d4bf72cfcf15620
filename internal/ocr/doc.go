// Package ocr reads shelf labels inside detected rectangles.
//
// The Engine interface is the recognition capability: initialize for a
// language, optionally restrict the character set, recognize a bitmap.
// Tesseract implements it with gosseract/v2.
//
// Extractor runs an Engine over the candidates of one page: it crops each
// bounding box, upsamples the crop with Lanczos resampling, recognizes it and
// parses digit tokens out of the result. Full-width digits (U+FF10-U+FF19)
// are folded to ASCII before tokenizing.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Concurrency
//
// An engine instance holds serialized state. Extractor calls it for one
// candidate at a time and never shares it across goroutines.
package ocr
