package document

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	shelfimg "github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/logger"
)

// pointsPerInch is the PDF user-space unit.
const pointsPerInch = 72.0

// loadPDF rasterizes every page of the PDF at path.
func loadPDF(path string, dpi int) ([]Page, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	r, err := reader.Open(path)
	if err != nil {
		return nil, apperrors.NewInputFormatError("cannot parse PDF", err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, apperrors.NewInputFormatError("cannot read PDF page tree", err)
	}
	if count == 0 {
		return nil, apperrors.NewInputFormatError("PDF has no pages", nil)
	}

	scale := float64(dpi) / pointsPerInch
	out := make([]Page, 0, count)
	for i := 0; i < count; i++ {
		p, err := r.GetPage(i)
		if err != nil {
			return nil, apperrors.NewInputFormatError(fmt.Sprintf("cannot read PDF page %d", i+1), err)
		}
		img, err := rasterizePage(r, p, scale)
		if err != nil {
			return nil, apperrors.NewInputFormatError(fmt.Sprintf("cannot render PDF page %d", i+1), err)
		}
		logger.WithFields(logrus.Fields{
			"page":   i,
			"width":  img.Bounds().Dx(),
			"height": img.Bounds().Dy(),
		}).Debug("rendered PDF page")
		out = append(out, Page{Index: i, Image: img})
	}
	return out, nil
}

// rasterizePage renders the dominant embedded raster of a page over the
// page's MediaBox at the given scale and applies the page rotation.
func rasterizePage(r *reader.Reader, p *pages.Page, scale float64) (image.Image, error) {
	images, err := r.ExtractPageImages(p)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	var src image.Image
	for i := range images {
		decoded, err := decodePageImage(&images[i])
		if err != nil {
			logger.WithError(err).WithField("xobject", images[i].Name).Debug("skipping undecodable page image")
			continue
		}
		if src == nil || area(decoded) > area(src) {
			src = decoded
		}
	}
	if src == nil {
		return nil, fmt.Errorf("page has no raster content")
	}

	width, height := viewport(p, scale, src.Bounds())
	if width != src.Bounds().Dx() || height != src.Bounds().Dy() {
		src = imaging.Resize(src, width, height, imaging.Lanczos)
	}

	// Rotate is clockwise for display; imaging rotates counter-clockwise.
	switch ((p.Rotate() % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(src), nil
	case 180:
		return imaging.Rotate180(src), nil
	case 270:
		return imaging.Rotate90(src), nil
	}
	return src, nil
}

// decodePageImage turns an extracted XObject into a bitmap. JPEG streams are
// kept encoded by the reader and are decoded directly.
func decodePageImage(pi *reader.PageImage) (image.Image, error) {
	switch pi.Filter {
	case "DCTDecode", "DCT":
		img, _, err := shelfimg.DecodeBytes(pi.Data)
		return img, err
	case "JPXDecode":
		return nil, fmt.Errorf("JPEG 2000 images are not supported")
	}
	data, err := pi.ToPNG()
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	img, _, err := shelfimg.DecodeBytes(data)
	return img, err
}

// viewport returns the unrotated page size in pixels. Pages with an unusable
// MediaBox keep the raster's own size.
func viewport(p *pages.Page, scale float64, fallback image.Rectangle) (int, int) {
	w, werr := p.Width()
	h, herr := p.Height()
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return fallback.Dx(), fallback.Dy()
	}
	pw := int(w*scale + 0.5)
	ph := int(h*scale + 0.5)
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}
	return pw, ph
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}
