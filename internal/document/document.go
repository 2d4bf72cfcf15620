package document

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	"github.com/ironsheep/shelfscan/internal/imaging"
)

// DefaultDPI is the PDF rasterization resolution used when none is given.
const DefaultDPI = 300

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF")

// Page is one rasterized page of a document.
type Page struct {
	// Index is the 0-based position of the page in its document.
	Index int

	// Image is the page bitmap with a (0,0) origin.
	Image image.Image
}

// Kind is the detected document type.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// Sniff reports whether content is a PDF, looking first at the magic bytes and
// then at the file extension.
func Sniff(name string, head []byte) Kind {
	if bytes.HasPrefix(head, pdfMagic) {
		return KindPDF
	}
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return KindPDF
	}
	return KindImage
}

// Load reads the file at path and returns its pages in order.
//
// dpi only affects PDF input; values <= 0 fall back to DefaultDPI.
//
// # Errors
//
// Every failure is an input-format error: missing or unreadable files, content
// that is neither a supported bitmap nor a PDF, and PDF pages without raster
// content.
func Load(path string, dpi int) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputFormatError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperrors.NewInputFormatError(fmt.Sprintf("cannot read %s", path), err)
	}

	if Sniff(path, head[:n]) == KindPDF {
		return loadPDF(path, dpi)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, apperrors.NewInputFormatError(fmt.Sprintf("cannot read %s", path), err)
	}
	return decodeImage(f, path)
}

// LoadBytes is Load over an in-memory upload. name is only used for the
// extension fallback and error messages.
func LoadBytes(name string, data []byte, dpi int) ([]Page, error) {
	if len(data) == 0 {
		return nil, apperrors.NewInputFormatError(fmt.Sprintf("%s is empty", name), nil)
	}
	if Sniff(name, data) != KindPDF {
		return decodeImage(bytes.NewReader(data), name)
	}

	// The PDF reader works on files.
	tmp, err := os.CreateTemp("", "shelfscan-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	return loadPDF(tmp.Name(), dpi)
}

func decodeImage(r io.Reader, name string) ([]Page, error) {
	img, _, err := imaging.Decode(r)
	if err != nil {
		return nil, apperrors.NewInputFormatError(fmt.Sprintf("%s is not a supported image or PDF", name), err)
	}
	return []Page{{Index: 0, Image: img}}, nil
}
