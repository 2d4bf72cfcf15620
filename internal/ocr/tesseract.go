package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	"github.com/ironsheep/shelfscan/internal/imaging"
)

// Tesseract is an Engine backed by a single gosseract client.
type Tesseract struct {
	mu             sync.Mutex
	client         *gosseract.Client
	tessdataPrefix string
	lang           string
	whitelist      string
	ready          bool
}

// NewTesseract creates an uninitialized engine. tessdataPrefix overrides the
// directory Tesseract loads language data from; empty keeps the default.
func NewTesseract(tessdataPrefix string) *Tesseract {
	return &Tesseract{tessdataPrefix: tessdataPrefix}
}

// Version returns the linked Tesseract library version.
func Version() string {
	return gosseract.Version()
}

// Initialize implements Engine. Calling it again with the same language
// after success is a no-op.
//
// gosseract defers loading language data until the first recognition, so a
// blank warm-up image is recognized here to surface missing data immediately.
func (t *Tesseract) Initialize(lang string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	lang = NormalizeLanguage(lang)
	if t.ready && t.lang == lang {
		return nil
	}
	if t.client != nil {
		t.client.Close()
		t.client = nil
		t.ready = false
	}

	client := gosseract.NewClient()
	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			client.Close()
			return apperrors.NewInitializationError(fmt.Sprintf("failed to set tessdata prefix %q", t.tessdataPrefix), err)
		}
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		client.Close()
		return apperrors.NewInitializationError(fmt.Sprintf("failed to set OCR language %q", lang), err)
	}

	warmup, err := blankPNG()
	if err != nil {
		client.Close()
		return apperrors.NewInitializationError("failed to build OCR warm-up image", err)
	}
	if err := client.SetImageFromBytes(warmup); err != nil {
		client.Close()
		return apperrors.NewInitializationError("failed to load OCR warm-up image", err)
	}
	if _, err := client.Text(); err != nil {
		client.Close()
		return apperrors.NewInitializationError(fmt.Sprintf("failed to load OCR language data for %q", lang), err)
	}

	t.client = client
	t.lang = lang
	t.whitelist = ""
	t.ready = true
	return nil
}

// Ready implements Engine.
func (t *Tesseract) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Language returns the language the engine was initialized with.
func (t *Tesseract) Language() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lang
}

// SetCharacterWhitelist implements Engine. Tesseract re-initializes when a
// variable changes, so an unchanged whitelist is not sent again.
func (t *Tesseract) SetCharacterWhitelist(charset string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready {
		return ErrEngineNotReady
	}
	if charset == t.whitelist {
		return nil
	}
	if err := t.client.SetWhitelist(charset); err != nil {
		return apperrors.NewRecognitionError("failed to set character whitelist", err)
	}
	t.whitelist = charset
	return nil
}

// Recognize implements Engine.
func (t *Tesseract) Recognize(img image.Image) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready {
		return "", ErrEngineNotReady
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", err
	}
	if err := t.client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Close implements Engine.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ready = false
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func blankPNG() ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
