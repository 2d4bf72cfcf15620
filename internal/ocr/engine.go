package ocr

import (
	"image"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
)

// Engine is a text recognition backend.
type Engine interface {
	// Initialize loads language data for lang (one or more codes joined
	// with "+"). It returns an initialization error if the data is missing.
	Initialize(lang string) error

	// Ready reports whether Initialize has succeeded.
	Ready() bool

	// SetCharacterWhitelist restricts recognized characters to charset.
	// An empty charset removes the restriction.
	SetCharacterWhitelist(charset string) error

	// Recognize returns the raw text found in img.
	Recognize(img image.Image) (string, error)

	Close() error
}

// ErrEngineNotReady is returned when recognition is attempted before the
// engine has been initialized.
var ErrEngineNotReady = apperrors.NewInitializationError("recognition engine is not initialized", nil)
