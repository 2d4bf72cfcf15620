package ocr

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
)

func TestTesseract_NotReadyBeforeInitialize(t *testing.T) {
	engine := NewTesseract("")
	defer engine.Close()

	if engine.Ready() {
		t.Fatal("new engine should not be ready")
	}
	if _, err := engine.Recognize(image.NewGray(image.Rect(0, 0, 4, 4))); !errors.Is(err, ErrEngineNotReady) {
		t.Errorf("Recognize: got %v, want ErrEngineNotReady", err)
	}
	if err := engine.SetCharacterWhitelist(DigitWhitelist); !errors.Is(err, ErrEngineNotReady) {
		t.Errorf("SetCharacterWhitelist: got %v, want ErrEngineNotReady", err)
	}
}

func TestTesseract_MissingTessdata(t *testing.T) {
	engine := NewTesseract(filepath.Join(t.TempDir(), "missing"))
	defer engine.Close()

	err := engine.Initialize("eng")
	if !apperrors.IsKind(err, apperrors.KindInitialization) {
		t.Fatalf("expected initialization error, got %v", err)
	}
	if engine.Ready() {
		t.Error("engine should not be ready after a failed initialization")
	}
}
