package ocr

import (
	"errors"
	"image"
)

// fakeEngine replays canned recognition results.
type fakeEngine struct {
	ready      bool
	texts      []string
	failAt     map[int]bool
	whitelists []string
	sizes      []image.Point
	calls      int
}

func (f *fakeEngine) Initialize(string) error {
	f.ready = true
	return nil
}

func (f *fakeEngine) Ready() bool { return f.ready }

func (f *fakeEngine) SetCharacterWhitelist(charset string) error {
	if !f.ready {
		return ErrEngineNotReady
	}
	f.whitelists = append(f.whitelists, charset)
	return nil
}

func (f *fakeEngine) Recognize(img image.Image) (string, error) {
	i := f.calls
	f.calls++
	f.sizes = append(f.sizes, image.Pt(img.Bounds().Dx(), img.Bounds().Dy()))
	if f.failAt[i] {
		return "", errors.New("engine crashed")
	}
	if i < len(f.texts) {
		return f.texts[i], nil
	}
	return "", nil
}

func (f *fakeEngine) Close() error {
	f.ready = false
	return nil
}
