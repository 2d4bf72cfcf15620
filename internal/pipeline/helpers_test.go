package pipeline

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/ironsheep/shelfscan/internal/config"
	"github.com/ironsheep/shelfscan/internal/document"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

// shelfPage draws a white 300x200 page, optionally with one black 100x50 shelf.
func shelfPage(index int, withShelf bool) document.Page {
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	shelf := image.Rect(100, 75, 200, 125)
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			if withShelf && image.Pt(x, y).In(shelf) {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return document.Page{Index: index, Image: img}
}

// fakeEngine returns a fixed text for every crop.
type fakeEngine struct {
	mu        sync.Mutex
	text      string
	initErr   error
	recErr    error
	failOn    int // 1-based Recognize call that fails with recErr; 0 fails every call
	ready     bool
	closed    bool
	inits     int
	recognize int
}

func (f *fakeEngine) Initialize(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	if f.initErr != nil {
		return f.initErr
	}
	f.ready = true
	return nil
}

func (f *fakeEngine) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeEngine) SetCharacterWhitelist(string) error { return nil }

func (f *fakeEngine) Recognize(image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recognize++
	if f.recErr != nil && (f.failOn == 0 || f.failOn == f.recognize) {
		return "", f.recErr
	}
	return f.text, nil
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.ready = false
	return nil
}

func engineFactory(e *fakeEngine) Option {
	return WithEngineFactory(func(*config.Config) ocr.Engine { return e })
}

var errBackendMissing = errors.New("backend library not found")
