package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shelfscan/internal/detection"
	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	"github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/logger"
)

// FailurePolicy decides what happens when one candidate cannot be recognized.
type FailurePolicy string

const (
	// FailAbort stops annotation and returns the RecognitionError.
	FailAbort FailurePolicy = "abort"
	// FailKeep leaves the candidate with empty text and numbers, records the
	// failure in the Report and moves on.
	FailKeep FailurePolicy = "keep"
)

// DefaultScale is the upsampling factor applied to crops before recognition.
const DefaultScale = 2.0

// Options configures one Annotate call.
type Options struct {
	NumericOnly bool
	Scale       float64
	OnFailure   FailurePolicy
}

// RecognitionError reports a failed crop or recognition for one candidate.
// Err is an *errors.AppError of kind recognition.
type RecognitionError struct {
	Page  int
	Index int
	Err   error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("page %d candidate %d: %v", e.Page, e.Index, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Report summarizes an Annotate call.
type Report struct {
	Recognized int                 `json:"recognized"`
	Failed     []*RecognitionError `json:"-"`
}

// Extractor annotates candidates with recognized text.
type Extractor struct {
	engine Engine
}

// NewExtractor creates an extractor over engine.
func NewExtractor(engine Engine) *Extractor {
	return &Extractor{engine: engine}
}

// Annotate recognizes the text inside every candidate's bounding box on page
// and fills Text and Numbers in place, one candidate at a time.
//
// Each crop spans max(1, x2-x1) x max(1, y2-y1) pixels from (x1, y1) and is
// upsampled by max(1, Scale). With NumericOnly the engine is restricted to
// DigitWhitelist, otherwise it is unrestricted.
//
// # Errors
//
//   - ErrEngineNotReady if the engine has not been initialized
//   - *RecognitionError for the first failing candidate under FailAbort
func (x *Extractor) Annotate(page image.Image, cands []detection.Candidate, opts Options) (*Report, error) {
	report := &Report{}
	if x.engine == nil || !x.engine.Ready() {
		return report, ErrEngineNotReady
	}
	if len(cands) == 0 {
		return report, nil
	}

	whitelist := ""
	if opts.NumericOnly {
		whitelist = DigitWhitelist
	}
	if err := x.engine.SetCharacterWhitelist(whitelist); err != nil {
		return report, err
	}

	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}

	for i := range cands {
		c := &cands[i]
		raw, err := x.recognize(page, c.BBoxImg, scale)
		if err != nil {
			recErr := &RecognitionError{
				Page:  c.Page,
				Index: i,
				Err:   apperrors.NewRecognitionError("failed to recognize candidate", err),
			}
			if opts.OnFailure != FailKeep {
				return report, recErr
			}
			logger.WithFields(logrus.Fields{
				"page":      c.Page,
				"candidate": i,
			}).WithError(err).Warn("recognition failed, keeping candidate without text")
			c.Text = ""
			c.Numbers = []string{}
			report.Failed = append(report.Failed, recErr)
			continue
		}

		c.Text = strings.TrimSpace(raw)
		c.Numbers = UniqueOrdered(ExtractNumbers(raw))
		report.Recognized++
	}
	return report, nil
}

func (x *Extractor) recognize(page image.Image, b detection.BBox, scale float64) (string, error) {
	w := max(1, b[2]-b[0])
	h := max(1, b[3]-b[1])
	origin := page.Bounds().Min
	rect := image.Rect(b[0], b[1], b[0]+w, b[1]+h).Add(origin)

	crop, err := imaging.CropScaled(page, rect, scale)
	if err != nil {
		return "", err
	}
	return x.engine.Recognize(crop)
}
