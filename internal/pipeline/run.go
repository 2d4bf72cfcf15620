package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/document"
	"github.com/ironsheep/shelfscan/internal/export"
	"github.com/ironsheep/shelfscan/internal/logger"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

// RecognitionFailure identifies a candidate that was kept without text
// because its recognition failed.
type RecognitionFailure struct {
	Page int `json:"page"`

	// Index is the position of the candidate in Result.Candidates; ShelfID
	// is the matching 1-based export id.
	Index   int    `json:"index"`
	ShelfID int    `json:"shelf_id"`
	Error   string `json:"error"`
}

// Result is the output of one successful run.
type Result struct {
	RunID       string                `json:"run_id"`
	Candidates  []detection.Candidate `json:"candidates"`
	Pages       int                   `json:"pages"`
	EmptyPages  []int                 `json:"empty_pages"`
	Recognized  int                   `json:"recognized"`
	OCRFailed   int                   `json:"ocr_failed"`
	OCRFailures []RecognitionFailure  `json:"ocr_failures"`
	Duration    time.Duration         `json:"duration"`
}

// Summary is a Result without its candidates.
type Summary struct {
	RunID       string               `json:"run_id"`
	Candidates  int                  `json:"candidates"`
	Pages       int                  `json:"pages"`
	EmptyPages  []int                `json:"empty_pages"`
	Recognized  int                  `json:"recognized"`
	OCRFailed   int                  `json:"ocr_failed"`
	OCRFailures []RecognitionFailure `json:"ocr_failures"`
	Duration    time.Duration        `json:"duration"`
}

// Summary returns the counts of r.
func (r *Result) Summary() Summary {
	return Summary{
		RunID:       r.RunID,
		Candidates:  len(r.Candidates),
		Pages:       r.Pages,
		EmptyPages:  r.EmptyPages,
		Recognized:  r.Recognized,
		OCRFailed:   r.OCRFailed,
		OCRFailures: r.OCRFailures,
		Duration:    r.Duration,
	}
}

// Run detects shelves on every page, in order, and returns the combined
// candidates in page-then-detection order. Each candidate carries the Index
// of its page.
//
// Run waits for initialization using ctx; once processing starts it runs to
// completion or to the first error. On error no result is returned and the
// session's last result set is cleared.
//
// # Errors
//
//   - Initialization error when a subsystem failed, or when OCR is requested
//     but the session was created without it
//   - Degenerate-geometry error for pages smaller than 2x2
//   - *ocr.RecognitionError under the abort policy
func (s *Session) Run(ctx context.Context, pages []document.Page, opts Options) (*Result, error) {
	if err := s.Await(ctx); err != nil {
		s.ClearLast()
		return nil, err
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.run(pages, opts)
	s.mu.Lock()
	if err != nil {
		s.last = nil
	} else {
		s.last = res
	}
	s.mu.Unlock()
	return res, err
}

func (s *Session) run(pages []document.Page, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithField("run_id", runID)

	det, err := s.Detector(opts.Detection)
	if err != nil {
		return nil, err
	}

	var extractor *ocr.Extractor
	if opts.UseOCR {
		s.mu.RLock()
		engine := s.engine
		s.mu.RUnlock()
		if engine == nil {
			return nil, ocr.ErrEngineNotReady
		}
		extractor = ocr.NewExtractor(engine)
	}

	res := &Result{
		RunID:       runID,
		Candidates:  []detection.Candidate{},
		Pages:       len(pages),
		EmptyPages:  []int{},
		OCRFailures: []RecognitionFailure{},
	}
	log.WithFields(logrus.Fields{"pages": len(pages), "ocr": opts.UseOCR}).Info("run started")

	for _, page := range pages {
		cands, err := det.DetectPage(page.Image, page.Index)
		if err != nil {
			log.WithError(err).WithField("page", page.Index).Error("run aborted")
			return nil, err
		}
		if len(cands) == 0 {
			log.WithField("page", page.Index).Info("page produced no candidates")
			res.EmptyPages = append(res.EmptyPages, page.Index)
			continue
		}

		if extractor != nil {
			report, err := extractor.Annotate(page.Image, cands, opts.OCR)
			if err != nil {
				log.WithError(err).WithField("page", page.Index).Error("run aborted")
				return nil, err
			}
			res.Recognized += report.Recognized
			res.OCRFailed += len(report.Failed)
			for _, f := range report.Failed {
				idx := len(res.Candidates) + f.Index
				res.OCRFailures = append(res.OCRFailures, RecognitionFailure{
					Page:    page.Index,
					Index:   idx,
					ShelfID: idx + 1,
					Error:   f.Err.Error(),
				})
			}
		}

		for i := range cands {
			cands[i].Page = page.Index
		}
		res.Candidates = append(res.Candidates, cands...)
		log.WithFields(logrus.Fields{"page": page.Index, "candidates": len(cands)}).Debug("page done")
	}

	res.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"candidates":  len(res.Candidates),
		"empty_pages": len(res.EmptyPages),
		"duration":    res.Duration.String(),
	}).Info("run finished")
	return res, nil
}

// ClearLast drops the last result set. Callers use it when a detect request
// fails before reaching Run, so exports never serve the previous document.
func (s *Session) ClearLast() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}

// Last returns a copy of the most recent successful result, or nil when the
// last run failed or no run happened yet.
func (s *Session) Last() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	cp.Candidates = append([]detection.Candidate(nil), s.last.Candidates...)
	cp.OCRFailures = append([]RecognitionFailure{}, s.last.OCRFailures...)
	return &cp
}

// Export writes the last successful result set. It returns
// export.ErrNoResults when there is none or it is empty.
func (s *Session) Export(w io.Writer, format export.Format) error {
	last := s.Last()
	if last == nil {
		return export.ErrNoResults
	}
	return export.Write(w, format, last.Candidates)
}
