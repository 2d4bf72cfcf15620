package detection

import (
	"fmt"
	"image"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	"github.com/ironsheep/shelfscan/internal/geometry"
	"github.com/ironsheep/shelfscan/internal/logger"
	"github.com/sirupsen/logrus"
)

// Options configures one page detection pass.
type Options struct {
	BlockSize   int     `json:"block_size"`
	ThresholdC  float64 `json:"threshold_c"`
	CloseKernel int     `json:"close_kernel"`
	EdgeLow     float64 `json:"edge_low"`
	EdgeHigh    float64 `json:"edge_high"`

	Thresholds Thresholds `json:"thresholds"`
	NMSIoU     float64    `json:"nms_iou"`

	NormW int `json:"norm_w"`
	NormH int `json:"norm_h"`
}

// DefaultOptions returns the standard detection parameters.
func DefaultOptions() Options {
	return Options{
		BlockSize:   35,
		ThresholdC:  10,
		CloseKernel: 3,
		EdgeLow:     60,
		EdgeHigh:    180,
		Thresholds:  DefaultThresholds(),
		NMSIoU:      0.30,
		NormW:       1240,
		NormH:       1754,
	}
}

// Detector finds shelf rectangles on page bitmaps using a geometry provider.
// A Detector holds no per-page state.
type Detector struct {
	provider geometry.Provider
	opts     Options
}

// NewDetector creates a detector over provider p.
func NewDetector(p geometry.Provider, opts Options) *Detector {
	return &Detector{provider: p, opts: opts}
}

// Options returns the detector's configuration.
func (d *Detector) Options() Options {
	return d.opts
}

// DetectPage runs the full detection chain on one page:
// grayscale, adaptive threshold, closing, edges, external contours, the
// candidate filter, NMS and normalization. Every returned candidate carries
// page as its Page. A page without candidates returns an empty slice and no
// error.
//
// # Errors
//
//   - Degenerate-geometry error when the page is smaller than 2x2 pixels
//   - Any error reported by the geometry provider
func (d *Detector) DetectPage(img image.Image, page int) ([]Candidate, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w < 2 || h < 2 {
		return nil, apperrors.NewDegenerateGeometryError(page,
			fmt.Sprintf("page bitmap is %dx%d, need at least 2x2", w, h))
	}

	cands, stats, err := d.candidates(img, w, h)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}

	kept := NMS(cands, d.opts.NMSIoU)
	for i := range kept {
		kept[i].Page = page
		if err := Normalize(&kept[i], d.opts.NormW, d.opts.NormH); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"page":       page,
		"contours":   stats.contours,
		"accepted":   len(cands),
		"candidates": len(kept),
		"rejected":   stats.rejected,
	}).Debug("page detection finished")

	if kept == nil {
		kept = []Candidate{}
	}
	return kept, nil
}

type detectStats struct {
	contours int
	rejected map[string]int
}

// candidates runs the provider chain and filter. Each provider resource is
// released as soon as the next stage no longer needs it.
func (d *Detector) candidates(img image.Image, w, h int) ([]Candidate, detectStats, error) {
	stats := detectStats{rejected: make(map[string]int)}
	p := d.provider

	gray, err := p.Grayscale(img)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to convert to grayscale: %w", err)
	}
	bin, err := p.AdaptiveThreshold(gray, d.opts.BlockSize, d.opts.ThresholdC)
	gray.Close()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to threshold: %w", err)
	}
	closed, err := p.MorphologicalClose(bin, d.opts.CloseKernel)
	bin.Close()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to close: %w", err)
	}
	edges, err := p.Edges(closed, d.opts.EdgeLow, d.opts.EdgeHigh)
	closed.Close()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to detect edges: %w", err)
	}
	contours, err := p.FindExternalContours(edges)
	edges.Close()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to find contours: %w", err)
	}
	stats.contours = len(contours)

	var out []Candidate
	for i, c := range contours {
		cand, reason, err := Evaluate(p, c, w, h, d.opts.Thresholds)
		c.Close()
		if err != nil {
			for _, rest := range contours[i+1:] {
				rest.Close()
			}
			return nil, stats, fmt.Errorf("failed to measure contour %d: %w", i, err)
		}
		if cand == nil {
			stats.rejected[reason.String()]++
			continue
		}
		out = append(out, *cand)
	}
	return out, stats, nil
}
