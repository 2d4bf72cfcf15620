package pipeline

import (
	"github.com/ironsheep/shelfscan/internal/config"
	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

// Options configures one run.
type Options struct {
	Detection detection.Options
	UseOCR    bool
	OCR       ocr.Options
}

// OptionsFromConfig maps the configuration surface onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	policy := ocr.FailAbort
	if cfg.OCRFailure == config.OCRFailureKeep {
		policy = ocr.FailKeep
	}
	return Options{
		Detection: detection.Options{
			BlockSize:   cfg.BlockSize,
			ThresholdC:  cfg.ThresholdC,
			CloseKernel: cfg.CloseKernel,
			EdgeLow:     float64(cfg.EdgeLow),
			EdgeHigh:    float64(cfg.EdgeHigh),
			Thresholds: detection.Thresholds{
				MinArea:           cfg.MinArea,
				MinRectangularity: cfg.MinRectangularity,
				MaxAspect:         cfg.MaxAspect,
			},
			NMSIoU: cfg.NMSIoU,
			NormW:  cfg.NormW,
			NormH:  cfg.NormH,
		},
		UseOCR: cfg.UseOCR,
		OCR: ocr.Options{
			NumericOnly: cfg.NumericOnly,
			Scale:       config.ClampScale(cfg.OCRScale, cfg.MaxOCRScale),
			OnFailure:   policy,
		},
	}
}
