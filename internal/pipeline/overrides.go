package pipeline

import (
	"github.com/ironsheep/shelfscan/internal/config"
)

// Overrides are per-request settings layered on the session configuration.
// Nil fields keep the configured value.
type Overrides struct {
	DPI               *int     `json:"dpi,omitempty"`
	MinArea           *float64 `json:"min_area,omitempty"`
	MinRectangularity *float64 `json:"min_rectangularity,omitempty"`
	MaxAspect         *float64 `json:"max_aspect,omitempty"`
	NMSIoU            *float64 `json:"nms_iou,omitempty"`
	UseOCR            *bool    `json:"use_ocr,omitempty"`
	NumericOnly       *bool    `json:"numeric_only,omitempty"`
	Scale             *float64 `json:"scale,omitempty"`
	OnOCRFailure      *string  `json:"on_ocr_failure,omitempty"`
}

// Apply returns a validated copy of base with the overrides set. base is
// not modified.
func (o Overrides) Apply(base *config.Config) (*config.Config, error) {
	cfg := *base
	if o.DPI != nil {
		cfg.DPI = *o.DPI
	}
	if o.MinArea != nil {
		cfg.MinArea = *o.MinArea
	}
	if o.MinRectangularity != nil {
		cfg.MinRectangularity = *o.MinRectangularity
	}
	if o.MaxAspect != nil {
		cfg.MaxAspect = *o.MaxAspect
	}
	if o.NMSIoU != nil {
		cfg.NMSIoU = *o.NMSIoU
	}
	if o.UseOCR != nil {
		cfg.UseOCR = *o.UseOCR
	}
	if o.NumericOnly != nil {
		cfg.NumericOnly = *o.NumericOnly
	}
	if o.Scale != nil {
		cfg.OCRScale = *o.Scale
	}
	if o.OnOCRFailure != nil {
		cfg.OCRFailure = *o.OnOCRFailure
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
