package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/shelfscan/internal/config"
)

// settings holds the flag values. Only flags the user set override the
// environment configuration.
type settings struct {
	logLevel  string
	logFormat string
	backend   string
	tessdata  string

	dpi               int
	minArea           float64
	minRectangularity float64
	maxAspect         float64
	nmsIoU            float64
	useOCR            bool
	language          string
	numericOnly       bool
	scale             float64
	onOCRFailure      string
	addr              string
}

func (s *settings) registerCommon(cmd *cobra.Command) {
	d := config.Default()
	pf := cmd.PersistentFlags()
	pf.StringVar(&s.logLevel, "log-level", d.LogLevel, "log level: debug, info, warn, error")
	pf.StringVar(&s.logFormat, "log-format", d.LogFormat, "log format: text or json")
	pf.StringVar(&s.backend, "backend", d.Backend, "geometry backend: native or gocv")
	pf.StringVar(&s.tessdata, "tessdata", "", "Tesseract tessdata directory")
	pf.BoolVar(&s.useOCR, "ocr", d.UseOCR, "recognize text inside each shelf")
	pf.StringVar(&s.language, "lang", d.Language, "OCR language, e.g. eng or eng+jpn")
}

func (s *settings) registerDetection(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.IntVar(&s.dpi, "dpi", d.DPI, "PDF rasterization resolution")
	f.Float64Var(&s.minArea, "min-area", d.MinArea, "minimum rotated-rectangle area in pixels")
	f.Float64Var(&s.minRectangularity, "min-rectangularity", d.MinRectangularity, "minimum contour area / rectangle area")
	f.Float64Var(&s.maxAspect, "max-aspect", d.MaxAspect, "maximum long/short side ratio")
	f.Float64Var(&s.nmsIoU, "nms-iou", d.NMSIoU, "IoU at which overlapping boxes are suppressed")
	f.BoolVar(&s.numericOnly, "numeric-only", d.NumericOnly, "restrict OCR to digits")
	f.Float64Var(&s.scale, "scale", d.OCRScale, "crop upsampling factor before OCR")
	f.StringVar(&s.onOCRFailure, "on-ocr-failure", d.OCRFailure, "abort or keep when a crop cannot be recognized")
}

// load reads the environment configuration, overlays the flags the user set
// and configures logging.
func (s *settings) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = s.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = s.logFormat
	}
	if changed("backend") {
		cfg.Backend = s.backend
	}
	if changed("tessdata") {
		cfg.TessdataPrefix = s.tessdata
	}
	if changed("ocr") {
		cfg.UseOCR = s.useOCR
	}
	if changed("lang") {
		cfg.Language = s.language
	}
	if changed("dpi") {
		cfg.DPI = s.dpi
	}
	if changed("min-area") {
		cfg.MinArea = s.minArea
	}
	if changed("min-rectangularity") {
		cfg.MinRectangularity = s.minRectangularity
	}
	if changed("max-aspect") {
		cfg.MaxAspect = s.maxAspect
	}
	if changed("nms-iou") {
		cfg.NMSIoU = s.nmsIoU
	}
	if changed("numeric-only") {
		cfg.NumericOnly = s.numericOnly
	}
	if changed("scale") {
		cfg.OCRScale = s.scale
	}
	if changed("on-ocr-failure") {
		cfg.OCRFailure = s.onOCRFailure
	}
	if changed("addr") {
		cfg.HTTPAddr = s.addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	configure(cfg)
	return cfg, nil
}
