// Package config holds the detection, OCR and service settings.
//
// Values come from compiled-in defaults, then SHELFSCAN_* environment
// variables (optionally loaded from a .env file), then command-line flags.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
)

// OCR failure policies.
const (
	// OCRFailureAbort stops the run at the first candidate whose recognition fails.
	OCRFailureAbort = "abort"
	// OCRFailureKeep keeps the candidate with empty text and numbers and logs a warning.
	OCRFailureKeep = "keep"
)

// Geometry backends.
const (
	BackendNative = "native"
	BackendGoCV   = "gocv"
)

// Config is the full configuration surface.
type Config struct {
	// Normalized page grid.
	NormW int
	NormH int

	// PDF rasterization resolution.
	DPI int

	// Candidate filter.
	MinArea           float64
	MinRectangularity float64
	MaxAspect         float64
	NMSIoU            float64

	// Geometry provider parameters.
	Backend     string
	BlockSize   int
	ThresholdC  float64
	CloseKernel int
	EdgeLow     int
	EdgeHigh    int

	// OCR.
	UseOCR         bool
	Language       string
	NumericOnly    bool
	OCRScale       float64
	MaxOCRScale    float64
	OCRFailure     string
	TessdataPrefix string

	// Services.
	HTTPAddr       string
	MaxUploadBytes int64

	// Logging.
	LogLevel  string
	LogFormat string
}

// Default returns the configuration with every documented default applied.
func Default() *Config {
	return &Config{
		NormW:             1240,
		NormH:             1754,
		DPI:               300,
		MinArea:           800,
		MinRectangularity: 0.7,
		MaxAspect:         25,
		NMSIoU:            0.30,
		Backend:           BackendNative,
		BlockSize:         35,
		ThresholdC:        10,
		CloseKernel:       3,
		EdgeLow:           60,
		EdgeHigh:          180,
		UseOCR:            false,
		Language:          "eng",
		NumericOnly:       true,
		OCRScale:          2,
		MaxOCRScale:       4,
		OCRFailure:        OCRFailureAbort,
		HTTPAddr:          "127.0.0.1:8080",
		MaxUploadBytes:    50 * 1024 * 1024,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// LoadFromEnv loads an optional .env file from the working directory and
// overlays SHELFSCAN_* variables on the defaults.
func LoadFromEnv() (*Config, error) {
	// A missing .env file is normal.
	_ = godotenv.Load()

	env := &envReader{}
	cfg := Default()
	cfg.NormW = env.getInt("SHELFSCAN_NORM_W", cfg.NormW)
	cfg.NormH = env.getInt("SHELFSCAN_NORM_H", cfg.NormH)
	cfg.DPI = env.getInt("SHELFSCAN_DPI", cfg.DPI)
	cfg.MinArea = env.getFloat("SHELFSCAN_MIN_AREA", cfg.MinArea)
	cfg.MinRectangularity = env.getFloat("SHELFSCAN_MIN_RECTANGULARITY", cfg.MinRectangularity)
	cfg.MaxAspect = env.getFloat("SHELFSCAN_MAX_ASPECT", cfg.MaxAspect)
	cfg.NMSIoU = env.getFloat("SHELFSCAN_NMS_IOU", cfg.NMSIoU)
	cfg.Backend = getEnvOrDefault("SHELFSCAN_BACKEND", cfg.Backend)
	cfg.UseOCR = env.getBool("SHELFSCAN_USE_OCR", cfg.UseOCR)
	cfg.Language = getEnvOrDefault("SHELFSCAN_LANGUAGE", cfg.Language)
	cfg.NumericOnly = env.getBool("SHELFSCAN_NUMERIC_ONLY", cfg.NumericOnly)
	cfg.OCRScale = env.getFloat("SHELFSCAN_OCR_SCALE", cfg.OCRScale)
	cfg.MaxOCRScale = env.getFloat("SHELFSCAN_MAX_OCR_SCALE", cfg.MaxOCRScale)
	cfg.OCRFailure = getEnvOrDefault("SHELFSCAN_OCR_FAILURE", cfg.OCRFailure)
	cfg.TessdataPrefix = getEnvOrDefault("SHELFSCAN_TESSDATA_PREFIX", os.Getenv("TESSDATA_PREFIX"))
	cfg.HTTPAddr = getEnvOrDefault("SHELFSCAN_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MaxUploadBytes = env.getInt64("SHELFSCAN_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.LogLevel = getEnvOrDefault("SHELFSCAN_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("SHELFSCAN_LOG_FORMAT", cfg.LogFormat)
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and normalizes values that have a documented floor.
func (c *Config) Validate() error {
	if c.NormW < 2 || c.NormH < 2 {
		return apperrors.NewValidationError(fmt.Sprintf("normalized grid must be at least 2x2 (got %dx%d)", c.NormW, c.NormH), nil)
	}
	if c.DPI <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("dpi must be > 0 (got %d)", c.DPI), nil)
	}
	if c.MinArea < 0 {
		return apperrors.NewValidationError(fmt.Sprintf("min area must be >= 0 (got %g)", c.MinArea), nil)
	}
	if c.MinRectangularity < 0 || c.MinRectangularity > 1 {
		return apperrors.NewValidationError(fmt.Sprintf("min rectangularity must be in [0,1] (got %g)", c.MinRectangularity), nil)
	}
	if c.MaxAspect < 1 {
		return apperrors.NewValidationError(fmt.Sprintf("max aspect must be >= 1 (got %g)", c.MaxAspect), nil)
	}
	if c.NMSIoU <= 0 || c.NMSIoU > 1 {
		return apperrors.NewValidationError(fmt.Sprintf("nms iou threshold must be in (0,1] (got %g)", c.NMSIoU), nil)
	}
	if c.BlockSize < 3 || c.BlockSize%2 == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("threshold block size must be odd and >= 3 (got %d)", c.BlockSize), nil)
	}
	if c.CloseKernel < 1 {
		return apperrors.NewValidationError(fmt.Sprintf("close kernel must be >= 1 (got %d)", c.CloseKernel), nil)
	}
	if c.EdgeLow < 0 || c.EdgeHigh < c.EdgeLow {
		return apperrors.NewValidationError(fmt.Sprintf("edge thresholds must satisfy 0 <= low <= high (got %d/%d)", c.EdgeLow, c.EdgeHigh), nil)
	}
	switch c.Backend {
	case BackendNative, BackendGoCV:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown geometry backend %q", c.Backend), nil)
	}
	switch c.OCRFailure {
	case OCRFailureAbort, OCRFailureKeep:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown OCR failure policy %q", c.OCRFailure), nil)
	}
	if c.MaxOCRScale < 1 {
		return apperrors.NewValidationError(fmt.Sprintf("max OCR scale must be >= 1 (got %g)", c.MaxOCRScale), nil)
	}
	if c.MaxUploadBytes <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("max upload bytes must be > 0 (got %d)", c.MaxUploadBytes), nil)
	}
	c.OCRScale = ClampScale(c.OCRScale, c.MaxOCRScale)
	return nil
}

// ClampScale applies the OCR upsampling floor of 1 and the configured ceiling.
// Non-finite or non-positive values fall back to the default of 2.
func ClampScale(scale, max float64) float64 {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		scale = 2
	}
	if scale < 1 {
		scale = 1
	}
	if max >= 1 && scale > max {
		scale = max
	}
	return scale
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// envReader parses typed variables and keeps the first value that does not
// parse, so LoadFromEnv can reject it instead of using the default.
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}

func (r *envReader) fail(key, value, want string, err error) {
	if r.err == nil {
		r.err = apperrors.NewValidationError(fmt.Sprintf("%s must be %s (got %q)", key, want, value), err)
	}
}

func (r *envReader) getInt(key string, defaultValue int) int {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, "an integer", err)
		return defaultValue
	}
	return n
}

func (r *envReader) getInt64(key string, defaultValue int64) int64 {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.fail(key, value, "an integer", err)
		return defaultValue
	}
	return n
}

func (r *envReader) getFloat(key string, defaultValue float64) float64 {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, value, "a number", err)
		return defaultValue
	}
	return f
}

func (r *envReader) getBool(key string, defaultValue bool) bool {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, "a boolean", err)
		return defaultValue
	}
	return b
}
