// Package transport exposes the detection pipeline over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/document"
	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	"github.com/ironsheep/shelfscan/internal/export"
	"github.com/ironsheep/shelfscan/internal/logger"
	"github.com/ironsheep/shelfscan/internal/pipeline"
)

// Version is reported by /health.
var Version = "dev"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// DetectResponse is the JSON body of a successful /detect.
type DetectResponse struct {
	Summary    pipeline.Summary      `json:"summary"`
	Candidates []detection.Candidate `json:"candidates"`
}

// NewHandler builds the HTTP API over session.
//
//	GET  /health            readiness of geometry and OCR
//	POST /detect            multipart "file" upload; query overrides; format=json|csv
//	GET  /export?format=    the last successful result set
func NewHandler(session *pipeline.Session, maxUploadBytes int64) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(maxUploadBytes),
	)

	r.GET("/health", healthCheck(session))
	r.POST("/detect", detect(session))
	r.GET("/export", exportLast(session))

	return r
}

func healthCheck(s *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := s.Status()
		code := http.StatusOK
		status := "available"
		if !st.Ready {
			code = http.StatusServiceUnavailable
			status = "unavailable"
		}
		c.JSON(code, gin.H{
			"status":   status,
			"version":  Version,
			"time":     time.Now().UTC().Format(time.RFC3339),
			"geometry": st.Geometry,
			"ocr":      st.OCR,
			"last_run": st.LastRun,
		})
	}
}

func detect(s *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, format, res, err := runDetect(c, s)
		if err != nil {
			// A failed request must not leave the previous results exportable.
			s.ClearLast()
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"run_id":     res.RunID,
			"file":       name,
			"pages":      res.Pages,
			"candidates": len(res.Candidates),
		}).Info("detection request completed")

		if format == export.FormatCSV {
			writeExport(c, format, res.Candidates)
			return
		}
		c.JSON(http.StatusOK, DetectResponse{Summary: res.Summary(), Candidates: res.Candidates})
	}
}

func runDetect(c *gin.Context, s *pipeline.Session) (string, export.Format, *pipeline.Result, error) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return "", "", nil, err
	}
	overrides, err := parseOverrides(c)
	if err != nil {
		return "", "", nil, err
	}
	cfg, err := overrides.Apply(s.Config())
	if err != nil {
		return "", "", nil, err
	}

	name, data, err := readUpload(c)
	if err != nil {
		return "", "", nil, err
	}

	pages, err := document.LoadBytes(name, data, cfg.DPI)
	if err != nil {
		return name, "", nil, err
	}

	// Readiness may be awaited for as long as the client waits; the run
	// itself is not cancellable.
	res, err := s.Run(c.Request.Context(), pages, pipeline.OptionsFromConfig(cfg))
	if err != nil {
		return name, "", nil, err
	}
	return name, format, res, nil
}

func exportLast(s *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		format, err := export.ParseFormat(c.Query("format"))
		if err != nil {
			respondError(c, err)
			return
		}
		last := s.Last()
		if last == nil {
			respondError(c, export.ErrNoResults)
			return
		}
		writeExport(c, format, last.Candidates)
	}
}

func writeExport(c *gin.Context, format export.Format, cands []detection.Candidate) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, cands); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="shelves%s"`, format.Extension()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func readUpload(c *gin.Context) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, errUploadTooLarge
		}
		return "", nil, apperrors.NewValidationError(`multipart field "file" is required`, err)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, apperrors.NewInputFormatError("cannot open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, apperrors.NewInputFormatError("cannot read upload", err)
	}
	return fh.Filename, data, nil
}

var errUploadTooLarge = apperrors.NewValidationError("upload exceeds the size limit", nil)

// parseOverrides reads the optional detection settings from the query string.
func parseOverrides(c *gin.Context) (pipeline.Overrides, error) {
	var o pipeline.Overrides
	var err error

	if o.DPI, err = queryInt(c, "dpi"); err != nil {
		return o, err
	}
	for key, dst := range map[string]**float64{
		"min_area":           &o.MinArea,
		"min_rectangularity": &o.MinRectangularity,
		"max_aspect":         &o.MaxAspect,
		"nms_iou":            &o.NMSIoU,
		"scale":              &o.Scale,
	} {
		if *dst, err = queryFloat(c, key); err != nil {
			return o, err
		}
	}
	if o.UseOCR, err = queryBool(c, "use_ocr"); err != nil {
		return o, err
	}
	if o.NumericOnly, err = queryBool(c, "numeric_only"); err != nil {
		return o, err
	}
	if v, ok := c.GetQuery("on_ocr_failure"); ok {
		o.OnOCRFailure = &v
	}
	return o, nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("query parameter %s must be an integer", key), err)
	}
	return &n, nil
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("query parameter %s must be a number", key), err)
	}
	return &f, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("query parameter %s must be a boolean", key), err)
	}
	return &b, nil
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondError(c, errUploadTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("request handled")
	}
}

func statusCode(err error) int {
	if err == errUploadTooLarge {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	return apperrors.GetStatusCode(err)
}

func respondError(c *gin.Context, err error) {
	code := statusCode(err)
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
	}).Error("request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Kind:    string(apperrors.KindOf(err)),
		Message: err.Error(),
	})
}
