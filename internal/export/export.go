// Package export serializes detection results as CSV or JSON.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ironsheep/shelfscan/internal/detection"
	apperrors "github.com/ironsheep/shelfscan/internal/errors"
)

// Format selects the serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrNoResults is returned when asked to export an empty result set.
var ErrNoResults = apperrors.NewNoResultsError("no detection results to export; run detection first")

// Header is the CSV column order.
var Header = []string{
	"shelf_id", "page", "box_img", "bbox_img", "box_norm", "bbox_norm",
	"angle", "area", "score", "img_w", "img_h", "numbers", "text",
}

// ParseFormat accepts "csv" or "json" in any case. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown export format %q (want csv or json)", s), nil)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// Extension returns the file extension, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Write serializes cands to w in the given format.
func Write(w io.Writer, format Format, cands []detection.Candidate) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, cands)
	case FormatJSON:
		return WriteJSON(w, cands)
	}
	return apperrors.NewValidationError(fmt.Sprintf("unknown export format %q", format), nil)
}

// Bytes is Write into a fresh buffer.
func Bytes(format Format, cands []detection.Candidate) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, format, cands); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the header and one row per candidate. shelf_id is the
// 1-based position in cands. Array columns and text hold compact JSON.
func WriteCSV(w io.Writer, cands []detection.Candidate) error {
	if len(cands) == 0 {
		return ErrNoResults
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range cands {
		row, err := csvRow(i+1, &cands[i])
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func csvRow(id int, c *detection.Candidate) ([]string, error) {
	numbers := c.Numbers
	if numbers == nil {
		numbers = []string{}
	}

	cells := make([]string, 0, len(Header))
	cells = append(cells, strconv.Itoa(id), strconv.Itoa(c.Page))
	for _, v := range []interface{}{c.BoxImg, c.BBoxImg, c.BoxNorm, c.BBoxNorm} {
		s, err := compactJSON(v)
		if err != nil {
			return nil, err
		}
		cells = append(cells, s)
	}
	cells = append(cells,
		formatFloat(c.Angle),
		formatFloat(c.Area),
		formatFloat(c.Score),
		strconv.Itoa(c.ImgW),
		strconv.Itoa(c.ImgH),
	)
	for _, v := range []interface{}{numbers, c.Text} {
		s, err := compactJSON(v)
		if err != nil {
			return nil, err
		}
		cells = append(cells, s)
	}
	return cells, nil
}

// WriteJSON writes cands as an indented JSON array.
func WriteJSON(w io.Writer, cands []detection.Candidate) error {
	if len(cands) == 0 {
		return ErrNoResults
	}

	out := make([]detection.Candidate, len(cands))
	copy(out, cands)
	for i := range out {
		if out[i].Numbers == nil {
			out[i].Numbers = []string{}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func compactJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode cell: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// formatFloat prints the shortest representation, so 2 stays "2" and 0.85 stays "0.85".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
