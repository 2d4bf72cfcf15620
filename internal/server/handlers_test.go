package server

import (
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/pipeline"
)

type detectResponse struct {
	Summary    pipeline.Summary      `json:"summary"`
	Candidates []detection.Candidate `json:"candidates"`
}

func TestShelfDetect(t *testing.T) {
	s := newTestServer(t)
	path := createShelfImageFile(t)

	var got detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": path}), &got)

	if len(got.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got.Candidates))
	}
	if got.Summary.Candidates != 1 || got.Summary.Pages != 1 || got.Summary.RunID == "" || got.Summary.OCRFailures == nil {
		t.Errorf("unexpected summary: %+v", got.Summary)
	}
	c := got.Candidates[0]
	if c.ImgW != 300 || c.ImgH != 200 || c.Numbers == nil {
		t.Errorf("unexpected candidate: %+v", c)
	}
}

func TestShelfDetect_Overrides(t *testing.T) {
	s := newTestServer(t)
	path := createShelfImageFile(t)

	var got detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": path, "min_area": 100000}), &got)
	if len(got.Candidates) != 0 {
		t.Errorf("min_area override ignored: got %d candidates", len(got.Candidates))
	}
	if len(got.Summary.EmptyPages) != 1 {
		t.Errorf("empty pages: got %v, want [0]", got.Summary.EmptyPages)
	}

	resp := callTool(t, s, "shelf_detect", map[string]interface{}{"path": path, "nms_iou": 2})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("invalid override: got %+v, want -32602", resp.Error)
	}
}

func TestShelfDetect_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		args     map[string]interface{}
		wantCode int
		wantKind string
	}{
		{"missing path", map[string]interface{}{}, -32602, "validation"},
		{"missing file", map[string]interface{}{"path": "/nonexistent/shelves.png"}, -32000, "input_format"},
		{"ocr not enabled", map[string]interface{}{"path": createShelfImageFile(t), "use_ocr": true}, -32000, "initialization"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "shelf_detect", tt.args)
			if resp.Error == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code: got %d, want %d", resp.Error.Code, tt.wantCode)
			}
			data, ok := resp.Error.Data.(map[string]string)
			if !ok || data["kind"] != tt.wantKind {
				t.Errorf("data: got %v, want kind %s", resp.Error.Data, tt.wantKind)
			}
		})
	}
}

func TestShelfExport(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "shelf_export", map[string]interface{}{"format": "csv"})
	if resp.Error == nil {
		t.Fatal("export before detection should fail")
	}
	if data := resp.Error.Data.(map[string]string); data["kind"] != "no_results" {
		t.Errorf("kind: got %s, want no_results", data["kind"])
	}

	var det detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": createShelfImageFile(t)}), &det)

	var inline shelfExportResult
	toolText(t, callTool(t, s, "shelf_export", map[string]interface{}{"format": "csv"}), &inline)
	if !strings.HasPrefix(inline.Content, "shelf_id,page,box_img") {
		t.Errorf("unexpected CSV content: %q", inline.Content)
	}
	if strings.Count(strings.TrimSpace(inline.Content), "\n") != 1 {
		t.Errorf("want header plus one row, got:\n%s", inline.Content)
	}

	out := filepath.Join(t.TempDir(), "shelves.json")
	var written shelfExportResult
	toolText(t, callTool(t, s, "shelf_export", map[string]interface{}{"output_path": out}), &written)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("export file not written: %v", err)
	}
	if written.Bytes != len(data) || !strings.HasPrefix(string(data), "[") {
		t.Errorf("unexpected JSON export (%d bytes reported): %s", written.Bytes, data)
	}
}

func TestShelfExport_ClearedByFailedDetect(t *testing.T) {
	s := newTestServer(t)
	var det detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": createShelfImageFile(t)}), &det)

	thin := filepath.Join(t.TempDir(), "thin.png")
	writeThinImage(t, thin)
	if resp := callTool(t, s, "shelf_detect", map[string]interface{}{"path": thin}); resp.Error == nil {
		t.Fatal("detection on a 1-pixel-wide page should fail")
	}

	resp := callTool(t, s, "shelf_export", map[string]interface{}{"format": "json"})
	if resp.Error == nil {
		t.Fatal("export after a failed run must not return the previous results")
	}
}

func TestShelfExport_ClearedByFailedLoad(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) map[string]interface{}
	}{
		{"unreadable file", func(t *testing.T) map[string]interface{} {
			garbage := filepath.Join(t.TempDir(), "garbage.png")
			if err := os.WriteFile(garbage, []byte("not an image at all"), 0o644); err != nil {
				t.Fatal(err)
			}
			return map[string]interface{}{"path": garbage}
		}},
		{"invalid override", func(t *testing.T) map[string]interface{} {
			return map[string]interface{}{"path": createShelfImageFile(t), "max_aspect": 0.5}
		}},
		{"missing path", func(t *testing.T) map[string]interface{} {
			return map[string]interface{}{}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			var det detectResponse
			toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": createShelfImageFile(t)}), &det)

			if resp := callTool(t, s, "shelf_detect", tt.args(t)); resp.Error == nil {
				t.Fatal("detect should fail")
			}

			resp := callTool(t, s, "shelf_export", map[string]interface{}{"format": "csv"})
			if resp.Error == nil {
				t.Fatal("export after a failed detect returned the previous results")
			}
			if data := resp.Error.Data.(map[string]string); data["kind"] != "no_results" {
				t.Errorf("kind: got %s, want no_results", data["kind"])
			}
			if resp := callTool(t, s, "shelf_overlay", map[string]interface{}{}); resp.Error == nil {
				t.Error("overlay after a failed detect should fail")
			}
		})
	}
}

func TestShelfDetect_ReloadsChangedFile(t *testing.T) {
	s := newTestServer(t)
	path := createShelfImageFile(t)

	var first detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": path}), &first)
	if len(first.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(first.Candidates))
	}

	blank := image.NewGray(image.Rect(0, 0, 300, 200))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, blank); err != nil {
		t.Fatal(err)
	}
	f.Close()
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	var second detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": path}), &second)
	if len(second.Candidates) != 0 {
		t.Errorf("detected %d shelves on a blank page; the cached raster was reused", len(second.Candidates))
	}
}

func TestShelfOverlay(t *testing.T) {
	s := newTestServer(t)

	if resp := callTool(t, s, "shelf_overlay", nil); resp.Error == nil {
		t.Fatal("overlay before detection should fail")
	}

	var det detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": createShelfImageFile(t)}), &det)

	var got struct {
		Page        int    `json:"page"`
		Shelves     int    `json:"shelves"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
	}
	toolText(t, callTool(t, s, "shelf_overlay", map[string]interface{}{"page": 0}), &got)
	if got.Shelves != 1 || got.Width != 300 || got.Height != 200 || got.MimeType != "image/png" {
		t.Errorf("unexpected overlay: %+v", got)
	}
	if _, err := base64.StdEncoding.DecodeString(got.ImageBase64); err != nil {
		t.Errorf("image is not base64: %v", err)
	}

	resp := callTool(t, s, "shelf_overlay", map[string]interface{}{"page": 3})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("out-of-range page: got %+v, want -32602", resp.Error)
	}
}

func TestShelfStatus(t *testing.T) {
	s := newTestServer(t)
	var det detectResponse
	toolText(t, callTool(t, s, "shelf_detect", map[string]interface{}{"path": createShelfImageFile(t)}), &det)

	var st pipeline.Status
	toolText(t, callTool(t, s, "shelf_status", nil), &st)
	if !st.Ready || st.Geometry.State != pipeline.StateReady || st.OCR.State != pipeline.StateDisabled {
		t.Errorf("unexpected status: %+v", st)
	}
	if st.LastRun == nil || st.LastRun.Candidates != 1 {
		t.Errorf("last run: got %+v", st.LastRun)
	}
}

func TestUnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_load", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("unknown tool: got %+v, want -32602", resp.Error)
	}
}
