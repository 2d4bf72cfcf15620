package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/shelfscan/internal/detection"
	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	"github.com/ironsheep/shelfscan/internal/export"
	"github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/pipeline"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shelf_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Validation failures return -32602; every other tool failure returns -32000
// with the error kind in the data field.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return toolErrorResponse(req.ID, err)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "shelf_detect":
		return s.handleShelfDetect(args)
	case "shelf_export":
		return s.handleShelfExport(args)
	case "shelf_overlay":
		return s.handleShelfOverlay(args)
	case "shelf_status":
		return s.session.Status(), nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown tool: %s", name), nil)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != nil {
		resp.Error.Data = data
	}
	return resp
}

func toolErrorResponse(id interface{}, err error) *MCPResponse {
	kind := apperrors.KindOf(err)
	code := codeToolFailed
	if kind == apperrors.KindValidation {
		code = codeInvalidParams
	}
	return errorResponse(id, code, "Tool execution failed", map[string]string{
		"kind":  string(kind),
		"error": err.Error(),
	})
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return apperrors.NewValidationError("invalid tool arguments", err)
	}
	return nil
}

// === Detection ===

type shelfDetectArgs struct {
	Path string `json:"path"`
	pipeline.Overrides
}

type shelfDetectResult struct {
	Summary    pipeline.Summary      `json:"summary"`
	Candidates []detection.Candidate `json:"candidates"`
}

// handleShelfDetect runs detection on a file. Any failure drops the previous
// result set and source so later exports and overlays cannot reuse them.
func (s *Server) handleShelfDetect(args json.RawMessage) (interface{}, error) {
	res, err := s.detect(args)
	if err != nil {
		s.session.ClearLast()
		s.setSource("", 0)
		return nil, err
	}
	return shelfDetectResult{Summary: res.Summary(), Candidates: res.Candidates}, nil
}

func (s *Server) detect(args json.RawMessage) (*pipeline.Result, error) {
	var a shelfDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, apperrors.NewValidationError("path is required", nil)
	}

	cfg, err := a.Overrides.Apply(s.session.Config())
	if err != nil {
		return nil, err
	}

	pages, err := s.cache.Load(a.Path, cfg.DPI)
	if err != nil {
		return nil, err
	}

	res, err := s.session.Run(context.Background(), pages, pipeline.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	s.setSource(a.Path, cfg.DPI)
	return res, nil
}

// === Export ===

type shelfExportArgs struct {
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
}

type shelfExportResult struct {
	Format  export.Format `json:"format"`
	Path    string        `json:"path,omitempty"`
	Bytes   int           `json:"bytes"`
	Content string        `json:"content,omitempty"`
}

func (s *Server) handleShelfExport(args json.RawMessage) (interface{}, error) {
	var a shelfExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.session.Export(&buf, format); err != nil {
		return nil, err
	}

	if a.OutputPath == "" {
		return shelfExportResult{Format: format, Bytes: buf.Len(), Content: buf.String()}, nil
	}
	if err := os.WriteFile(a.OutputPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return shelfExportResult{Format: format, Path: a.OutputPath, Bytes: buf.Len()}, nil
}

// === Overlay ===

type shelfOverlayArgs struct {
	Page       int    `json:"page"`
	LineWidth  int    `json:"line_width"`
	Color      string `json:"color"`
	OutputPath string `json:"output_path"`
}

type shelfOverlayResult struct {
	Page    int    `json:"page"`
	Shelves int    `json:"shelves"`
	Path    string `json:"path,omitempty"`
	*imaging.EncodedImage
}

func (s *Server) handleShelfOverlay(args json.RawMessage) (interface{}, error) {
	var a shelfOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	last := s.session.Last()
	path, dpi := s.source()
	if last == nil || path == "" {
		return nil, export.ErrNoResults
	}

	pages, err := s.cache.Load(path, dpi)
	if err != nil {
		return nil, err
	}
	if a.Page < 0 || a.Page >= len(pages) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("page %d out of range (document has %d pages)", a.Page, len(pages)), nil)
	}

	page := pages[a.Page]
	out := export.Overlay(page.Image, page.Index, last.Candidates, imaging.OverlayOptions{
		LineWidth: a.LineWidth,
		Color:     a.Color,
	})
	shelves := len(export.Shapes(page.Index, last.Candidates))

	if a.OutputPath != "" {
		data, err := imaging.EncodePNG(out)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(a.OutputPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write overlay: %w", err)
		}
		return shelfOverlayResult{Page: a.Page, Shelves: shelves, Path: a.OutputPath}, nil
	}

	encoded, err := imaging.EncodeBase64PNG(out)
	if err != nil {
		return nil, err
	}
	return shelfOverlayResult{Page: a.Page, Shelves: shelves, EncodedImage: encoded}, nil
}
