package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "shelf_detect",
			Description: "Detect shelf rectangles on every page of an image or PDF file. " +
				"Returns each candidate's polygon and bounding box in pixel and normalized coordinates, " +
				"its angle, area and score, and optionally the recognized text and numbers. " +
				"The result becomes the current result set for shelf_export and shelf_overlay.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image or PDF file",
					},
					"dpi":                integerProp("PDF rasterization resolution. Default 300"),
					"min_area":           numberProp("Minimum rotated-rectangle area in pixels. Default 800"),
					"min_rectangularity": numberProp("Minimum contour area / rectangle area ratio in [0,1]. Default 0.7"),
					"max_aspect":         numberProp("Maximum long/short side ratio. Default 25"),
					"nms_iou":            numberProp("IoU at or above which the lower-scoring box is dropped. Default 0.30"),
					"use_ocr": map[string]interface{}{
						"type":        "boolean",
						"description": "Recognize text inside each candidate. The engine must have been enabled at startup",
					},
					"numeric_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Restrict recognition to ASCII and full-width digits. Default true",
					},
					"scale": numberProp("Crop upsampling factor before recognition, clamped to [1, max]. Default 2"),
					"on_ocr_failure": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"abort", "keep"},
						"description": "abort the run, or keep the candidate with empty text",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "shelf_export",
			Description: "Export the current result set as CSV or JSON. Fails if the last detection failed or none has run.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"csv", "json"},
						"description": "Export format. Default json",
						"default":     "json",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write. When omitted the export is returned inline",
					},
				},
			},
		},
		{
			Name:        "shelf_overlay",
			Description: "Draw the current result set's rectangles and shelf ids on one page of the last detected document and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"page":       integerProp("0-based page index. Default 0"),
					"line_width": integerProp("Outline width in pixels. Default 3"),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Force one outline colour (#RRGGBB). Default is one colour per shelf",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional PNG file to write instead of returning the image inline",
					},
				},
			},
		},
		{
			Name:        "shelf_status",
			Description: "Report whether the geometry backend and the OCR engine are ready, and summarize the last run.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
