package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{"shelf_detect", "shelf_export", "shelf_overlay", "shelf_status"}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema missing 'properties' object")
			}
		})
	}
}

func TestToolDefinitions_DetectRequiresPath(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name != "shelf_detect" {
			continue
		}
		required, ok := tool.InputSchema["required"].([]string)
		if !ok || len(required) != 1 || required[0] != "path" {
			t.Errorf("shelf_detect required: got %v, want [path]", tool.InputSchema["required"])
		}
		return
	}
	t.Fatal("shelf_detect not defined")
}
