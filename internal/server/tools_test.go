package server

import (
	"context"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"landing_image_info",
		"landing_sample_color",
		"landing_detect",
		"landing_classify_contours",
		"landing_fiducials",
		"landing_overlay",
		"landing_composite_zoom",
		"landing_edge_detect",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
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

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok || len(props) == 0 {
				t.Fatal("InputSchema missing 'properties'")
			}

			// Every required parameter must be declared.
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required parameter %s has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_RequiredPath(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "landing_classify_contours" {
			continue
		}
		t.Run(tool.Name, func(t *testing.T) {
			required := tool.InputSchema["required"].([]string)
			hasPath := false
			for _, r := range required {
				if r == "path" {
					hasPath = true
					break
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

func TestToolDefinitions_TuningOverrides(t *testing.T) {
	withTuning := map[string]bool{
		"landing_detect":         true,
		"landing_overlay":        true,
		"landing_composite_zoom": true,
	}

	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, name := range []string{"threshold_distance", "canny_low", "canny_high", "kernel_size"} {
			_, ok := props[name]
			if withTuning[tool.Name] && !ok {
				t.Errorf("%s: missing override %s", tool.Name, name)
			}
		}
	}
}

func TestToolDefinitions_OverlayKinds(t *testing.T) {
	var overlayTool Tool
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "landing_overlay" {
			overlayTool = tool
		}
	}

	props := overlayTool.InputSchema["properties"].(map[string]interface{})
	kind := props["kind"].(map[string]interface{})
	kinds := kind["enum"].([]string)

	s := newTestServer(t)
	path := createPadImageFile(t)
	for _, k := range kinds {
		args := map[string]interface{}{"path": path, "kind": k, "color": "Yellow"}
		argsJSON, _ := codec.Marshal(args)
		if _, err := s.executeTool(context.Background(), "landing_overlay", argsJSON); err != nil {
			t.Errorf("advertised kind %s failed: %v", k, err)
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}

	// The list must survive the wire encoding.
	if mustMarshalJSON(resp) == "" {
		t.Error("tools/list response does not marshal")
	}
}
