package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ironsheep/landing-detect/internal/detection"
	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/report"
)

// callTool sends a tools/call request and returns the text content of a
// successful response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (string, *MCPError) {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := codec.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}
	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	return content[0]["text"].(string), nil
}

// mustCallTool is callTool for calls expected to succeed, decoding the
// result into v.
func mustCallTool(t *testing.T, s *Server, name string, args map[string]interface{}, v interface{}) {
	t.Helper()
	text, mcpErr := callTool(t, s, name, args)
	if mcpErr != nil {
		t.Fatalf("%s failed: %s (%v)", name, mcpErr.Message, mcpErr.Data)
	}
	if err := codec.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var info imaging.ImageInfo
	mustCallTool(t, s, "landing_image_info", map[string]interface{}{"path": path}, &info)

	if info.Width != 300 || info.Height != 200 {
		t.Errorf("size: got %dx%d, want 300x200", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s, want png", info.Format)
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache length: got %d, want 1", s.cache.Len())
	}
}

func TestHandleToolsCall_SampleColor(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var c imaging.ColorResult
	mustCallTool(t, s, "landing_sample_color", map[string]interface{}{"path": path, "x": 140, "y": 100}, &c)

	if c.Hex != "#C80000" {
		t.Errorf("hex: got %s, want #C80000", c.Hex)
	}
	if c.HSV.H != 0 || c.HSV.S != 255 || c.HSV.V != 200 {
		t.Errorf("hsv: got %+v, want {0 255 200}", c.HSV)
	}
}

func TestHandleToolsCall_Detect(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var out struct {
		report.Image
		Renderings map[string]imaging.EncodedImage `json:"renderings"`
	}
	mustCallTool(t, s, "landing_detect", map[string]interface{}{"path": path}, &out)

	if out.Path != path {
		t.Errorf("path: got %s, want %s", out.Path, path)
	}
	if out.Source == nil || out.Source.FileSizeBytes == 0 {
		t.Errorf("source info missing: %+v", out.Source)
	}
	if out.Width != 300 || out.Height != 200 {
		t.Errorf("working size: got %dx%d, want 300x200", out.Width, out.Height)
	}
	if len(out.Shapes) != 2 {
		t.Fatalf("shapes: got %d, want 2", len(out.Shapes))
	}
	got := map[detection.ShapeLabel]bool{}
	for _, sh := range out.Shapes {
		got[sh.Label] = true
	}
	if !got[detection.Cross] || !got[detection.Circle] {
		t.Errorf("labels: got %v, want Cross and Circle", got)
	}
	if len(out.Composites) != 1 {
		t.Errorf("composites: got %d, want 1", len(out.Composites))
	}
	if len(out.Fiducials) != 1 {
		t.Errorf("fiducials: got %d, want 1", len(out.Fiducials))
	}
	if len(out.Renderings) != 0 {
		t.Errorf("renderings should be omitted by default, got %d", len(out.Renderings))
	}
}

func TestHandleToolsCall_Detect_WithOverlays(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var out struct {
		Renderings map[string]imaging.EncodedImage `json:"renderings"`
	}
	mustCallTool(t, s, "landing_detect", map[string]interface{}{"path": path, "include_overlays": true}, &out)

	for _, kind := range []string{OverlayShapes, OverlayComposites, OverlayFiducials} {
		r, ok := out.Renderings[kind]
		if !ok {
			t.Errorf("rendering %s missing", kind)
			continue
		}
		if r.Width != 300 || r.Height != 200 || r.MimeType != "image/png" || r.ImageBase64 == "" {
			t.Errorf("rendering %s: got %dx%d %s", kind, r.Width, r.Height, r.MimeType)
		}
	}
}

func TestHandleToolsCall_Detect_Overrides(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var narrow report.Image
	mustCallTool(t, s, "landing_detect", map[string]interface{}{"path": path, "threshold_distance": 50}, &narrow)
	if len(narrow.Composites) != 0 {
		t.Errorf("composites with 50px threshold: got %d, want 0", len(narrow.Composites))
	}

	// Overrides do not stick to the server.
	var again report.Image
	mustCallTool(t, s, "landing_detect", map[string]interface{}{"path": path}, &again)
	if len(again.Composites) != 1 {
		t.Errorf("composites with configured threshold: got %d, want 1", len(again.Composites))
	}

	_, mcpErr := callTool(t, s, "landing_detect", map[string]interface{}{"path": path, "canny_low": -1})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Errorf("negative canny threshold should fail with -32000, got %+v", mcpErr)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)

	_, mcpErr := callTool(t, s, "landing_detect", map[string]interface{}{"path": "/nonexistent/image.png"})
	if mcpErr == nil {
		t.Fatal("expected error for missing file")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestHandleToolsCall_ClassifyContours(t *testing.T) {
	s := newTestServer(t)

	triangle := func(dx float64) []map[string]float64 {
		return []map[string]float64{{"x": dx, "y": 0}, {"x": dx + 40, "y": 0}, {"x": dx + 20, "y": 30}}
	}
	args := map[string]interface{}{
		"contours": []interface{}{
			triangle(0),
			triangle(50),
			[]map[string]float64{{"x": 0, "y": 0}, {"x": 1, "y": 1}},
		},
	}

	var out classifyContoursResult
	mustCallTool(t, s, "landing_classify_contours", args, &out)

	if out.SkippedContours != 1 {
		t.Errorf("skipped: got %d, want 1", out.SkippedContours)
	}
	if len(out.Shapes) != 2 {
		t.Fatalf("shapes: got %d, want 2", len(out.Shapes))
	}
	for _, sh := range out.Shapes {
		if sh.Label != detection.Triangle {
			t.Errorf("shape %d: got %s, want Triangle", sh.Index, sh.Label)
		}
		if sh.Color != nil {
			t.Errorf("shape %d should carry no color", sh.Index)
		}
	}
	if len(out.Composites) != 1 {
		t.Fatalf("composites: got %d, want 1", len(out.Composites))
	}
	if d := out.Composites[0].Distance; d < 49 || d > 51 {
		t.Errorf("distance: got %v, want 50", d)
	}

	args["threshold_distance"] = 45
	mustCallTool(t, s, "landing_classify_contours", args, &out)
	if len(out.Composites) != 0 {
		t.Errorf("shapes beyond the threshold must not group, got %d composites", len(out.Composites))
	}
}

func TestHandleToolsCall_Fiducials(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var out fiducialsResult
	mustCallTool(t, s, "landing_fiducials", map[string]interface{}{"path": path}, &out)

	if out.Width != 300 || out.Height != 200 {
		t.Errorf("size: got %dx%d, want 300x200", out.Width, out.Height)
	}
	if len(out.Fiducials) != 1 {
		t.Fatalf("fiducials: got %d, want 1", len(out.Fiducials))
	}
	f := out.Fiducials[0]
	if len(f.Polygon) != 4 {
		t.Errorf("vertices: got %d, want 4", len(f.Polygon))
	}
	if f.Centroid == nil || f.Centroid.X < 67 || f.Centroid.X > 72 || f.Centroid.Y < 97 || f.Centroid.Y > 102 {
		t.Errorf("centroid: got %+v, want about (69.5, 99.5)", f.Centroid)
	}
}

func TestHandleToolsCall_Overlay(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"default", map[string]interface{}{"path": path}},
		{"shapes", map[string]interface{}{"path": path, "kind": OverlayShapes}},
		{"composites", map[string]interface{}{"path": path, "kind": OverlayComposites}},
		{"fiducials", map[string]interface{}{"path": path, "kind": OverlayFiducials}},
		{"edges", map[string]interface{}{"path": path, "kind": OverlayEdges, "kernel_size": 3}},
		{"mask", map[string]interface{}{"path": path, "kind": OverlayMask, "color": "Yellow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enc imaging.EncodedImage
			mustCallTool(t, s, "landing_overlay", tt.args, &enc)
			if enc.Width != 300 || enc.Height != 200 {
				t.Errorf("size: got %dx%d, want 300x200", enc.Width, enc.Height)
			}
			if enc.ImageBase64 == "" {
				t.Error("empty image data")
			}
		})
	}
}

func TestHandleToolsCall_Overlay_Errors(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	_, mcpErr := callTool(t, s, "landing_overlay", map[string]interface{}{"path": path, "kind": OverlayMask, "color": "Purple"})
	if mcpErr == nil || !strings.Contains(mcpErr.Data.(string), "Purple") {
		t.Errorf("unknown color range should fail, got %+v", mcpErr)
	}

	_, mcpErr = callTool(t, s, "landing_overlay", map[string]interface{}{"path": path, "kind": "heatmap"})
	if mcpErr == nil {
		t.Error("unknown overlay kind should fail")
	}
}

func TestHandleToolsCall_CompositeZoom(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var out struct {
		Composite report.Composite     `json:"composite"`
		Image     imaging.EncodedImage `json:"image"`
	}
	mustCallTool(t, s, "landing_composite_zoom", map[string]interface{}{"path": path}, &out)

	b := out.Composite.Bounds
	if b.Width == 0 || b.Height == 0 {
		t.Fatalf("composite bounds: got %+v", b)
	}
	// 10px padding on each side, doubled
	if out.Image.Width != 2*(b.Width+20) || out.Image.Height != 2*(b.Height+20) {
		t.Errorf("zoom size: got %dx%d for bounds %+v", out.Image.Width, out.Image.Height, b)
	}

	mustCallTool(t, s, "landing_composite_zoom", map[string]interface{}{"path": path, "padding": 0, "scale": 1}, &out)
	if out.Image.Width != b.Width || out.Image.Height != b.Height {
		t.Errorf("unpadded size: got %dx%d, want %dx%d", out.Image.Width, out.Image.Height, b.Width, b.Height)
	}

	_, mcpErr := callTool(t, s, "landing_composite_zoom", map[string]interface{}{"path": path, "index": 5})
	if mcpErr == nil || !strings.Contains(mcpErr.Data.(string), "out of range") {
		t.Errorf("out of range index should fail, got %+v", mcpErr)
	}
}

func TestHandleToolsCall_EdgeDetect(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	var enc imaging.EncodedImage
	mustCallTool(t, s, "landing_edge_detect", map[string]interface{}{"path": path, "threshold_low": 30, "threshold_high": 90}, &enc)
	if enc.Width != 300 || enc.Height != 200 {
		t.Errorf("size: got %dx%d, want 300x200", enc.Width, enc.Height)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)

	_, mcpErr := callTool(t, s, "nonexistent_tool", map[string]interface{}{})
	if mcpErr == nil {
		t.Fatal("Expected error for invalid tool")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	}
	resp := s.handleToolsCall(context.Background(), req)

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)

	// Every defined tool must dispatch.
	args := map[string]map[string]interface{}{
		"landing_image_info":        {"path": path},
		"landing_sample_color":      {"path": path, "x": 10, "y": 10},
		"landing_detect":            {"path": path},
		"landing_classify_contours": {"contours": []interface{}{}},
		"landing_fiducials":         {"path": path},
		"landing_overlay":           {"path": path},
		"landing_composite_zoom":    {"path": path},
		"landing_edge_detect":       {"path": path},
	}

	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			a, ok := args[tool.Name]
			if !ok {
				t.Fatalf("no test arguments for %s", tool.Name)
			}
			argsJSON, _ := codec.Marshal(a)
			result, err := s.executeTool(context.Background(), tool.Name, argsJSON)
			if err != nil {
				t.Fatalf("executeTool(%s) failed: %v", tool.Name, err)
			}
			if result == nil {
				t.Errorf("executeTool(%s) returned nil result", tool.Name)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := newTestServer(t)

	_, err := s.executeTool(context.Background(), "unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	_, err := s.executeTool(context.Background(), "landing_image_info", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}

func TestExecuteTool_Cancelled(t *testing.T) {
	s := newTestServer(t)
	path := createPadImageFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	argsJSON, _ := codec.Marshal(map[string]interface{}{"path": path})
	if _, err := s.executeTool(ctx, "landing_detect", argsJSON); err == nil {
		t.Error("detection should stop on a cancelled context")
	}
}
