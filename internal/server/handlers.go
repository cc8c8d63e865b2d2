package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/landing-detect/internal/config"
	"github.com/ironsheep/landing-detect/internal/geometry"
	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/pipeline"
	"github.com/ironsheep/landing-detect/internal/report"
)

// Overlay kinds accepted by landing_overlay.
const (
	OverlayShapes     = "shapes"
	OverlayComposites = "composites"
	OverlayFiducials  = "fiducials"
	OverlayEdges      = "edges"
	OverlayMask       = "mask"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "landing_detect").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := codec.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Runs the pipeline, or one of its stages
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Information
	case "landing_image_info":
		return s.handleImageInfo(args)
	case "landing_sample_color":
		return s.handleSampleColor(args)

	// Detection
	case "landing_detect":
		return s.handleDetect(ctx, args)
	case "landing_classify_contours":
		return s.handleClassifyContours(args)
	case "landing_fiducials":
		return s.handleFiducials(args)

	// Renderings
	case "landing_overlay":
		return s.handleOverlay(ctx, args)
	case "landing_composite_zoom":
		return s.handleCompositeZoom(ctx, args)
	case "landing_edge_detect":
		return s.handleEdgeDetect(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := codec.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := codec.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Image Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type sampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

// === Detection Handlers ===

// tuning holds per-call overrides of the detection settings. Nil fields
// keep the server's configuration.
type tuning struct {
	ThresholdDistance *float64 `json:"threshold_distance,omitempty"`
	CannyLow          *int     `json:"canny_low,omitempty"`
	CannyHigh         *int     `json:"canny_high,omitempty"`
	KernelSize        *int     `json:"kernel_size,omitempty"`
}

func (t tuning) empty() bool {
	return t.ThresholdDistance == nil && t.CannyLow == nil && t.CannyHigh == nil && t.KernelSize == nil
}

func (t tuning) apply(cfg *config.Config) {
	if t.ThresholdDistance != nil {
		cfg.Grouper.ThresholdDistance = *t.ThresholdDistance
	}
	if t.CannyLow != nil {
		cfg.Edges.CannyLow = *t.CannyLow
	}
	if t.CannyHigh != nil {
		cfg.Edges.CannyHigh = *t.CannyHigh
	}
	if t.KernelSize != nil {
		cfg.Edges.KernelSize = *t.KernelSize
	}
}

// pipelineFor returns the server pipeline, or a derived one when t
// overrides any setting.
func (s *Server) pipelineFor(t tuning) (*pipeline.Pipeline, error) {
	if t.empty() {
		return s.pipeline, nil
	}
	return s.pipeline.Derive(t.apply)
}

// detect runs the full pipeline on the cached image at path.
func (s *Server) detect(ctx context.Context, path string, t tuning) (*pipeline.Result, error) {
	p, err := s.pipelineFor(t)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := p.Process(ctx, img)
	if err != nil {
		return nil, err
	}
	res.Path = path
	if info, err := imaging.DescribeImage(img, path); err == nil {
		res.Source = info
	}
	return res, nil
}

type detectArgs struct {
	Path string `json:"path"`
	tuning
	IncludeOverlays bool `json:"include_overlays"`
}

type detectResult struct {
	report.Image
	Renderings map[string]*imaging.EncodedImage `json:"renderings,omitempty"`
}

func (s *Server) handleDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.detect(ctx, a.Path, a.tuning)
	if err != nil {
		return nil, err
	}

	out := detectResult{Image: report.FromResult(res)}
	if a.IncludeOverlays {
		ov := res.Overlays(s.renderer)
		out.Renderings = make(map[string]*imaging.EncodedImage, 3)
		for kind, img := range map[string]image.Image{
			OverlayShapes:     ov.Shapes,
			OverlayComposites: ov.Composites,
			OverlayFiducials:  ov.Fiducials,
		} {
			enc, err := imaging.EncodePNG(img)
			if err != nil {
				return nil, err
			}
			out.Renderings[kind] = enc
		}
	}
	return out, nil
}

type classifyContoursArgs struct {
	Contours          []geometry.Contour `json:"contours"`
	ThresholdDistance *float64           `json:"threshold_distance,omitempty"`
}

type classifyContoursResult struct {
	Shapes          []report.Shape     `json:"shapes"`
	Composites      []report.Composite `json:"composites"`
	SkippedContours int                `json:"skipped_contours"`
}

func (s *Server) handleClassifyContours(args json.RawMessage) (interface{}, error) {
	var a classifyContoursArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(tuning{ThresholdDistance: a.ThresholdDistance})
	if err != nil {
		return nil, err
	}
	shapes, pairs, skipped := p.ProcessContours(a.Contours)
	return classifyContoursResult{
		Shapes:          report.Shapes(nil, shapes),
		Composites:      report.Composites(pairs),
		SkippedContours: skipped,
	}, nil
}

type fiducialsResult struct {
	Path      string            `json:"path"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Fiducials []report.Fiducial `json:"fiducials"`
}

func (s *Server) handleFiducials(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	found, err := s.pipeline.Fiducials(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return fiducialsResult{
		Path:      a.Path,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Fiducials: report.Fiducials(found),
	}, nil
}

// === Rendering Handlers ===

type overlayArgs struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	// Color names the range rendered when Kind is "mask".
	Color string `json:"color"`
	tuning
}

func (s *Server) handleOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Kind == "" {
		a.Kind = OverlayComposites
	}
	res, err := s.detect(ctx, a.Path, a.tuning)
	if err != nil {
		return nil, err
	}

	var img image.Image
	switch a.Kind {
	case OverlayShapes:
		img = s.renderer.Shapes(res.Frame.Image, res.Shapes)
	case OverlayComposites:
		img = res.Overlays(s.renderer).Composites
	case OverlayFiducials:
		img = s.renderer.Fiducials(res.Frame.Image, res.Fiducials)
	case OverlayEdges:
		img = res.Edges
	case OverlayMask:
		for _, m := range res.ColorMasks {
			if m.Range.Name == a.Color {
				img = m.Mask
				break
			}
		}
		if img == nil {
			return nil, fmt.Errorf("no color range named %q", a.Color)
		}
	default:
		return nil, fmt.Errorf("unknown overlay kind: %s", a.Kind)
	}
	return imaging.EncodePNG(img)
}

type compositeZoomArgs struct {
	Path    string  `json:"path"`
	Index   int     `json:"index"`
	Padding *int    `json:"padding,omitempty"`
	Scale   float64 `json:"scale"`
	tuning
}

type compositeZoomResult struct {
	Composite report.Composite      `json:"composite"`
	Image     *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleCompositeZoom(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a compositeZoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	padding := 10
	if a.Padding != nil {
		padding = *a.Padding
	}
	if a.Scale == 0 {
		a.Scale = 2.0
	}

	res, err := s.detect(ctx, a.Path, a.tuning)
	if err != nil {
		return nil, err
	}
	if a.Index < 0 || a.Index >= len(res.Composites) {
		return nil, fmt.Errorf("composite index %d out of range (found %d)", a.Index, len(res.Composites))
	}

	pairs := res.Composites[a.Index : a.Index+1]
	crop, err := imaging.CropZoom(res.Frame.Image, pairs[0].Bounds().Image(), padding, a.Scale)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(crop)
	if err != nil {
		return nil, err
	}
	return compositeZoomResult{Composite: report.Composites(pairs)[0], Image: enc}, nil
}

type edgeDetectArgs struct {
	Path          string `json:"path"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
}

func (s *Server) handleEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	edges := s.pipeline.Config().Edges
	if a.ThresholdLow == 0 {
		a.ThresholdLow = edges.CannyLow
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = edges.CannyHigh
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh)
}
