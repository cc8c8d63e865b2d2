// Package server implements the MCP (Model Context Protocol) server for
// landing-pad detection.
//
// The server speaks JSON-RPC 2.0 over a line-oriented stream, normally the
// process's stdin and stdout:
//   - Input: one JSON-RPC request per line
//   - Output: one JSON-RPC response per line
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - landing_image_info: Load image and get metadata
//   - landing_sample_color: Get color at pixel, with OpenCV-style HSV
//
// Detection:
//   - landing_detect: Full pipeline, returning shapes, composites and fiducials
//   - landing_classify_contours: Classify and group caller-supplied contours
//   - landing_fiducials: Black fiducial squares at native resolution
//
// Renderings:
//   - landing_overlay: Annotated overlay, edge image or color mask
//   - landing_composite_zoom: Zoomed crop around one composite pair
//   - landing_edge_detect: Canny edge mask of the original image
//
// Tools that run the pipeline accept threshold_distance, canny_low,
// canny_high and kernel_size to override the configured values for a
// single call.
//
// # Image Caching
//
// Source images are cached by path for the lifetime of the server.
// Detection results are not cached.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	p, _ := pipeline.New(cfg)
//	r, _ := overlay.NewRenderer(cfg.Overlay)
//	srv := server.New(p, r, log, version)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
