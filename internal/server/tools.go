package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// tuningProperties are the optional detection overrides shared by the tools
// that run the full pipeline.
func tuningProperties(props map[string]interface{}) map[string]interface{} {
	props["threshold_distance"] = map[string]interface{}{
		"type":        "number",
		"description": "Maximum centroid distance in pixels for two shapes to form a composite (default: configured value)",
	}
	props["canny_low"] = map[string]interface{}{
		"type":        "integer",
		"description": "Lower Canny hysteresis threshold (default: configured value)",
	}
	props["canny_high"] = map[string]interface{}{
		"type":        "integer",
		"description": "Upper Canny hysteresis threshold (default: configured value)",
	}
	props["kernel_size"] = map[string]interface{}{
		"type":        "integer",
		"description": "Morphological closing kernel size (default: configured value)",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "landing_image_info",
			Description: "Load an image file and return its dimensions, format and size. The image is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "landing_sample_color",
			Description: "Get the color at a pixel in hex, RGB and OpenCV-style HSV (H 0-179, S and V 0-255). Useful for tuning color ranges.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate of the pixel",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate of the pixel",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Detection
		{
			Name: "landing_detect",
			Description: "Run landing-pad detection on an image. Returns classified shapes (Triangle, Square, Rectangle, Circle, Cross), " +
				"composite pairs of nearby shapes and black fiducial squares. Coordinates refer to the working image, whose size and " +
				"scale are reported.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": tuningProperties(map[string]interface{}{
					"path": pathProperty(),
					"include_overlays": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the shape, composite and fiducial overlays as base64 PNG (default: false)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "landing_classify_contours",
			Description: "Classify caller-supplied contours and group them into composites without touching an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"contours": map[string]interface{}{
						"type":        "array",
						"description": "Closed contours, each an ordered array of {x, y} points",
						"items": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"x": map[string]interface{}{"type": "number"},
									"y": map[string]interface{}{"type": "number"},
								},
								"required": []string{"x", "y"},
							},
						},
					},
					"threshold_distance": map[string]interface{}{
						"type":        "number",
						"description": "Maximum centroid distance in pixels for two shapes to form a composite (default: configured value)",
					},
				},
				"required": []string{"contours"},
			},
		},
		{
			Name:        "landing_fiducials",
			Description: "Find black fiducial squares in an image at its native resolution.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Renderings
		{
			Name:        "landing_overlay",
			Description: "Run detection and return one rendering as base64 PNG: annotated shapes, composites or fiducials, the closed edge image, or a color mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": tuningProperties(map[string]interface{}{
					"path": pathProperty(),
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{OverlayShapes, OverlayComposites, OverlayFiducials, OverlayEdges, OverlayMask},
						"description": "Rendering to return (default: composites)",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Color range name when kind is mask (e.g. Yellow, Red, Auto)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "landing_composite_zoom",
			Description: "Run detection and return a zoomed crop around one composite pair.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": tuningProperties(map[string]interface{}{
					"path": pathProperty(),
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Composite index in detection order (default: 0)",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the pair's bounding box (default: 10)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Zoom factor applied to the crop (default: 2.0)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "landing_edge_detect",
			Description: "Run Canny edge detection on the original image and return the edge mask as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Low threshold for hysteresis (default: configured canny_low)",
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "High threshold for hysteresis (default: configured canny_high)",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}
