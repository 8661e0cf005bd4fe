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

// pipelineProperties returns the optional per-call overrides shared by
// every blob_* tool, merged with the tool's own properties.
func pipelineProperties(own map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": pathProperty(),
		"preset": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"default", "adaptive"},
			"description": "Start from the server defaults or from the adaptive preset for unevenly lit photos",
		},
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"global", "adaptive"},
			"description": "Threshold mode",
		},
		"polarity": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"invert", "normal"},
			"description": "invert: dark objects on a light background; normal: bright objects",
		},
		"cutoff": map[string]interface{}{
			"type":        "integer",
			"description": "Global threshold level (0-255). Default 100",
		},
		"window": map[string]interface{}{
			"type":        "integer",
			"description": "Adaptive neighborhood size, odd and >= 3",
		},
		"offset": map[string]interface{}{
			"type":        "integer",
			"description": "Constant subtracted from the adaptive local mean",
		},
		"blur": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian blur radius applied before thresholding; 0 disables",
		},
		"radius": map[string]interface{}{
			"type":        "integer",
			"description": "Structuring element radius. Default 2 (5x5)",
		},
		"open": map[string]interface{}{
			"type":        "integer",
			"description": "Opening iterations (removes specks)",
		},
		"dilate": map[string]interface{}{
			"type":        "integer",
			"description": "Extra dilation iterations (merges fragments)",
		},
		"close": map[string]interface{}{
			"type":        "integer",
			"description": "Closing iterations (fills holes)",
		},
		"min_area": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum blob area in pixels",
		},
		"min_area_fraction": map[string]interface{}{
			"type":        "number",
			"description": "Minimum blob area as a share of the image area; overrides min_area",
		},
	}
	for k, v := range own {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent blob_* calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Blob Segmentation
		{
			Name:        "blob_segment",
			Description: "Count the objects in an image: threshold, morphological cleanup, 8-connected labeling and an area filter. Returns every accepted object with area, bounding box and centroid, plus area statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pipelineProperties(map[string]interface{}{
					"include_rejected": map[string]interface{}{
						"type":        "boolean",
						"description": "Also list the blobs the area filter rejected",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "blob_mask",
			Description: "Render an intermediate stage of the pipeline as a base64-encoded PNG: the thresholded mask, the mask after morphology, or a false-color label map.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pipelineProperties(map[string]interface{}{
					"stage": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"binary", "cleaned", "labels"},
						"description": "Pipeline stage to render. Default cleaned",
						"default":     "cleaned",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "blob_annotate",
			Description: "Draw a box, a centroid dot and the centroid coordinates for every accepted object and return the annotated image as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pipelineProperties(map[string]interface{}{
					"save_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to also write the annotated image to",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "blob_crop",
			Description: "Crop one accepted object out of the image, by its 1-based index in the blob_segment report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pipelineProperties(map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "1-based object index from blob_segment",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the bounding box. Default 0",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path", "index"},
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
