package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the screenshot",
	}
	pipelineProperty = map[string]interface{}{
		"type":        "string",
		"description": "Pre-processing chain applied before OCR, e.g. \"scale(3.1)|sharpen|bw|border(30)\". Defaults to the server's configured pipeline",
	}
	scaleProperty = map[string]interface{}{
		"type":        "number",
		"description": "Factor between template and OCR coordinates. Defaults to the pipeline's scale",
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "screen_recognize",
			Description: "Recognize a device screenshot: OCR it, identify the screen type from the template library and return the extracted fields. Unrecognized screens return success=false with the reason in errors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"pipeline": pipelineProperty,
					"scale":    scaleProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "screen_match",
			Description: "Identify which template a screenshot matches and how it is aligned (offset and scale), without extracting fields.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"pipeline": pipelineProperty,
					"scale":    scaleProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "screen_ocr",
			Description: "Run OCR on a screenshot and return the recognized lines and words with their bounding boxes and confidences, in pre-processed image coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"pipeline": pipelineProperty,
				},
				"required": []string{"path"},
			},
		},

		// Templates
		{
			Name:        "template_list",
			Description: "List the loaded screen templates in match order.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "template_get",
			Description: "Return a screen template by id or by screen type.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Template id, e.g. \"model007\"",
					},
					"screen_type": map[string]interface{}{
						"type":        "string",
						"description": "Screen type, e.g. \"patient-registration\"",
					},
				},
			},
		},
		{
			Name:        "template_reload",
			Description: "Reload the template library from disk. On failure the previous templates stay in use.",
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
