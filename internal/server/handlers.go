package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/imaging"
	"github.com/connoisseur/noisseur/internal/match"
	"github.com/connoisseur/noisseur/internal/recognize"
	"github.com/connoisseur/noisseur/internal/template"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "screen_recognize", "template_list").
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
// An unrecognized screen is not an error: screen_recognize reports it in the
// result with success=false.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		var cfgErr *match.ConfigError
		if errors.As(err, &cfgErr) {
			s.logger.Error("template configuration error", "tool", params.Name, "error", err)
			return s.errorResponse(req.ID, -32000, "Template configuration error", err.Error())
		}
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "screen_recognize":
		return s.handleScreenRecognize(args)
	case "screen_match":
		return s.handleScreenMatch(args)
	case "screen_ocr":
		return s.handleScreenOCR(args)

	// Templates
	case "template_list":
		return s.handleTemplateList(args)
	case "template_get":
		return s.handleTemplateGet(args)
	case "template_reload":
		return s.handleTemplateReload(args)

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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Recognition Handlers ===

// screenArgs are the arguments shared by the screen_* tools.
type screenArgs struct {
	Path     string  `json:"path"`
	Pipeline string  `json:"pipeline"`
	Scale    float64 `json:"scale"`
}

// request parses screen tool arguments and reads the screenshot.
func request(args json.RawMessage) (recognize.Request, error) {
	var p screenArgs
	if err := json.Unmarshal(args, &p); err != nil {
		return recognize.Request{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Path == "" {
		return recognize.Request{}, errors.New("path is required")
	}
	if p.Scale < 0 {
		return recognize.Request{}, fmt.Errorf("scale must be positive, got %g", p.Scale)
	}

	data, _, err := imaging.ReadFile(p.Path)
	if err != nil {
		return recognize.Request{}, err
	}
	return recognize.Request{Image: data, Pipeline: p.Pipeline, Scale: p.Scale}, nil
}

func (s *Server) handleScreenRecognize(args json.RawMessage) (interface{}, error) {
	req, err := request(args)
	if err != nil {
		return nil, err
	}
	return s.recognizer.Recognize(req)
}

// MatchResult describes how a screenshot aligns with a template.
type MatchResult struct {
	Matched    bool    `json:"matched"`
	Error      string  `json:"error,omitempty"`
	TemplateID string  `json:"template_id,omitempty"`
	ScreenType string  `json:"screen_type,omitempty"`
	Source     string  `json:"source,omitempty"`
	OffsetX    int     `json:"offset_x"`
	OffsetY    int     `json:"offset_y"`
	ScaleX     float64 `json:"scale_x"`
	ScaleY     float64 `json:"scale_y"`
}

func (s *Server) handleScreenMatch(args json.RawMessage) (interface{}, error) {
	req, err := request(args)
	if err != nil {
		return nil, err
	}

	a, err := s.recognizer.Align(req)
	if err != nil {
		return &MatchResult{Matched: false, Error: err.Error()}, nil
	}
	return &MatchResult{
		Matched:    true,
		TemplateID: a.Match.Model.ID,
		ScreenType: a.Match.Model.ScreenType,
		Source:     a.Source,
		OffsetX:    a.Match.OffsetX,
		OffsetY:    a.Match.OffsetY,
		ScaleX:     a.Match.ScaleX,
		ScaleY:     a.Match.ScaleY,
	}, nil
}

// OCRResult is the recognized text of a pre-processed screenshot.
type OCRResult struct {
	Pipeline  string      `json:"pipeline"`
	Scale     float64     `json:"scale"`
	Border    int         `json:"border"`
	Text      string      `json:"text"`
	WordCount int         `json:"word_count"`
	Lines     []hocr.Line `json:"lines"`
}

func (s *Server) handleScreenOCR(args json.RawMessage) (interface{}, error) {
	req, err := request(args)
	if err != nil {
		return nil, err
	}

	doc, p, err := s.recognizer.Document(req)
	if err != nil {
		return nil, err
	}
	return &OCRResult{
		Pipeline:  p.String(),
		Scale:     p.Scale(),
		Border:    p.Border(),
		Text:      doc.Text(),
		WordCount: doc.WordCount(),
		Lines:     doc.Lines,
	}, nil
}

// === Template Handlers ===

// TemplateSummary describes a loaded template.
type TemplateSummary struct {
	ID          string `json:"id" yaml:"id"`
	ScreenType  string `json:"screen_type" yaml:"screen_type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	Items       int    `json:"items" yaml:"items"`
}

// TemplateListResult lists templates in match order.
type TemplateListResult struct {
	Templates []TemplateSummary `json:"templates" yaml:"templates"`
	Count     int               `json:"count" yaml:"count"`
}

// Summarize lists the templates of reg in match order.
func Summarize(reg *template.Registry) *TemplateListResult {
	out := &TemplateListResult{Templates: []TemplateSummary{}}
	for _, m := range reg.Models() {
		items := 0
		if m.Form != nil {
			items = len(m.Form.Items)
		}
		out.Templates = append(out.Templates, TemplateSummary{
			ID:          m.ID,
			ScreenType:  m.ScreenType,
			Description: m.Description,
			Source:      reg.Source(m),
			Items:       items,
		})
	}
	out.Count = len(out.Templates)
	return out
}

func (s *Server) handleTemplateList(_ json.RawMessage) (interface{}, error) {
	return Summarize(s.store.Registry()), nil
}

func (s *Server) handleTemplateGet(args json.RawMessage) (interface{}, error) {
	var p struct {
		ID         string `json:"id"`
		ScreenType string `json:"screen_type"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	reg := s.store.Registry()
	switch {
	case p.ID != "":
		if m := reg.FindByID(p.ID); m != nil {
			return m, nil
		}
		return nil, fmt.Errorf("template %q not found", p.ID)
	case p.ScreenType != "":
		if m := reg.FindByScreenType(p.ScreenType); m != nil {
			return m, nil
		}
		return nil, fmt.Errorf("no template for screen type %q", p.ScreenType)
	default:
		return nil, errors.New("id or screen_type is required")
	}
}

func (s *Server) handleTemplateReload(_ json.RawMessage) (interface{}, error) {
	if err := s.store.Reload(); err != nil {
		return nil, err
	}
	return Summarize(s.store.Registry()), nil
}
