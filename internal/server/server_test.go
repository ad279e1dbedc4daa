package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/connoisseur/noisseur/internal/geom"
	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/recognize"
	"github.com/connoisseur/noisseur/internal/template"
)

var samplesDir = filepath.Join("..", "..", "templates")

var sampleSources = []string{"s_007.json", "s_010.json", "s_011.json"}

// fakeOCR returns the same document for every call.
type fakeOCR struct {
	doc *hocr.Document
}

func (f *fakeOCR) Recognize(_ []byte, _ string) (*hocr.Document, error) {
	return f.doc, nil
}

func word(text string, l, t, r, b int) hocr.Word {
	return hocr.Word{Text: text, BBox: geom.NewRect(l, t, r, b), Confidence: 90, CharConfidence: 90}
}

// editorDoc is the program editor screen shifted down by 2px with one step
// in the first list row.
func editorDoc() *hocr.Document {
	return &hocr.Document{Lines: []hocr.Line{
		{
			BBox: geom.NewRect(10, 5, 254, 25),
			Words: []hocr.Word{
				word("Dot", 10, 5, 40, 25), word("Cockpit", 45, 5, 110, 25),
				word("-", 115, 5, 120, 25), word("Program", 125, 5, 190, 25), word("Editor", 195, 5, 254, 25),
			},
		},
		{
			BBox:  geom.NewRect(30, 155, 80, 170),
			Words: []hocr.Word{word("Wash", 30, 155, 80, 170)},
		},
	}}
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "screen.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func sampleStore(t *testing.T) *template.Store {
	t.Helper()
	store, err := template.NewStore(samplesDir, sampleSources, nil)
	if err != nil {
		t.Fatalf("failed to load sample templates: %v", err)
	}
	return store
}

func newTestServer(t *testing.T, store *template.Store, doc *hocr.Document) *Server {
	t.Helper()
	rec, err := recognize.New(&fakeOCR{doc: doc}, store, recognize.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("recognize.New failed: %v", err)
	}
	return New(rec, store, "test", nil)
}

func TestNew(t *testing.T) {
	s := newTestServer(t, sampleStore(t), editorDoc())
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.recognizer == nil || s.store == nil || s.logger == nil {
		t.Fatal("New() did not initialize server")
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Methods(t *testing.T) {
	s := newTestServer(t, sampleStore(t), editorDoc())

	tests := []struct {
		method    string
		wantNil   bool
		wantError int
	}{
		{"initialize", false, 0},
		{"notifications/initialized", true, 0},
		{"tools/list", false, 0},
		{"ping", false, 0},
		{"resources/list", false, -32601},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: tt.method})
			if tt.wantNil {
				if resp != nil {
					t.Errorf("expected no response, got %+v", resp)
				}
				return
			}
			if resp == nil {
				t.Fatal("handleRequest returned nil")
			}
			if resp.JSONRPC != "2.0" || resp.ID != 1 {
				t.Errorf("envelope: got %s/%v", resp.JSONRPC, resp.ID)
			}
			switch {
			case tt.wantError == 0 && resp.Error != nil:
				t.Errorf("unexpected error: %+v", resp.Error)
			case tt.wantError != 0 && (resp.Error == nil || resp.Error.Code != tt.wantError):
				t.Errorf("error: got %+v, want code %d", resp.Error, tt.wantError)
			}
		})
	}
}

func TestHandleInitialize(t *testing.T) {
	s := newTestServer(t, sampleStore(t), editorDoc())
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	result := resp.Result.(map[string]interface{})
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "noisseur" || info["version"] != "test" {
		t.Errorf("serverInfo: got %v", info)
	}
}

func TestServe(t *testing.T) {
	s := newTestServer(t, sampleStore(t), editorDoc())

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled"}`,
		``,
		`this is not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var ids []float64
	parseErrors := 0
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp MCPResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response line %q: %v", scanner.Text(), err)
		}
		if resp.Error != nil {
			if resp.Error.Code != -32700 || resp.ID != nil {
				t.Errorf("response %v: unexpected error %+v", resp.ID, resp.Error)
			}
			parseErrors++
			continue
		}
		ids = append(ids, resp.ID.(float64))
	}

	if parseErrors != 1 {
		t.Errorf("expected 1 parse error response, got %d", parseErrors)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("response ids: got %v, want [1 2 3]", ids)
	}
}

func TestServe_Cancelled(t *testing.T) {
	s := newTestServer(t, sampleStore(t), editorDoc())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("cancelled server wrote %q", out.String())
	}
}

func TestMCPError_Marshal(t *testing.T) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      1,
		Error: &MCPError{
			Code:    -32601,
			Message: "Method not found",
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Errorf("error response should omit result: %s", data)
	}
}
