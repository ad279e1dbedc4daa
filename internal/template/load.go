package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a template file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for template files whose extension is
// neither .json nor .yaml/.yml.
var ErrUnsupportedFormat = errors.New("unsupported template format")

// ParseError reports a template file that could not be read, validated or
// decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and validates a template file.
//
// Parameters:
//   - path: Template file path. The extension selects JSON or YAML.
//
// Returns:
//   - *Model: The decoded template.
//   - error: A *ParseError if the file cannot be read, does not satisfy the
//     template schema, or cannot be decoded.
func Load(path string) (*Model, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	m, err := Decode(data, format)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return m, nil
}

// Decode validates and decodes an in-memory template document.
//
// YAML documents are converted to JSON first so both encodings go through
// the same schema check and the same field mapping.
func Decode(data []byte, format Format) (*Model, error) {
	doc := data
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		doc = converted
	} else if format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := validateJSON(doc); err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return canonical(&m), nil
}

// Marshal encodes a template. JSON output is indented and is the canonical
// form written by Save. Missing item and relation lists are written as empty
// lists.
func Marshal(m *Model, format Format) ([]byte, error) {
	m = canonical(m)
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode template: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to encode template: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Save writes a template to path in the encoding implied by its extension.
func Save(path string, m *Model) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Marshal(m, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse YAML template: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML template: %w", err)
	}
	return out, nil
}
