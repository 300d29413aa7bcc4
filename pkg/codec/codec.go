// Package codec reads and writes templates and data documents as JSON or
// YAML, keeping object key order intact in both directions.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/sandrolain/actemplate/pkg/types"
)

// Format is a document encoding.
type Format string

// Supported formats.
const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a format name. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json or yaml)", name)
	}
}

// FormatFromPath picks the format from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Decode parses a document.
func Decode(data []byte, format Format) (types.Value, error) {
	switch format {
	case JSON:
		return types.ParseJSON(bytes.TrimSpace(data))
	case YAML:
		return decodeYAML(data)
	default:
		return types.Value{}, fmt.Errorf("unsupported format %q", format)
	}
}

// ReadFile decodes the file at path, choosing the format by extension.
// The path "-" reads JSON from stdin.
func ReadFile(path string) (types.Value, error) {
	if path == "-" {
		return Read(os.Stdin, JSON)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Value{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	v, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return types.Value{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return v, nil
}

// Read decodes a whole stream.
func Read(r io.Reader, format Format) (types.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.Value{}, fmt.Errorf("failed to read input: %w", err)
	}
	return Decode(data, format)
}

// Encode renders v. For JSON an indent of 0 produces compact output; for
// YAML it sets the block indent and defaults to 2. Undefined values are
// written as null.
func Encode(v types.Value, format Format, indent int) ([]byte, error) {
	switch format {
	case JSON:
		raw, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		if indent <= 0 {
			return append(raw, '\n'), nil
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", strings.Repeat(" ", indent)); err != nil {
			return nil, fmt.Errorf("failed to indent JSON: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case YAML:
		return encodeYAML(v, indent)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// WriteFile writes data to path atomically: readers see either the old
// file or the complete new one. The path "-" writes to stdout.
func WriteFile(path string, data []byte) error {
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
