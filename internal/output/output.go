// Package output renders command results as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer renders values in one format. It is safe for concurrent use, so a
// watcher can report cycles from several goroutines without interleaving.
type Writer struct {
	mu     sync.Mutex
	format Format
	w      io.Writer
	stream bool
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Stream switches the writer to a multi-document layout: JSON becomes one
// compact object per line and YAML documents are separated by "---".
func (w *Writer) Stream() *Writer {
	w.stream = true
	return w
}

// Format returns the configured format.
func (w *Writer) Format() Format {
	return w.format
}

// Write outputs v in the configured format.
// Text output uses the value's String method when it has one.
func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		if !w.stream {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	case FormatYAML:
		if w.stream {
			if _, err := io.WriteString(w.w, "---\n"); err != nil {
				return err
			}
		}
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat parses a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}
