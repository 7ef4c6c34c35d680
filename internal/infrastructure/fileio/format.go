// Package fileio reads glossaries and record tables from CSV, JSON, JSON
// Lines and YAML documents and writes extraction results as CSV or JSON
// Lines.
package fileio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/rostertag/pkg/errors"
)

// Format is a document encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts a format name or file extension ("csv", ".yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeValidation, "unsupported format").WithDetail(s)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errors.New(errors.ErrCodeValidation, "cannot infer format without a file extension").WithDetail(path)
	}
	return ParseFormat(ext)
}

// Extension returns the canonical file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open file").WithDetail(path)
	}
	return f, nil
}

//Personal.AI order the ending
