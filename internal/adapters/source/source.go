// Package source reads race result tables from CSV and XLSX inputs.
// Every cell is returned as opaque text; parsing durations is left to
// the timecodec package.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/splits/internal/domain/model"
)

// Format names an input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Read decodes r as the given format.
func Read(ctx context.Context, r io.Reader, f Format) (model.Table, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(ctx, r)
	case FormatXLSX:
		return ReadXLSX(ctx, r)
	default:
		return model.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// ReadFile opens path and decodes it using its extension.
func ReadFile(ctx context.Context, path string) (model.Table, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return model.Table{}, err
	}
	fh, err := os.Open(path) // #nosec G304 -- path comes from the operator or the watched directory
	if err != nil {
		return model.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = fh.Close() }()
	return Read(ctx, fh, f)
}

// header validates and copies a header record.
func header(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, ErrNoHeader
	}
	cols := make([]string, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, f)
		}
		seen[f] = struct{}{}
		cols[i] = f
	}
	return cols, nil
}
