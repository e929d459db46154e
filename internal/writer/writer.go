// Package writer persists the merged canonical table.
package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/stmtmerge/internal/model"
)

// Format is an output file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists every supported output format.
var Formats = []Format{FormatParquet, FormatCSV}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// WriteFile writes rows to <dir>/<basename>.<format> and returns the path.
func WriteFile(dir, basename string, format Format, rows []model.CanonicalRow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, basename+"."+string(format))

	switch format {
	case FormatParquet:
		if err := WriteParquet(path, rows); err != nil {
			return "", err
		}
	case FormatCSV:
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
		if err := WriteCSV(f, rows); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing %s: %w", path, err)
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return path, nil
}
