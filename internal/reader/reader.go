// Package reader decodes statement files into tables. Each supported file
// format has a Decoder; the Registry dispatches on the file extension.
package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/cleared-dev/stmtmerge/internal/table"
)

var (
	// ErrUnsupportedFormat is returned for files no decoder is registered for.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEmptyFile is returned when a sheet has no data rows below its header.
	ErrEmptyFile = errors.New("file is empty")
	// ErrUnknownEncoding is returned by LookupEncoding.
	ErrUnknownEncoding = errors.New("unknown text encoding")
)

// Decoder converts one file format into a table.
type Decoder interface {
	Decode(r io.ReadSeeker) (*table.Table, error)
	Format() string
}

// Options configure the built-in decoders.
type Options struct {
	// Encoding of CSV input; nil means UTF-8.
	Encoding  encoding.Encoding
	NullMarks table.NullMarks
}

// Registry holds decoders keyed by format name, which is also the file
// extension they handle.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry creates an empty decoder registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register adds a decoder. Panics on duplicate format.
func (r *Registry) Register(d Decoder) {
	key := strings.ToLower(d.Format())
	if _, ok := r.decoders[key]; ok {
		panic("duplicate decoder format: " + key)
	}
	r.decoders[key] = d
}

// Get returns the decoder for format, or nil.
func (r *Registry) Get(format string) Decoder {
	return r.decoders[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with the CSV, XLSX and XLS decoders.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	r.Register(&CSV{Encoding: opts.Encoding, NullMarks: opts.NullMarks})
	r.Register(&XLSX{NullMarks: opts.NullMarks})
	r.Register(&XLS{NullMarks: opts.NullMarks})
	return r
}

// FormatOf returns the lower-cased extension of path without the dot.
func FormatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ReadFile decodes the file at path with the decoder for its extension.
func (r *Registry) ReadFile(path string) (*table.Table, error) {
	format := FormatOf(path)
	dec := r.Get(format)
	if dec == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return t, nil
}

// LookupEncoding maps a configured encoding name to a decoder for CSV input.
// UTF-8 maps to nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}

// builder accumulates decoded rows and enforces the rules every decoder
// shares: the first row is the header, blank rows are dropped and a sheet
// without data rows is empty.
type builder struct {
	header []string
	rows   []table.Row
	seen   bool
}

func (b *builder) setHeader(cells []string) {
	b.header = make([]string, len(cells))
	for i, c := range cells {
		b.header[i] = strings.TrimSpace(c)
	}
	b.seen = true
}

func (b *builder) add(row table.Row) {
	for _, v := range row {
		if !v.IsNull() {
			b.rows = append(b.rows, row)
			return
		}
	}
}

func (b *builder) table() (*table.Table, error) {
	if !b.seen || len(b.rows) == 0 {
		return nil, ErrEmptyFile
	}
	return table.New(b.header, b.rows), nil
}
