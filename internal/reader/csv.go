package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/cleared-dev/stmtmerge/internal/table"
)

const utf8BOM = "\ufeff"

// CSV decodes comma-separated exports. Every cell is text.
type CSV struct {
	Encoding  encoding.Encoding
	NullMarks table.NullMarks
}

// Format returns the decoder name.
func (d *CSV) Format() string { return "csv" }

// Decode reads the whole file; the first record is the header.
func (d *CSV) Decode(r io.ReadSeeker) (*table.Table, error) {
	var in io.Reader = r
	if d.Encoding != nil {
		in = transform.NewReader(r, d.Encoding.NewDecoder())
	}

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var b builder
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if !b.seen {
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
			}
			b.setHeader(rec)
			continue
		}
		row := make(table.Row, len(rec))
		for i, field := range rec {
			row[i] = d.NullMarks.Apply(table.String(field))
		}
		b.add(row)
	}
	return b.table()
}
