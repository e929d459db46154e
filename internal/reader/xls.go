package reader

import (
	"fmt"
	"io"

	"github.com/extrame/xls"

	"github.com/cleared-dev/stmtmerge/internal/table"
)

// XLS decodes the first sheet of a legacy BIFF workbook. The library
// renders every cell as text.
type XLS struct {
	NullMarks table.NullMarks
}

// Format returns the decoder name.
func (d *XLS) Format() string { return "xls" }

// Decode reads the first sheet; its first non-empty row is the header.
func (d *XLS) Decode(r io.ReadSeeker) (*table.Table, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	var b builder
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		if !b.seen {
			b.setHeader(cells)
			continue
		}
		out := make(table.Row, len(cells))
		for c, s := range cells {
			out[c] = d.NullMarks.Apply(table.String(s))
		}
		b.add(out)
	}
	return b.table()
}
