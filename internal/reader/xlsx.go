package reader

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/stmtmerge/internal/table"
)

// XLSX decodes the first worksheet of an Office Open XML workbook. Numeric
// cells keep their type and date-formatted numbers become timestamps.
type XLSX struct {
	NullMarks table.NullMarks
}

// Format returns the decoder name.
func (d *XLSX) Format() string { return "xlsx" }

// Decode reads the first sheet; its first row is the header.
func (d *XLSX) Decode(r io.ReadSeeker) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	s := &xlsxSheet{
		f:         f,
		name:      sheets[0],
		marks:     d.NullMarks,
		dateStyle: make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		s.date1904 = *props.Date1904
	}

	rows, err := f.Rows(s.name)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", s.name, err)
	}
	defer rows.Close()

	var b builder
	for rowNum := 1; rows.Next(); rowNum++ {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		if !b.seen {
			b.setHeader(cols)
			continue
		}
		row := make(table.Row, len(cols))
		for i, raw := range cols {
			row[i] = s.cell(i+1, rowNum, raw)
		}
		b.add(row)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", s.name, err)
	}
	return b.table()
}

type xlsxSheet struct {
	f         *excelize.File
	name      string
	marks     table.NullMarks
	date1904  bool
	dateStyle map[int]bool
}

func (s *xlsxSheet) cell(col, row int, raw string) table.Value {
	if strings.TrimSpace(raw) == "" {
		return table.Null
	}
	text := s.marks.Apply(table.String(raw))

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return text
	}
	typ, err := s.f.GetCellType(s.name, ref)
	if err != nil {
		return text
	}

	switch typ {
	case excelize.CellTypeBool:
		return table.Bool(raw == "1")
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return text
		}
		if s.isDate(ref) {
			if ts, err := excelize.ExcelDateToTime(num, s.date1904); err == nil {
				return table.Time(ts.Round(time.Millisecond))
			}
		}
		if num == math.Trunc(num) && math.Abs(num) < 1e15 {
			return table.Int(int64(num))
		}
		return table.Float(num)
	default:
		return text
	}
}

// isDate reports whether the cell's number format renders a date or time.
func (s *xlsxSheet) isDate(ref string) bool {
	id, err := s.f.GetCellStyle(s.name, ref)
	if err != nil || id == 0 {
		return false
	}
	if v, ok := s.dateStyle[id]; ok {
		return v
	}
	style, err := s.f.GetStyle(id)
	v := err == nil && isDateFormat(style.NumFmt, style.CustomNumFmt)
	s.dateStyle[id] = v
	return v
}

func isDateFormat(builtin int, custom *string) bool {
	if custom != nil {
		return customDateFormat(*custom)
	}
	switch {
	case builtin >= 14 && builtin <= 22,
		builtin >= 27 && builtin <= 36,
		builtin >= 45 && builtin <= 47,
		builtin >= 50 && builtin <= 58:
		return true
	}
	return false
}

// customDateFormat looks for date or time tokens in a number format after
// dropping quoted text, escapes, padding and bracketed sections such as
// colors and locales. Elapsed-time brackets [h], [mm] and [ss] count as time.
// Only the first section is examined; later ones format negatives and zero.
func customDateFormat(format string) bool {
	var tokens strings.Builder
	for i := 0; i < len(format); i++ {
		switch c := format[i]; c {
		case ';':
			return isDateTokens(tokens.String())
		case '"':
			end := strings.IndexByte(format[i+1:], '"')
			if end < 0 {
				return isDateTokens(tokens.String())
			}
			i += end + 1
		case '\\', '_', '*':
			i++
		case '[':
			end := strings.IndexByte(format[i+1:], ']')
			if end < 0 {
				return isDateTokens(tokens.String())
			}
			inner := strings.ToLower(format[i+1 : i+1+end])
			if strings.Trim(inner, "hms") == "" && inner != "" {
				tokens.WriteString(inner)
			}
			i += end + 1
		default:
			tokens.WriteByte(c)
		}
	}
	return isDateTokens(tokens.String())
}

func isDateTokens(s string) bool {
	return strings.ContainsAny(strings.ToLower(s), "ydhms")
}
