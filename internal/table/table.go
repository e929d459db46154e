// Package table defines the decoded form of a statement file: a header row plus
// rows of typed cells, addressed by column name.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindTime
)

// Value is a single decoded cell.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Time  time.Time
}

// Null is the empty cell.
var Null = Value{}

func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

func String(v string) Value { return Value{Kind: KindString, Str: v} }

func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

func Time(v time.Time) Value { return Value{Kind: KindTime, Time: v} }

// IsNull reports whether the cell is empty.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Text renders the cell the way a canonical string column stores it.
// Integral floats drop their fraction so account numbers read from
// spreadsheets as numbers keep their digits. Null renders as ok=false.
func (v Value) Text() (string, bool) {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10), true
	case KindFloat:
		if v.Float == math.Trunc(v.Float) && math.Abs(v.Float) < 1e18 {
			return strconv.FormatInt(int64(v.Float), 10), true
		}
		return strconv.FormatFloat(v.Float, 'f', -1, 64), true
	case KindString:
		return v.Str, true
	case KindBool:
		return strconv.FormatBool(v.Bool), true
	case KindTime:
		return v.Time.Format("2006-01-02 15:04:05.000"), true
	default:
		return "", false
	}
}

func (v Value) String() string {
	s, ok := v.Text()
	if !ok {
		return "null"
	}
	return s
}

// Row is one data row; cells line up with Table.Header by position.
type Row []Value

// Table is a decoded sheet.
type Table struct {
	Header []string
	Rows   []Row

	index map[string]int
}

// New builds a Table. Rows shorter than the header are padded with nulls.
func New(header []string, rows []Row) *Table {
	t := &Table{Header: header, Rows: rows}
	for i, r := range rows {
		if len(r) < len(header) {
			padded := make(Row, len(header))
			copy(padded, r)
			t.Rows[i] = padded
		}
	}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		// Duplicate header names: the first column keeps the name.
		if _, ok := t.index[name]; !ok {
			t.index[name] = i
		}
	}
}

// Column returns the position of name in the header.
func (t *Table) Column(name string) (int, bool) {
	if t.index == nil {
		t.buildIndex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Has reports whether the header contains name.
func (t *Table) Has(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Get returns the cell of row under column name, or Null when the column is absent.
func (t *Table) Get(row Row, name string) Value {
	i, ok := t.Column(name)
	if !ok || i >= len(row) {
		return Null
	}
	return row[i]
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// NullMarks turns placeholder strings into nulls.
type NullMarks []string

// Apply returns Null for empty or whitespace-only strings and for configured
// placeholders, and v unchanged otherwise.
func (m NullMarks) Apply(v Value) Value {
	if v.Kind != KindString {
		return v
	}
	s := strings.TrimSpace(v.Str)
	if s == "" {
		return Null
	}
	for _, mark := range m {
		if s == mark {
			return Null
		}
	}
	return v
}

// Describe is a short diagnostic used in log lines.
func (t *Table) Describe() string {
	return fmt.Sprintf("%d columns, %d rows", len(t.Header), len(t.Rows))
}
