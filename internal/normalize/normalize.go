// Package normalize projects decoded statement rows into canonical transactions
// according to a layout descriptor.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/stmtmerge/internal/layout"
	"github.com/cleared-dev/stmtmerge/internal/model"
	"github.com/cleared-dev/stmtmerge/internal/table"
)

// ErrLayoutMismatch means the descriptor does not fit the table's header.
// Callers are expected to pass the descriptor Detect returned for that header.
var ErrLayoutMismatch = errors.New("layout does not match header")

// Stats counts cells that could not be converted and were stored as null.
type Stats struct {
	Input     int // rows read
	Collapsed int // rows dropped by per-file dedup
	BadTime   int
	BadAmount int

	// DedupSkipped is set when the header lacks the descriptor's dedup
	// column and every row was kept.
	DedupSkipped bool
}

// Result is the output of Normalize.
type Result struct {
	Rows  []model.CanonicalRow
	Stats Stats
}

// Normalize converts every row of t into a CanonicalRow stamped with d's name
// and path. Unparseable times and amounts become nulls; only a descriptor
// that does not fit the header fails the call.
func Normalize(t *table.Table, path string, d layout.Descriptor) (*Result, error) {
	if d.Shape == nil || !d.Matches(t.Header) {
		return nil, fmt.Errorf("%w: %q", ErrLayoutMismatch, d.Name)
	}

	res := &Result{Stats: Stats{
		Input:        t.Len(),
		DedupSkipped: d.DedupColumn != "" && !t.Has(d.DedupColumn),
	}}
	rows := dedupRows(t, d.DedupColumn)
	res.Stats.Collapsed = t.Len() - len(rows)

	res.Rows = make([]model.CanonicalRow, 0, len(rows))
	for _, row := range rows {
		cr := model.CanonicalRow{
			ConfigName: d.Name,
			FilePath:   path,
		}

		timeCell := t.Get(row, d.Time.Column)
		cr.Datetime = resolveTime(timeCell, d.Time)
		if cr.Datetime == nil && !timeCell.IsNull() {
			res.Stats.BadTime++
		}

		amountCell := t.Get(row, d.Shape.Amount())
		cr.Amount = parseAmount(amountCell)
		if !cr.Amount.Valid && !amountCell.IsNull() {
			res.Stats.BadAmount++
		}

		from, to := participants(t, row, d.Shape)
		cr.FromID, cr.FromBankID, cr.FromName = from.id, from.bankID, from.name
		cr.ToID, cr.ToBankID, cr.ToName = to.id, to.bankID, to.name

		res.Rows = append(res.Rows, cr)
	}
	return res, nil
}

// participants decides who paid whom. Simple shapes are fixed; directed
// shapes pay from One to Other when the direction cell holds the outbound
// marker and the other way round otherwise, including when it is null.
func participants(t *table.Table, row table.Row, shape layout.Shape) (from, to participant) {
	switch s := shape.(type) {
	case layout.Simple:
		return NewEntity(s.From).resolve(t, row), NewEntity(s.To).resolve(t, row)
	case layout.Directed:
		one := NewEntity(s.One).resolve(t, row)
		other := NewEntity(s.Other).resolve(t, row)
		if isOutbound(t.Get(row, s.DirectionColumn), s.OutboundMarker) {
			return one, other
		}
		return other, one
	default:
		panic(fmt.Sprintf("normalize: unhandled shape %T", shape))
	}
}

func isOutbound(v table.Value, marker string) bool {
	s, ok := v.Text()
	return ok && strings.TrimSpace(s) == marker
}

// dedupRows keeps the first row for each distinct value of column. Null is a
// key like any other. A column the file does not have disables dedup.
func dedupRows(t *table.Table, column string) []table.Row {
	if column == "" || !t.Has(column) {
		return t.Rows
	}
	seen := make(map[string]struct{}, t.Len())
	out := make([]table.Row, 0, t.Len())
	for _, row := range t.Rows {
		k := cellKey(t.Get(row, column))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}

func cellKey(v table.Value) string {
	s, ok := v.Text()
	if !ok {
		return "\x00"
	}
	return "=" + s
}
