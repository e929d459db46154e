package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtmerge/internal/layout"
	"github.com/cleared-dev/stmtmerge/internal/model"
	"github.com/cleared-dev/stmtmerge/internal/table"
)

// parseTime converts a cell with layout. The whole value must match; a cell
// that does not parse yields nil. Timestamp cells pass through.
func parseTime(v table.Value, layout string) *time.Time {
	var s string
	switch v.Kind {
	case table.KindTime:
		ts := v.Time.Truncate(time.Millisecond)
		return &ts
	case table.KindInt, table.KindFloat, table.KindString:
		s, _ = v.Text()
		s = strings.TrimSpace(s)
	default:
		return nil
	}
	if layout == "" || s == "" {
		return nil
	}
	ts, err := time.Parse(layout, s)
	if err != nil {
		return nil
	}
	// time.Parse takes a fraction after the seconds even when layout has none.
	if !hasFraction(layout) && ts.Format(layout) != s {
		return nil
	}
	ts = ts.Truncate(time.Millisecond)
	return &ts
}

// hasFraction reports whether layout has a fractional-seconds element: a
// period or comma followed by a run of 0s or 9s that ends the digits.
func hasFraction(layout string) bool {
	for i := 0; i+1 < len(layout); i++ {
		if layout[i] != '.' && layout[i] != ',' {
			continue
		}
		c := layout[i+1]
		if c != '0' && c != '9' {
			continue
		}
		j := i + 1
		for j < len(layout) && layout[j] == c {
			j++
		}
		if j == len(layout) || layout[j] < '0' || layout[j] > '9' {
			return true
		}
	}
	return false
}

// resolveTime parses with the primary layout and, where that fails, the
// fallback layout.
func resolveTime(v table.Value, spec layout.TimeSpec) *time.Time {
	primary := parseTime(v, spec.Layout)
	if spec.FallbackLayout == "" {
		return primary
	}
	return firstTime(primary, parseTime(v, spec.FallbackLayout))
}

func firstTime(a, b *time.Time) *time.Time {
	if a != nil {
		return a
	}
	return b
}

// parseAmount converts a cell to a non-negative decimal with two places.
// Thousands separators and surrounding blanks are tolerated; anything else
// that is not a number yields an invalid NullDecimal.
func parseAmount(v table.Value) decimal.NullDecimal {
	var d decimal.Decimal
	switch v.Kind {
	case table.KindInt:
		d = decimal.NewFromInt(v.Int)
	case table.KindFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return decimal.NullDecimal{}
		}
		d = decimal.NewFromFloat(v.Float)
	case table.KindString:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
		if s == "" {
			return decimal.NullDecimal{}
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}
		}
		d = parsed
	default:
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Abs().Round(model.AmountScale))
}
