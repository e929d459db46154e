// Package layout describes the column layouts of known statement exports and
// picks the one that fits a file's header.
package layout

import (
	"errors"
	"fmt"
)

// EntityRule names the columns describing one transaction participant.
// IDColumn is required; the others are optional and empty when unset.
type EntityRule struct {
	IDColumn     string
	AltIDColumn  string // used when IDColumn is null
	BankIDColumn string
	NameColumn   string
}

// Columns lists every column the rule reads.
func (e EntityRule) Columns() []string {
	cols := []string{e.IDColumn}
	for _, c := range []string{e.NameColumn, e.AltIDColumn, e.BankIDColumn} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// TimeSpec says where the transaction time lives and how it is written.
// Layouts use Go reference-time notation. Unless a layout has fractional
// seconds, a value must read back unchanged when formatted with it.
type TimeSpec struct {
	Column         string
	Layout         string
	FallbackLayout string // tried on values Layout cannot parse
}

// Shape is the transaction layout of a descriptor: Simple or Directed.
type Shape interface {
	// Columns lists every column the shape reads.
	Columns() []string
	// Amount is the signed or unsigned amount column.
	Amount() string

	shape()
}

// Simple statements carry fixed payer and payee columns.
type Simple struct {
	AmountColumn  string
	From          EntityRule
	To            EntityRule
	PrimeIDColumn string // account the statement was queried for, optional
}

func (s Simple) Amount() string { return s.AmountColumn }

func (s Simple) Columns() []string {
	cols := []string{s.AmountColumn}
	cols = append(cols, s.From.Columns()...)
	cols = append(cols, s.To.Columns()...)
	if s.PrimeIDColumn != "" {
		cols = append(cols, s.PrimeIDColumn)
	}
	return cols
}

func (Simple) shape() {}

// Directed statements list the queried account ("one") against a
// counterparty ("other"); DirectionColumn says which way money moved.
// A row whose direction equals OutboundMarker pays from one to other.
type Directed struct {
	AmountColumn    string
	One             EntityRule
	Other           EntityRule
	DirectionColumn string
	OutboundMarker  string

	// OneIsSubject is false for exports where directions are not relative
	// to the queried account. It is informational and does not affect
	// which side becomes the payer.
	OneIsSubject bool
}

func (d Directed) Amount() string { return d.AmountColumn }

func (d Directed) Columns() []string {
	cols := []string{d.AmountColumn}
	cols = append(cols, d.One.Columns()...)
	cols = append(cols, d.Other.Columns()...)
	cols = append(cols, d.DirectionColumn)
	return cols
}

func (Directed) shape() {}

// Descriptor is the rule set for one provider's export format.
type Descriptor struct {
	Name        string
	DedupColumn string // unique per transaction within one file, optional
	Time        TimeSpec
	Shape       Shape
}

// RequiredColumns returns the distinct columns a header must contain for d
// to apply, in first-reference order.
func (d Descriptor) RequiredColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	add(d.Time.Column)
	if d.Shape != nil {
		for _, c := range d.Shape.Columns() {
			add(c)
		}
	}
	return cols
}

// Matches reports whether every required column appears in header.
func (d Descriptor) Matches(header []string) bool {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	return d.matchSet(present)
}

func (d Descriptor) matchSet(present map[string]struct{}) bool {
	for _, c := range d.RequiredColumns() {
		if _, ok := present[c]; !ok {
			return false
		}
	}
	return true
}

// ErrInvalidDescriptor is returned by Validate.
var ErrInvalidDescriptor = errors.New("invalid layout descriptor")

// Validate checks that the descriptor names all mandatory columns.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDescriptor)
	}
	if d.Time.Column == "" || d.Time.Layout == "" {
		return fmt.Errorf("%w: %s: missing time column or layout", ErrInvalidDescriptor, d.Name)
	}
	switch s := d.Shape.(type) {
	case Simple:
		if s.AmountColumn == "" || s.From.IDColumn == "" || s.To.IDColumn == "" {
			return fmt.Errorf("%w: %s: simple shape needs amount, from and to id columns", ErrInvalidDescriptor, d.Name)
		}
	case Directed:
		if s.AmountColumn == "" || s.One.IDColumn == "" || s.Other.IDColumn == "" {
			return fmt.Errorf("%w: %s: directed shape needs amount, one and other id columns", ErrInvalidDescriptor, d.Name)
		}
		if s.DirectionColumn == "" || s.OutboundMarker == "" {
			return fmt.Errorf("%w: %s: directed shape needs a direction column and marker", ErrInvalidDescriptor, d.Name)
		}
	default:
		return fmt.Errorf("%w: %s: unknown shape %T", ErrInvalidDescriptor, d.Name, d.Shape)
	}
	return nil
}
