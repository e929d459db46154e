package normalize

import (
	"github.com/cleared-dev/stmtmerge/internal/layout"
	"github.com/cleared-dev/stmtmerge/internal/table"
)

// Entity resolves one participant's id, bank id and name from a row.
// Unconfigured columns resolve to null.
type Entity struct {
	rule layout.EntityRule
}

// NewEntity wraps an EntityRule.
func NewEntity(rule layout.EntityRule) Entity {
	return Entity{rule: rule}
}

// ID returns the id column, falling back to the alternate id column when the
// id is null.
func (e Entity) ID(t *table.Table, row table.Row) *string {
	id := text(t, row, e.rule.IDColumn)
	if e.rule.AltIDColumn == "" {
		return id
	}
	return firstNonNull(id, text(t, row, e.rule.AltIDColumn))
}

// BankID returns the bank account column, or null when none is configured.
func (e Entity) BankID(t *table.Table, row table.Row) *string {
	return text(t, row, e.rule.BankIDColumn)
}

// Name returns the holder name column, or null when none is configured.
func (e Entity) Name(t *table.Table, row table.Row) *string {
	return text(t, row, e.rule.NameColumn)
}

// participant is the resolved id/bank id/name triple.
type participant struct {
	id, bankID, name *string
}

func (e Entity) resolve(t *table.Table, row table.Row) participant {
	return participant{
		id:     e.ID(t, row),
		bankID: e.BankID(t, row),
		name:   e.Name(t, row),
	}
}

func text(t *table.Table, row table.Row, column string) *string {
	if column == "" {
		return nil
	}
	s, ok := t.Get(row, column).Text()
	if !ok {
		return nil
	}
	return &s
}

func firstNonNull(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}
