package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Columns names the canonical fields in output order.
var Columns = []string{
	"_config_name",
	"_datetime",
	"_amount",
	"_from_id",
	"_from_bank_id",
	"_from_name",
	"_to_id",
	"_to_bank_id",
	"_to_name",
	"_file_path",
}

// AmountScale is the fixed number of decimal places of Amount.
const AmountScale = 2

// CanonicalRow is one normalized transaction. Nil pointers and an invalid
// Amount are nulls.
type CanonicalRow struct {
	ConfigName string
	Datetime   *time.Time          // millisecond resolution
	Amount     decimal.NullDecimal // never negative
	FromID     *string
	FromBankID *string
	FromName   *string
	ToID       *string
	ToBankID   *string
	ToName     *string
	FilePath   string
}

// Text returns a pointer to s, for filling nullable string fields.
func Text(s string) *string { return &s }

// Deref returns the value behind p, or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
