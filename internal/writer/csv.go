package writer

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/cleared-dev/stmtmerge/internal/model"
)

// DatetimeLayout is how CSV output renders _datetime.
const DatetimeLayout = "2006-01-02 15:04:05.000"

// csvRow mirrors model.Columns. Nulls are written as empty fields.
type csvRow struct {
	ConfigName string `csv:"_config_name"`
	Datetime   string `csv:"_datetime"`
	Amount     string `csv:"_amount"`
	FromID     string `csv:"_from_id"`
	FromBankID string `csv:"_from_bank_id"`
	FromName   string `csv:"_from_name"`
	ToID       string `csv:"_to_id"`
	ToBankID   string `csv:"_to_bank_id"`
	ToName     string `csv:"_to_name"`
	FilePath   string `csv:"_file_path"`
}

func toCSVRow(r model.CanonicalRow) *csvRow {
	out := &csvRow{
		ConfigName: r.ConfigName,
		FromID:     model.Deref(r.FromID),
		FromBankID: model.Deref(r.FromBankID),
		FromName:   model.Deref(r.FromName),
		ToID:       model.Deref(r.ToID),
		ToBankID:   model.Deref(r.ToBankID),
		ToName:     model.Deref(r.ToName),
		FilePath:   r.FilePath,
	}
	if r.Datetime != nil {
		out.Datetime = r.Datetime.Format(DatetimeLayout)
	}
	if r.Amount.Valid {
		out.Amount = r.Amount.Decimal.StringFixed(model.AmountScale)
	}
	return out
}

// WriteCSV writes a header line and one line per row.
func WriteCSV(w io.Writer, rows []model.CanonicalRow) error {
	out := make([]*csvRow, len(rows))
	for i, r := range rows {
		out[i] = toCSVRow(r)
	}
	if err := gocsv.Marshal(&out, w); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}
