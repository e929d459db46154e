package writer

import (
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"github.com/cleared-dev/stmtmerge/internal/model"
)

// parquetRow mirrors model.Columns. _amount is DECIMAL(18,2) stored as
// hundredths in an INT64.
type parquetRow struct {
	ConfigName string  `parquet:"name=_config_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Datetime   *int64  `parquet:"name=_datetime, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
	Amount     *int64  `parquet:"name=_amount, type=INT64, convertedtype=DECIMAL, scale=2, precision=18, repetitiontype=OPTIONAL"`
	FromID     *string `parquet:"name=_from_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	FromBankID *string `parquet:"name=_from_bank_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	FromName   *string `parquet:"name=_from_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ToID       *string `parquet:"name=_to_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ToBankID   *string `parquet:"name=_to_bank_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ToName     *string `parquet:"name=_to_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	FilePath   string  `parquet:"name=_file_path, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toParquetRow(r model.CanonicalRow) *parquetRow {
	out := &parquetRow{
		ConfigName: r.ConfigName,
		FromID:     r.FromID,
		FromBankID: r.FromBankID,
		FromName:   r.FromName,
		ToID:       r.ToID,
		ToBankID:   r.ToBankID,
		ToName:     r.ToName,
		FilePath:   r.FilePath,
	}
	if r.Datetime != nil {
		ms := r.Datetime.UnixMilli()
		out.Datetime = &ms
	}
	if r.Amount.Valid {
		units := r.Amount.Decimal.Round(model.AmountScale).Shift(model.AmountScale).IntPart()
		out.Amount = &units
	}
	return out
}

// WriteParquet writes rows to a new Snappy-compressed Parquet file at path.
func WriteParquet(path string, rows []model.CanonicalRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := pqwriter.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, r := range rows {
		if err := pw.Write(toParquetRow(r)); err != nil {
			pw.WriteStop()
			file.Close()
			return fmt.Errorf("writing parquet row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("flushing parquet: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing parquet: %w", err)
	}
	return nil
}
