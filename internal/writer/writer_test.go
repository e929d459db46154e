package writer

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/cleared-dev/stmtmerge/internal/model"
)

func sampleRows() []model.CanonicalRow {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 123_000_000, time.UTC)
	return []model.CanonicalRow{
		{
			ConfigName: "国反-银行",
			Datetime:   &ts,
			Amount:     decimal.NewNullDecimal(decimal.RequireFromString("1234.57")),
			FromID:     model.Text("A1"),
			FromBankID: model.Text("A1"),
			FromName:   model.Text("张三"),
			ToID:       model.Text("B2"),
			ToBankID:   model.Text("B2"),
			ToName:     model.Text("李四, Ltd"),
			FilePath:   "/data/bank.xlsx",
		},
		{
			ConfigName: "国反-三方",
			Amount:     decimal.NewNullDecimal(decimal.RequireFromString("7")),
			ToID:       model.Text("M100"),
			FilePath:   "/data/tp.csv",
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Parquet ")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("json")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, model.Columns, records[0])
	assert.Equal(t, []string{
		"国反-银行", "2024-01-01 12:00:00.123", "1234.57",
		"A1", "A1", "张三", "B2", "B2", "李四, Ltd", "/data/bank.xlsx",
	}, records[1])
	assert.Equal(t, []string{
		"国反-三方", "", "7.00", "", "", "", "M100", "", "", "/data/tp.csv",
	}, records[2])
}

func readParquet(t *testing.T, path string) []parquetRow {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(parquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	rows := make([]parquetRow, pr.GetNumRows())
	require.NoError(t, pr.Read(&rows))
	return rows
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, WriteParquet(path, sampleRows()))

	rows := readParquet(t, path)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "国反-银行", first.ConfigName)
	require.NotNil(t, first.Datetime)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 123_000_000, time.UTC).UnixMilli(), *first.Datetime)
	require.NotNil(t, first.Amount)
	assert.Equal(t, int64(123457), *first.Amount)
	assert.Equal(t, "李四, Ltd", *first.ToName)

	second := rows[1]
	assert.Nil(t, second.Datetime)
	assert.Nil(t, second.FromID)
	assert.Equal(t, int64(700), *second.Amount)
	assert.Equal(t, "M100", *second.ToID)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	for _, f := range Formats {
		path, err := WriteFile(dir, "transactions", f, sampleRows())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "transactions."+string(f)), path)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err := WriteFile(dir, "transactions", Format("xml"), nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
