package reader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/cleared-dev/stmtmerge/internal/table"
)

var marks = table.NullMarks{"-", "_"}

func TestCSV_Decode(t *testing.T) {
	in := "\ufeff交易时间,金额,对方账号姓名\n20240101120000,100.00,-\n20240102120000,\"1,000.5\",李四\n,,\n"
	d := &CSV{NullMarks: marks}

	tbl, err := d.Decode(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"交易时间", "金额", "对方账号姓名"}, tbl.Header)
	require.Len(t, tbl.Rows, 2, "blank row dropped")
	assert.True(t, tbl.Get(tbl.Rows[0], "对方账号姓名").IsNull(), "null mark")
	assert.Equal(t, table.String("1,000.5"), tbl.Get(tbl.Rows[1], "金额"))
	assert.Equal(t, table.String("李四"), tbl.Get(tbl.Rows[1], "对方账号姓名"))
}

func TestCSV_DecodeGBK(t *testing.T) {
	utf := "查询账号,查询账号姓名\nA1,张三\n"
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(utf)
	require.NoError(t, err)

	d := &CSV{Encoding: simplifiedchinese.GBK}
	tbl, err := d.Decode(strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, []string{"查询账号", "查询账号姓名"}, tbl.Header)
	assert.Equal(t, table.String("张三"), tbl.Get(tbl.Rows[0], "查询账号姓名"))
}

func TestCSV_RaggedRows(t *testing.T) {
	d := &CSV{}
	tbl, err := d.Decode(strings.NewReader("a,b,c\n1\n1,2,3,4\n"))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.True(t, tbl.Get(tbl.Rows[0], "c").IsNull())
	assert.Equal(t, table.String("3"), tbl.Get(tbl.Rows[1], "c"))
}

func TestCSV_Empty(t *testing.T) {
	d := &CSV{}
	for _, in := range []string{"", "a,b\n"} {
		_, err := d.Decode(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrEmptyFile, "input %q", in)
	}
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestXLSX_Decode(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	data := buildWorkbook(t, [][]any{
		{"交易时间", "金额", "查询账号", "对方账号姓名", "金额"},
		{"20240101120000", -12.5, "6222021234567890", "-", 1},
		{ts, 42, 6222, "李四", 2},
	})

	tbl, err := (&XLSX{NullMarks: marks}).Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"交易时间", "金额", "查询账号", "对方账号姓名", "金额"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)

	first := tbl.Rows[0]
	assert.Equal(t, table.String("20240101120000"), tbl.Get(first, "交易时间"))
	assert.Equal(t, table.Float(-12.5), tbl.Get(first, "金额"), "first duplicate column wins")
	assert.Equal(t, table.String("6222021234567890"), tbl.Get(first, "查询账号"))
	assert.True(t, tbl.Get(first, "对方账号姓名").IsNull())

	second := tbl.Rows[1]
	when := tbl.Get(second, "交易时间")
	require.Equal(t, table.KindTime, when.Kind)
	assert.WithinDuration(t, ts, when.Time, time.Millisecond)
	assert.Equal(t, table.Int(42), tbl.Get(second, "金额"))
	assert.Equal(t, table.Int(6222), tbl.Get(second, "查询账号"))
}

func TestXLSX_HeaderOnly(t *testing.T) {
	data := buildWorkbook(t, [][]any{{"a", "b"}})
	_, err := (&XLSX{}).Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestXLSX_NotAWorkbook(t *testing.T) {
	_, err := (&XLSX{}).Decode(bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}

func TestIsDateFormat(t *testing.T) {
	custom := func(s string) *string { return &s }
	assert.True(t, isDateFormat(14, nil))
	assert.True(t, isDateFormat(22, nil))
	assert.False(t, isDateFormat(0, nil))
	assert.False(t, isDateFormat(2, nil))
	assert.True(t, isDateFormat(0, custom("yyyy-mm-dd hh:mm:ss")))
	assert.False(t, isDateFormat(0, custom("#,##0.00")))
}

func TestIsDateFormat_Custom(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"yyyy-mm-dd hh:mm:ss", true},
		{"[$-409]mmmm d, yyyy", true},
		{"[h]:mm:ss", true},
		{"hh:mm AM/PM", true},
		{"#,##0.00", false},
		{"#,##0.00;[Red]-#,##0.00", false},
		{"0.00_);[Red](0.00)", false},
		{`"CNY"#,##0.00`, false},
		{`#,##0.00\ "days"`, false},
		{"[>=100]0.0;0.00", false},
		{"_(* #,##0.00_)", false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormat(0, &tt.format))
		})
	}
}

func TestXLSX_DecodeAccountingFormat(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"金额", "交易时间"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{1234.5, 45292.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{-20, 45292.5}))

	red := "#,##0.00;[Red]-#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &red})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A2", "A3", amountStyle))
	stamp := "yyyy-mm-dd hh:mm"
	timeStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &stamp})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B2", "B3", timeStyle))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := (&XLSX{}).Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, table.Float(1234.5), tbl.Get(tbl.Rows[0], "金额"))
	assert.Equal(t, table.Int(-20), tbl.Get(tbl.Rows[1], "金额"))
	when := tbl.Get(tbl.Rows[0], "交易时间")
	require.Equal(t, table.KindTime, when.Kind)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), when.Time)
}

func TestRegistry_ReadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "Bank.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0o644))
	xlsxPath := filepath.Join(dir, "book.xlsx")
	require.NoError(t, os.WriteFile(xlsxPath, buildWorkbook(t, [][]any{{"a"}, {"x"}}), 0o644))

	r := DefaultRegistry(Options{NullMarks: marks})

	tbl, err := r.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	tbl, err = r.ReadFile(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, table.String("x"), tbl.Get(tbl.Rows[0], "a"))
}

func TestRegistry_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	_, err := DefaultRegistry(Options{}).ReadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".txt")
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSV{})
	assert.Panics(t, func() { r.Register(&CSV{}) })
	assert.NotNil(t, r.Get("CSV"))
	assert.Nil(t, r.Get("json"))
}

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"UTF-8", true, false},
		{"gbk", false, false},
		{"GB18030", false, false},
		{"latin1", false, true},
	}
	for _, tt := range tests {
		enc, err := LookupEncoding(tt.name)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownEncoding, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.wantNil, enc == nil, tt.name)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0o755))
	for _, name := range []string{"b.csv", "a.XLSX", "skip.txt", filepath.Join("sub", "c.xls"), filepath.Join("sub", "deeper", "d.csv")} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	files, err := Scan(root, []string{"csv", ".xlsx", "xls"}, nil)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
		assert.Equal(t, int64(1), f.Size)
	}
	assert.Equal(t, []string{"a.XLSX", "b.csv", "c.xls", "d.csv"}, names)

	all, err := Scan(root, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
