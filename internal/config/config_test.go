package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtmerge/internal/writer"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Input.Encoding = "gbk"
	cfg.Processing.Workers = 8
	cfg.Output.Formats = []string{"csv"}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "utf-8", cfg.Input.Encoding)
	assert.Equal(t, []string{"-", "_"}, cfg.Input.NullMarks)
	assert.Equal(t, []string{"csv", "xlsx", "xls"}, cfg.Input.Extensions)
	assert.Equal(t, 4, cfg.Processing.Workers)
	assert.True(t, cfg.Processing.Deduplicate)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "transactions", cfg.Output.Basename)
	assert.Equal(t, []string{"parquet", "csv"}, cfg.Output.Formats)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("processing:\n  workers: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Processing.Workers)
	assert.True(t, cfg.Processing.Deduplicate)
	assert.Equal(t, "transactions", cfg.Output.Basename)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("processing: [1, 2\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "encoding: utf-8")
	assert.Contains(t, contents, "workers: 4")
	assert.Contains(t, contents, "deduplicate: true")
	assert.Contains(t, contents, "basename: transactions")
	assert.Contains(t, contents, "level: info")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"encoding", func(c *Config) { c.Input.Encoding = "latin1" }, "unknown text encoding"},
		{"workers", func(c *Config) { c.Processing.Workers = 0 }, "workers must be at least 1"},
		{"dir", func(c *Config) { c.Output.Dir = " " }, "output.dir is empty"},
		{"basename", func(c *Config) { c.Output.Basename = "" }, "output.basename is empty"},
		{"no formats", func(c *Config) { c.Output.Formats = nil }, "output.formats is empty"},
		{"bad format", func(c *Config) { c.Output.Formats = []string{"json"} }, "unknown output format"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, `log.level "loud"`},
		{"extension", func(c *Config) { c.Input.Extensions = []string{""} }, "empty input extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOutputFormats(t *testing.T) {
	cfg := Default()
	cfg.Output.Formats = []string{"CSV", "parquet", "csv"}
	got, err := cfg.OutputFormats()
	require.NoError(t, err)
	assert.Equal(t, []writer.Format{writer.FormatCSV, writer.FormatParquet}, got)

	cfg.Output.Formats = []string{"xml"}
	_, err = cfg.OutputFormats()
	assert.ErrorIs(t, err, writer.ErrUnknownFormat)
}

func TestReaderOptions(t *testing.T) {
	cfg := Default()
	opts, err := cfg.ReaderOptions()
	require.NoError(t, err)
	assert.Nil(t, opts.Encoding)
	assert.Len(t, opts.NullMarks, 2)

	cfg.Input.Encoding = "gb18030"
	opts, err = cfg.ReaderOptions()
	require.NoError(t, err)
	assert.NotNil(t, opts.Encoding)
}
