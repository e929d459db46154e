package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/stmtmerge/internal/reader"
	"github.com/cleared-dev/stmtmerge/internal/writer"
)

// FileName is the config file `stmtmerge init` writes and `run` looks for.
const FileName = "stmtmerge.yaml"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config represents the top-level stmtmerge.yaml configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Processing ProcessingConfig `yaml:"processing"`
	Output     OutputConfig     `yaml:"output"`
	Log        LogConfig        `yaml:"log"`
}

// InputConfig controls how statement files are found and decoded.
type InputConfig struct {
	Encoding   string   `yaml:"encoding"` // CSV only: utf-8, gbk or gb18030
	NullMarks  []string `yaml:"null_marks"`
	Extensions []string `yaml:"extensions"`
}

// ProcessingConfig controls the merge.
type ProcessingConfig struct {
	Workers     int  `yaml:"workers"`
	Deduplicate bool `yaml:"deduplicate"`
}

// OutputConfig says where the merged table goes.
type OutputConfig struct {
	Dir      string   `yaml:"dir"`
	Basename string   `yaml:"basename"`
	Formats  []string `yaml:"formats"`
}

// LogConfig controls process logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads a stmtmerge.yaml file from disk. Keys missing from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Encoding:   "utf-8",
			NullMarks:  []string{"-", "_"},
			Extensions: []string{"csv", "xlsx", "xls"},
		},
		Processing: ProcessingConfig{
			Workers:     4,
			Deduplicate: true,
		},
		Output: OutputConfig{
			Dir:      "out",
			Basename: "transactions",
			Formats:  []string{string(writer.FormatParquet), string(writer.FormatCSV)},
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Validate checks values a typo could break.
func (c *Config) Validate() error {
	var problems []string

	if _, err := reader.LookupEncoding(c.Input.Encoding); err != nil {
		problems = append(problems, err.Error())
	}
	for _, ext := range c.Input.Extensions {
		if strings.TrimSpace(ext) == "" {
			problems = append(problems, "empty input extension")
		}
	}
	if c.Processing.Workers < 1 {
		problems = append(problems, fmt.Sprintf("processing.workers must be at least 1, got %d", c.Processing.Workers))
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		problems = append(problems, "output.dir is empty")
	}
	if strings.TrimSpace(c.Output.Basename) == "" {
		problems = append(problems, "output.basename is empty")
	}
	if len(c.Output.Formats) == 0 {
		problems = append(problems, "output.formats is empty")
	}
	for _, f := range c.Output.Formats {
		if _, err := writer.ParseFormat(f); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			problems = append(problems, fmt.Sprintf("log.level %q is not a level", c.Log.Level))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// OutputFormats returns the parsed output formats without duplicates.
func (c *Config) OutputFormats() ([]writer.Format, error) {
	seen := make(map[writer.Format]bool, len(c.Output.Formats))
	var out []writer.Format
	for _, s := range c.Output.Formats {
		f, err := writer.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// ReaderOptions builds the decoder options for the input section.
func (c *Config) ReaderOptions() (reader.Options, error) {
	enc, err := reader.LookupEncoding(c.Input.Encoding)
	if err != nil {
		return reader.Options{}, err
	}
	return reader.Options{Encoding: enc, NullMarks: c.Input.NullMarks}, nil
}
