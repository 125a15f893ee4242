package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "rankdelta/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Watch    WatchConfig    `yaml:"watch" envconfig:"WATCH"`
}

// PipelineConfig contains the ETL pipeline configuration
type PipelineConfig struct {
	DataDir            string             `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ProcessedDir       string             `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
	InputExtensions    []string           `yaml:"input_extensions" envconfig:"INPUT_EXTENSIONS" validate:"min=1"`
	MinInputs          int                `yaml:"min_inputs" envconfig:"MIN_INPUTS" validate:"gte=2"`
	HeaderScanRows     int                `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" validate:"gte=1"`
	EncodingCandidates []string           `yaml:"encoding_candidates" envconfig:"ENCODING_CANDIDATES" validate:"min=1"`
	ExcelEngines       []string           `yaml:"excel_engines" envconfig:"EXCEL_ENGINES" validate:"min=1"`
	RangeColumns       RangeColumnsConfig `yaml:"range_columns"`
	OutputNameTemplate string             `yaml:"output_name_template" envconfig:"OUTPUT_NAME_TEMPLATE" validate:"required"`
	ColumnMarkers      MarkerConfig       `yaml:"column_markers"`
}

// RangeColumnsConfig names the inclusive bounds of the extra metric-column
// slice copied from the second snapshot into the merged output.
type RangeColumnsConfig struct {
	Start string `yaml:"start" envconfig:"START"`
	End   string `yaml:"end" envconfig:"END"`
}

// MarkerConfig contains the substring tokens used to locate the code, name
// and percent-change columns in a raw snapshot header.
type MarkerConfig struct {
	Code    string `yaml:"code" envconfig:"CODE" validate:"required"`
	Name    string `yaml:"name" envconfig:"NAME"`
	Percent string `yaml:"percent" envconfig:"PERCENT" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// WatchConfig contains directory-watch configuration
type WatchConfig struct {
	Debounce Duration `yaml:"debounce" envconfig:"DEBOUNCE" validate:"gt=0"`
}

// Duration is a time.Duration that unmarshals from strings like "2s" in
// both YAML and environment values.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler for envconfig
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads configuration from the YAML file at path (when non-empty),
// layered over Default(), then applies RANKDELTA_* environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read config file %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
		}
	}

	if err := envconfig.Process("RANKDELTA", cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.Pipeline.InputExtensions = normalizeExtensions(cfg.Pipeline.InputExtensions)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return apperrors.NewConfigError(
			fmt.Sprintf("invalid logging output %q (want console, file or both)", c.Logging.Output), nil)
	}

	if !strings.Contains(c.Pipeline.OutputNameTemplate, "{day1}") ||
		!strings.Contains(c.Pipeline.OutputNameTemplate, "{day2}") {
		return apperrors.NewConfigError("output_name_template must contain {day1} and {day2} placeholders", nil)
	}

	return nil
}

// normalizeExtensions lowercases extensions and ensures a leading dot so that
// discovery can compare them against filepath.Ext directly.
func normalizeExtensions(exts []string) []string {
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			DataDir:            "data",
			ProcessedDir:       "data/processed",
			InputExtensions:    []string{".csv", ".txt", ".xls", ".xlsx"},
			MinInputs:          2,
			HeaderScanRows:     5,
			EncodingCandidates: []string{"utf-8", "utf-8-sig", "gbk", "gb18030", "latin-1"},
			ExcelEngines:       []string{"excelize", "excelize-raw"},
			RangeColumns:       RangeColumnsConfig{},
			OutputNameTemplate: "stock_rank_change_{day1}_{day2}.xlsx",
			ColumnMarkers: MarkerConfig{
				Code:    "代码",
				Name:    "名称",
				Percent: "涨幅",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Watch: WatchConfig{
			Debounce: Duration(2 * time.Second),
		},
	}
}
