package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SPATIALBENCH_COMPARISON_DIR.
const EnvPrefix = "SPATIALBENCH_"

const defaultMaxInputBytes = 50 * 1024 * 1024

// Method describes where one differential-expression method keeps its outputs
// and how its resource rows are summarized.
type Method struct {
	Name       string `yaml:"name" toml:"name" env:"NAME" validate:"required"`
	ResultsDir string `yaml:"results_dir" toml:"results_dir" env:"RESULTS_DIR" validate:"required"`
	// Task labels the collapsed summary row, and rows of inputs without a task column.
	Task     string `yaml:"task" toml:"task" env:"TASK"`
	Collapse bool   `yaml:"collapse" toml:"collapse" env:"COLLAPSE"`
	// Statistic is the per-gene score used for scatter and rank plots.
	Statistic string `yaml:"statistic" toml:"statistic" env:"STATISTIC" validate:"required"`
}

type Methods struct {
	A Method `yaml:"a" toml:"a" envPrefix:"METHOD_A_"`
	B Method `yaml:"b" toml:"b" envPrefix:"METHOD_B_"`
}

// Layout holds every path the tool reads from or writes to. All directories
// are resolved relative to Root.
type Layout struct {
	Root             string `yaml:"root" toml:"root" env:"ROOT" validate:"required"`
	ComparisonDir    string `yaml:"comparison_dir" toml:"comparison_dir" env:"COMPARISON_DIR" validate:"required"`
	StatisticsDir    string `yaml:"statistics_dir" toml:"statistics_dir" env:"STATISTICS_DIR" validate:"required"`
	RequirementsFile string `yaml:"requirements_file" toml:"requirements_file" env:"REQUIREMENTS_FILE" validate:"required"`
	SystemFile       string `yaml:"system_file" toml:"system_file" env:"SYSTEM_FILE" validate:"required"`
	ResultsFile      string `yaml:"results_file" toml:"results_file" env:"RESULTS_FILE" validate:"required"`
	ComparisonFile   string `yaml:"comparison_file" toml:"comparison_file" env:"COMPARISON_FILE" validate:"required"`
	StatisticsFile   string `yaml:"statistics_file" toml:"statistics_file" env:"STATISTICS_FILE" validate:"required"`
	VennSummaryFile  string `yaml:"venn_summary_file" toml:"venn_summary_file" env:"VENN_SUMMARY_FILE" validate:"required"`
}

type Comparison struct {
	Mode           string  `yaml:"mode" toml:"mode" env:"MODE" validate:"oneof=normalized basic"`
	RAMPolicy      string  `yaml:"ram_policy" toml:"ram_policy" env:"RAM_POLICY" validate:"oneof=max sum"`
	ReferenceCores int     `yaml:"reference_cores" toml:"reference_cores" env:"REFERENCE_CORES" validate:"gte=1"`
	ReferenceRAMGB float64 `yaml:"reference_ram_gb" toml:"reference_ram_gb" env:"REFERENCE_RAM_GB" validate:"gt=0"`
}

type Condition struct {
	Column    string  `yaml:"column" toml:"column" validate:"required"`
	Op        string  `yaml:"op" toml:"op" validate:"oneof=< <= > >="`
	Threshold float64 `yaml:"threshold" toml:"threshold"`
}

// Criterion names one way of calling a gene significant. All conditions must hold.
type Criterion struct {
	Name       string      `yaml:"name" toml:"name" validate:"required"`
	Conditions []Condition `yaml:"conditions" toml:"conditions" validate:"min=1,dive"`
}

type Significance struct {
	GeneColumn string      `yaml:"gene_column" toml:"gene_column" env:"GENE_COLUMN" validate:"required"`
	Criteria   []Criterion `yaml:"criteria" toml:"criteria" validate:"min=1,dive"`
}

type Log struct {
	Level  string `yaml:"level" toml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" env:"FORMAT" validate:"oneof=auto console json"`
}

type Config struct {
	Methods       Methods      `yaml:"methods" toml:"methods"`
	Layout        Layout       `yaml:"layout" toml:"layout"`
	Comparison    Comparison   `yaml:"comparison" toml:"comparison"`
	Significance  Significance `yaml:"significance" toml:"significance"`
	VennFiles     []string     `yaml:"venn_files" toml:"venn_files" env:"VENN_FILES" envSeparator:"," validate:"min=1,dive,required"`
	Plots         bool         `yaml:"plots" toml:"plots" env:"PLOTS"`
	MaxInputBytes int64        `yaml:"max_input_bytes" toml:"max_input_bytes" env:"MAX_INPUT_BYTES" validate:"gt=0"`
	MetricsFile   string       `yaml:"metrics_file" toml:"metrics_file" env:"METRICS_FILE"`
	Log           Log          `yaml:"log" toml:"log" envPrefix:"LOG_"`
}

// Default returns the layout used by the SOMDE vs SpatialDE comparison.
func Default() Config {
	return Config{
		Methods: Methods{
			A: Method{
				Name:       "SOMDE",
				ResultsDir: "somde_results",
				Task:       "SOMDE node initialization + analysis",
				Collapse:   true,
				Statistic:  "FSV",
			},
			B: Method{
				Name:       "SpatialDE",
				ResultsDir: "spatialde_results",
				Task:       "SpatialDE",
				Collapse:   true,
				Statistic:  "LLR",
			},
		},
		Layout: Layout{
			Root:             ".",
			ComparisonDir:    "method_comparison",
			StatisticsDir:    "statistics_all_datasets",
			RequirementsFile: "requirements.csv",
			SystemFile:       "system_info.csv",
			ResultsFile:      "results.csv",
			ComparisonFile:   "requirements_comparison.csv",
			StatisticsFile:   "combined_statistics.requirements.by_task.csv",
			VennSummaryFile:  "venn_statistics_summary.csv",
		},
		Comparison: Comparison{
			Mode:           "normalized",
			RAMPolicy:      "max",
			ReferenceCores: 8,
			ReferenceRAMGB: 8,
		},
		Significance: Significance{
			GeneColumn: "gene",
			Criteria: []Criterion{
				{Name: "qval", Conditions: []Condition{{Column: "qval", Op: "<", Threshold: 0.05}}},
			},
		},
		VennFiles:     []string{"venn_counts.qval.csv"},
		MaxInputBytes: defaultMaxInputBytes,
		Log:           Log{Level: "info", Format: "auto"},
	}
}

// Load builds the effective configuration: defaults, then the optional file
// at path (.yaml, .yml or .toml), then SPATIALBENCH_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return errors.Wrapf(err, "decode %s", path)
		}
		return nil
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return errors.Wrapf(err, "decode %s", path)
		}
		return nil
	default:
		return errors.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if c.Methods.A.Name == c.Methods.B.Name {
		return errors.Errorf("invalid configuration: methods must have distinct names, both are %q", c.Methods.A.Name)
	}
	return nil
}

// Path joins elem onto the layout root.
func (l Layout) Path(elem ...string) string {
	return filepath.Join(append([]string{l.Root}, elem...)...)
}

func (c Config) RequirementsPath(m Method, dataset string) string {
	return c.Layout.Path(m.ResultsDir, dataset, c.Layout.RequirementsFile)
}

func (c Config) SystemPath(m Method, dataset string) string {
	return c.Layout.Path(m.ResultsDir, dataset, c.Layout.SystemFile)
}

func (c Config) ResultsPath(m Method, dataset string) string {
	return c.Layout.Path(m.ResultsDir, dataset, c.Layout.ResultsFile)
}

// DatasetDir is the per-dataset output directory under the comparison dir.
func (c Config) DatasetDir(dataset string) string {
	return c.Layout.Path(c.Layout.ComparisonDir, dataset)
}

func (c Config) ComparisonPath(dataset string) string {
	return filepath.Join(c.DatasetDir(dataset), c.Layout.ComparisonFile)
}

func (c Config) StatisticsPath() string {
	return c.Layout.Path(c.Layout.StatisticsDir, c.Layout.StatisticsFile)
}

func (c Config) VennSummaryPath() string {
	return c.Layout.Path(c.Layout.StatisticsDir, c.Layout.VennSummaryFile)
}

func (c Config) VennCountsPath(dataset, criterion string) string {
	return filepath.Join(c.DatasetDir(dataset), "venn_counts."+criterion+".csv")
}

// Method returns the method selected by key "a"/"b" or by its configured name.
func (c Config) Method(key string) (Method, error) {
	switch {
	case strings.EqualFold(key, "a") || strings.EqualFold(key, c.Methods.A.Name):
		return c.Methods.A, nil
	case strings.EqualFold(key, "b") || strings.EqualFold(key, c.Methods.B.Name):
		return c.Methods.B, nil
	}
	return Method{}, errors.Errorf("unknown method %q (want a, b, %s or %s)", key, c.Methods.A.Name, c.Methods.B.Name)
}
