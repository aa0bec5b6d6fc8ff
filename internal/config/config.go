package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"immunoscope/domain/expression"
	"immunoscope/internal/analysis"
	"immunoscope/internal/errors"
)

// Source kinds
const (
	SourceGDC       = "gdc"
	SourceFile      = "file"
	SourceSynthetic = "synthetic"
)

// Config represents the complete application configuration
type Config struct {
	Cohort    expression.CohortQuery
	Signature SignatureConfig
	Source    SourceConfig
	Output    OutputConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
}

// SignatureConfig holds the marker panel
type SignatureConfig struct {
	MarkerPanel []string
}

// SourceConfig selects and parameterises the expression data source
type SourceConfig struct {
	Kind string

	GDCBaseURL      string
	CacheDir        string
	Timeout         time.Duration
	DownloadWorkers int

	CountsFile   string
	GenesFile    string
	ClinicalFile string

	SyntheticGenes    int
	SyntheticPatients int
	SyntheticSeed     int64
}

// OutputConfig holds optional artefact paths
type OutputConfig struct {
	ExportFile string
	ReportHTML string
}

// DatabaseConfig holds database connection settings; an empty URL disables the run ledger
type DatabaseConfig struct {
	URL string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Cohort: expression.DefaultCohortQuery(expression.DefaultProject),
		Signature: SignatureConfig{
			MarkerPanel: append([]string(nil), analysis.DefaultMarkerPanel...),
		},
		Source: SourceConfig{
			Kind:              SourceGDC,
			GDCBaseURL:        "https://api.gdc.cancer.gov",
			CacheDir:          "./GDCdata",
			Timeout:           2 * time.Minute,
			DownloadWorkers:   4,
			SyntheticGenes:    200,
			SyntheticPatients: 40,
			SyntheticSeed:     42,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := FromEnv()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// FromEnv reads configuration from environment variables without validating,
// for callers that apply further overrides first.
func FromEnv() *Config {
	d := Default()
	config := &Config{}

	config.Cohort = expression.CohortQuery{
		ProjectID:    getEnvOrDefault("COHORT_PROJECT", d.Cohort.ProjectID),
		DataCategory: getEnvOrDefault("COHORT_DATA_CATEGORY", d.Cohort.DataCategory),
		DataType:     getEnvOrDefault("COHORT_DATA_TYPE", d.Cohort.DataType),
		WorkflowType: getEnvOrDefault("COHORT_WORKFLOW", d.Cohort.WorkflowType),
		RowLimit:     getEnvIntOrDefault("COHORT_ROW_LIMIT", d.Cohort.RowLimit),
	}

	config.Signature = SignatureConfig{
		MarkerPanel: getEnvListOrDefault("MARKER_PANEL", d.Signature.MarkerPanel),
	}

	config.Source = SourceConfig{
		Kind:              strings.ToLower(getEnvOrDefault("DATA_SOURCE", d.Source.Kind)),
		GDCBaseURL:        getEnvOrDefault("GDC_BASE_URL", d.Source.GDCBaseURL),
		CacheDir:          getEnvOrDefault("GDC_CACHE_DIR", d.Source.CacheDir),
		Timeout:           getEnvDurationOrDefault("GDC_TIMEOUT", d.Source.Timeout),
		DownloadWorkers:   getEnvIntOrDefault("GDC_DOWNLOAD_WORKERS", d.Source.DownloadWorkers),
		CountsFile:        getEnvOrDefault("COUNTS_FILE", ""),
		GenesFile:         getEnvOrDefault("GENES_FILE", ""),
		ClinicalFile:      getEnvOrDefault("CLINICAL_FILE", ""),
		SyntheticGenes:    getEnvIntOrDefault("SYNTHETIC_GENES", d.Source.SyntheticGenes),
		SyntheticPatients: getEnvIntOrDefault("SYNTHETIC_PATIENTS", d.Source.SyntheticPatients),
		SyntheticSeed:     int64(getEnvIntOrDefault("SYNTHETIC_SEED", int(d.Source.SyntheticSeed))),
	}

	config.Output = OutputConfig{
		ExportFile: getEnvOrDefault("EXPORT_FILE", ""),
		ReportHTML: getEnvOrDefault("REPORT_HTML", ""),
	}

	config.Database = DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")}
	config.Logging = LoggingConfig{Level: getEnvOrDefault("LOG_LEVEL", d.Logging.Level)}
	return config
}

// Validate checks required fields and source-specific settings
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Cohort.ProjectID) == "" {
		return errors.ConfigInvalid("cohort project id is required")
	}
	if c.Cohort.RowLimit < 0 {
		return errors.ConfigInvalid("row limit must be >= 0 (0 means no limit)")
	}
	if len(c.Signature.MarkerPanel) == 0 {
		return errors.ConfigInvalid("marker panel must list at least one gene symbol")
	}

	switch c.Source.Kind {
	case SourceGDC:
		if c.Source.GDCBaseURL == "" {
			return errors.ConfigInvalid("GDC base URL is required for the gdc source")
		}
		if c.Source.DownloadWorkers < 1 {
			return errors.ConfigInvalid("download workers must be >= 1")
		}
	case SourceFile:
		if c.Source.CountsFile == "" || c.Source.GenesFile == "" || c.Source.ClinicalFile == "" {
			return errors.ConfigInvalid("file source needs COUNTS_FILE, GENES_FILE and CLINICAL_FILE")
		}
	case SourceSynthetic:
		if c.Source.SyntheticGenes < 1 || c.Source.SyntheticPatients < 2 {
			return errors.ConfigInvalid("synthetic source needs at least 1 gene and 2 patients")
		}
	default:
		return errors.ConfigInvalid("unknown data source " + strconv.Quote(c.Source.Kind))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
