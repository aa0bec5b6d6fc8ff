package gdc

import (
	"time"
)

// Config holds settings for the GDC data portal client
type Config struct {
	BaseURL  string        `json:"base_url"`
	Timeout  time.Duration `json:"timeout"`
	CacheDir string        `json:"cache_dir"`
	Workers  int           `json:"workers"`
	PageSize int           `json:"page_size"`
}

// DefaultConfig returns settings for the public GDC API
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.gdc.cancer.gov",
		Timeout:  2 * time.Minute,
		CacheDir: "./GDCdata",
		Workers:  4,
		PageSize: 500,
	}
}
