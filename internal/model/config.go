package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds every tunable of an analysis run
type Config struct {
	Parse        ParseConfig        `yaml:"parse" mapstructure:"parse"`
	Fabric       FabricConfig       `yaml:"fabric" mapstructure:"fabric"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// ParseConfig controls how input lines become claims
type ParseConfig struct {
	SkipInvalid bool `yaml:"skip_invalid" mapstructure:"skip_invalid"` // Collect malformed lines instead of aborting
}

// FabricConfig controls the occupancy map
type FabricConfig struct {
	Workers      int `yaml:"workers" mapstructure:"workers"`               // Shards for the parallel fold (1 = sequential)
	MaxGridCells int `yaml:"max_grid_cells" mapstructure:"max_grid_cells"` // Largest bounding box rendered as a grid
	MaxCells     int `yaml:"max_cells" mapstructure:"max_cells"`           // Budget for the summed claim area (0 = unlimited)
	MaxWidth     int `yaml:"max_width" mapstructure:"max_width"`           // 0 = unbounded
	MaxHeight    int `yaml:"max_height" mapstructure:"max_height"`         // 0 = unbounded
}

// CacheConfig controls the report cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles remote sources per host
type RateLimitingConfig struct {
	RequestsPerSecond float64    `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int        `yaml:"burst_size" mapstructure:"burst_size"`
	Hosts             []HostRate `yaml:"hosts,omitempty" mapstructure:"hosts"` // Per-host overrides
}

// HostRate overrides the default rate for one host
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"` // host[:port] as it appears in the URL
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// HTTPConfig controls loading of http(s) sources
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "overlap-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".overlap", "cache")
	}

	return &Config{
		Parse: ParseConfig{
			SkipInvalid: false,
		},
		Fabric: FabricConfig{
			Workers:      1,
			MaxGridCells: 250_000,
			MaxCells:     10_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "overlap/0.1 (+https://github.com/ppiankov/overlap)",
			MaxBodyBytes: 10_000_000,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
