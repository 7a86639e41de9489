package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/dpup/postarit/internal/lib/overlap"
)

// Config represents the complete application configuration
// Sections are unmarshalled from prefab.yaml and PF__ environment variables
type Config struct {
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Coverage CoverageConfig `yaml:"coverage" koanf:"coverage"`
}

// ServerConfig holds HTTP upload settings
type ServerConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes" koanf:"max_upload_bytes"`
}

// CoverageConfig holds the overlap pipeline settings
type CoverageConfig struct {
	// TargetCRS is the planar reference used for all area math, as a proj4
	// string, WKT, or a known EPSG code
	TargetCRS string `yaml:"target_crs" koanf:"target_crs"`

	// CircleSegments is the vertex count of the radius buffer polygon
	CircleSegments int `yaml:"circle_segments" koanf:"circle_segments"`

	// MinTotalRatio is the smallest combined coverage ratio reported
	MinTotalRatio float64 `yaml:"min_total_ratio" koanf:"min_total_ratio"`

	DefaultCenter       string  `yaml:"default_center" koanf:"default_center"`
	DefaultRadiusMeters float64 `yaml:"default_radius_meters" koanf:"default_radius_meters"`

	// ComputeTimeout bounds a single run; zero disables the deadline
	ComputeTimeout time.Duration `yaml:"compute_timeout" koanf:"compute_timeout"`
}

// EngineOptions converts coverage settings to overlap engine options
func (c CoverageConfig) EngineOptions() overlap.Options {
	return overlap.Options{
		CircleSegments: c.CircleSegments,
		MinTotalRatio:  c.MinTotalRatio,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxUploadBytes: 64 << 20, // Finnish postal code GeoJSON is ~30MB
		},
		Coverage: CoverageConfig{
			TargetCRS:           "EPSG:3879", // ETRS89 / GK25FIN
			CircleSegments:      overlap.DefaultCircleSegments,
			MinTotalRatio:       overlap.DefaultMinTotalRatio,
			DefaultCenter:       "60.450443736980425, 22.263339299434875",
			DefaultRadiusMeters: 7500,
			ComputeTimeout:      2 * time.Minute,
		},
	}
}

// Load unmarshals the server and coverage sections of k on top of the
// defaults. Binaries pass prefab.Config, which reads prefab.yaml and PF__
// environment variables.
func Load(k *koanf.Koanf) (*Config, error) {
	cfg := DefaultConfig()

	if err := k.Unmarshal("server", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server section: %w", err)
	}

	if err := k.Unmarshal("coverage", &cfg.Coverage); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coverage section: %w", err)
	}

	return cfg, nil
}
