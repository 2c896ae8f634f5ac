package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`

	Calculation  CalculationConfig  `koanf:"calculation"`
	Signing      SigningConfig      `koanf:"signing"`
	Audit        AuditConfig        `koanf:"audit"`
	Artifacts    ArtifactConfig     `koanf:"artifacts"`
	FactorSearch FactorSearchConfig `koanf:"factor_search"`
	Security     SecurityConfig     `koanf:"security"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type CalculationConfig struct {
	// Tier2PlusMultiplier is applied to activities with tier2plus data
	// quality. Must be greater than 1.0.
	Tier2PlusMultiplier float64       `koanf:"tier2plus_multiplier"`
	FactorCacheTTL      time.Duration `koanf:"factor_cache_ttl"`
}

type SigningConfig struct {
	// AuthorizedRoles may sign reports for any standard
	AuthorizedRoles []string `koanf:"authorized_roles"`
	// ElevatedRoles is the stricter subset required by CBAM standards
	ElevatedRoles []string `koanf:"elevated_roles"`
	// OwnerRoles may revoke signatures they did not create
	OwnerRoles []string `koanf:"owner_roles"`
}

type AuditConfig struct {
	RetentionDays    int           `koanf:"retention_days"`
	CleanupBatchSize int           `koanf:"cleanup_batch_size"`
	CleanupInterval  time.Duration `koanf:"cleanup_interval"`
}

type ArtifactConfig struct {
	BaseDir string `koanf:"base_dir"`
}

type FactorSearchConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Endpoint          string        `koanf:"endpoint"`
	APIKey            string        `koanf:"api_key"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	Timeout           time.Duration `koanf:"timeout"`
}

type SecurityConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Calculation: CalculationConfig{
			Tier2PlusMultiplier: 1.3,
			FactorCacheTTL:      time.Hour,
		},
		Signing: SigningConfig{
			AuthorizedRoles: []string{"owner", "admin", "auditor"},
			ElevatedRoles:   []string{"owner", "auditor"},
			OwnerRoles:      []string{"owner"},
		},
		Audit: AuditConfig{
			RetentionDays:    2555,
			CleanupBatchSize: 1000,
			CleanupInterval:  24 * time.Hour,
		},
		Artifacts: ArtifactConfig{
			BaseDir: "data/reports",
		},
		FactorSearch: FactorSearchConfig{
			Enabled:           false,
			RequestsPerMinute: 10,
			Timeout:           10 * time.Second,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional
	if path == "" {
		path = "configs/config.yaml"
	}
	_ = k.Load(file.Provider(path), yaml.Parser())

	// Environment variables override everything
	if err := k.Load(env.Provider("CCB_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CCB_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations that would silently corrupt calculations
func (c *Config) Validate() error {
	if c.Calculation.Tier2PlusMultiplier <= 1.0 {
		return fmt.Errorf("calculation.tier2plus_multiplier must be greater than 1.0, got %v", c.Calculation.Tier2PlusMultiplier)
	}
	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("audit.retention_days must be positive, got %d", c.Audit.RetentionDays)
	}
	if c.Audit.CleanupBatchSize <= 0 {
		return fmt.Errorf("audit.cleanup_batch_size must be positive, got %d", c.Audit.CleanupBatchSize)
	}
	return nil
}
