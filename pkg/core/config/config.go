// Package config loads service configuration from config.yaml, .env and
// PROJ_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"property_projection/pkg/core/projection"
	"property_projection/pkg/core/valuation"
)

// EnvPrefix namespaces environment overrides, e.g. PROJ_SERVER_ADDRESS.
const EnvPrefix = "PROJ"

type ServerConfig struct {
	Address            string        `mapstructure:"address" json:"address"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" json:"rate_limit_per_minute"` // 0 disables
	RateLimitBurst     int           `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url" json:"-"`
}

type CacheConfig struct {
	Dir       string        `mapstructure:"dir" json:"dir"`
	RedisAddr string        `mapstructure:"redis_addr" json:"redis_addr"`
	RedisTTL  time.Duration `mapstructure:"redis_ttl" json:"redis_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

type ProjectionConfig struct {
	HorizonYears   int                      `mapstructure:"horizon_years" json:"horizon_years"`
	MultiLoanMode  projection.MultiLoanMode `mapstructure:"multi_loan_mode" json:"multi_loan_mode"`
	MilestoneBasis valuation.MilestoneBasis `mapstructure:"milestone_basis" json:"milestone_basis"`
	Concurrency    int                      `mapstructure:"concurrency" json:"concurrency"`
}

type AssumptionsConfig struct {
	PresetsDir string `mapstructure:"presets_dir" json:"presets_dir"`
}

type InsightConfig struct {
	Provider string `mapstructure:"provider" json:"provider"`
	Model    string `mapstructure:"model" json:"model"`
	APIKey   string `mapstructure:"api_key" json:"-"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server" json:"server"`
	Database    DatabaseConfig    `mapstructure:"database" json:"-"`
	Cache       CacheConfig       `mapstructure:"cache" json:"cache"`
	Log         LogConfig         `mapstructure:"log" json:"log"`
	Projection  ProjectionConfig  `mapstructure:"projection" json:"projection"`
	Assumptions AssumptionsConfig `mapstructure:"assumptions" json:"assumptions"`
	Insight     InsightConfig     `mapstructure:"insight" json:"insight"`
}

// ProjectionOptions returns the engine options this config selects.
func (c *Config) ProjectionOptions() projection.Options {
	return projection.Options{
		HorizonYears:  c.Projection.HorizonYears,
		MultiLoanMode: c.Projection.MultiLoanMode,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit_per_minute", 120)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("database.url", "")
	v.SetDefault("cache.dir", ".cache/projections")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("projection.horizon_years", projection.DefaultHorizonYears)
	v.SetDefault("projection.multi_loan_mode", string(projection.PerLoan))
	v.SetDefault("projection.milestone_basis", string(valuation.BasisPerYear))
	v.SetDefault("projection.concurrency", 4)
	v.SetDefault("assumptions.presets_dir", "config/presets")
	v.SetDefault("insight.provider", "template")
	v.SetDefault("insight.model", "")
	v.SetDefault("insight.api_key", "")
}

// Load reads configuration from path (config.yaml in the working directory
// when empty). A missing file leaves the defaults in place. A .env file, when
// present, is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the engine cannot honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Projection.HorizonYears < 1 || c.Projection.HorizonYears > 100 {
		errs = append(errs, fmt.Errorf("projection.horizon_years must be between 1 and 100"))
	}
	switch c.Projection.MultiLoanMode {
	case projection.PerLoan, projection.RepresentativeLoan:
	default:
		errs = append(errs, fmt.Errorf("projection.multi_loan_mode %q is not supported", c.Projection.MultiLoanMode))
	}
	switch c.Projection.MilestoneBasis {
	case valuation.BasisPerYear, valuation.BasisCumulative:
	default:
		errs = append(errs, fmt.Errorf("projection.milestone_basis %q is not supported", c.Projection.MilestoneBasis))
	}
	if c.Projection.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("projection.concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}
