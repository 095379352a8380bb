package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verdant-group/impact-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Defaults   DefaultsConfig   `yaml:"defaults" mapstructure:"defaults"`
	Archetypes ArchetypesConfig `yaml:"archetypes" mapstructure:"archetypes"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig points at the reference data directory.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DefaultsConfig holds the computation defaults applied when a request
// leaves them out.
type DefaultsConfig struct {
	DurationHours      float64  `yaml:"duration_hours" mapstructure:"duration_hours"`
	Criteria           []string `yaml:"criteria" mapstructure:"criteria"`
	Location           string   `yaml:"location" mapstructure:"location"`
	SignificantFigures int      `yaml:"significant_figures" mapstructure:"significant_figures"`
	UncertaintyPercent float64  `yaml:"uncertainty_percent" mapstructure:"uncertainty_percent"`
}

// ArchetypesConfig names the profile each kind's "default" alias
// resolves to.
type ArchetypesConfig struct {
	Default map[string]string `yaml:"default" mapstructure:"default"`
}

// StoreConfig configures the assessment record backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig configures concurrent batch computation.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port       int     `yaml:"port" mapstructure:"port"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst  int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IMPACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("defaults.duration_hours", 35040)
	v.SetDefault("defaults.criteria", []string{"gwp", "adp", "pe"})
	v.SetDefault("defaults.location", "EEE")
	v.SetDefault("defaults.significant_figures", 3)
	v.SetDefault("defaults.uncertainty_percent", 10)
	v.SetDefault("archetypes.default", map[string]string{"server": "rack_generic"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "impact.db")
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_sec", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if _, err := model.ParseCriteria(cfg.Defaults.Criteria); err != nil {
		return nil, eris.Wrap(err, "config: defaults.criteria")
	}
	if cfg.Defaults.SignificantFigures < 1 {
		return nil, eris.Errorf("config: defaults.significant_figures must be positive, got %d", cfg.Defaults.SignificantFigures)
	}
	if cfg.Defaults.UncertaintyPercent < 0 {
		return nil, eris.Errorf("config: defaults.uncertainty_percent must not be negative, got %v", cfg.Defaults.UncertaintyPercent)
	}

	return &cfg, nil
}

// ComputationDefaults bridges the configured defaults to the resolver.
type ComputationDefaults struct {
	cfg DefaultsConfig
}

// NewComputationDefaults wraps the defaults section.
func NewComputationDefaults(cfg DefaultsConfig) ComputationDefaults {
	return ComputationDefaults{cfg: cfg}
}

func (d ComputationDefaults) DefaultDuration() float64 { return d.cfg.DurationHours }

func (d ComputationDefaults) DefaultCriteria() []model.Criterion {
	criteria, err := model.ParseCriteria(d.cfg.Criteria)
	if err != nil {
		return model.AllCriteria()
	}
	return criteria
}

func (d ComputationDefaults) DefaultLocation() string { return d.cfg.Location }

func (d ComputationDefaults) SignificantFigures() int { return d.cfg.SignificantFigures }

func (d ComputationDefaults) UncertaintyPercent() float64 { return d.cfg.UncertaintyPercent }

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
