package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Reconcile  ReconcileConfig  `yaml:"reconcile" mapstructure:"reconcile"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ValidationConfig externalizes the scoring constants: per-field score
// deductions and the validated/flagged threshold.
type ValidationConfig struct {
	ScoreThreshold   int `yaml:"score_threshold" mapstructure:"score_threshold"`
	PhoneDeduction   int `yaml:"phone_deduction" mapstructure:"phone_deduction"`
	EmailDeduction   int `yaml:"email_deduction" mapstructure:"email_deduction"`
	WebsiteDeduction int `yaml:"website_deduction" mapstructure:"website_deduction"`
	AddressDeduction int `yaml:"address_deduction" mapstructure:"address_deduction"`
	ZipDeduction     int `yaml:"zip_deduction" mapstructure:"zip_deduction"`
	LicenseDeduction int `yaml:"license_deduction" mapstructure:"license_deduction"`
	NPIDeduction     int `yaml:"npi_deduction" mapstructure:"npi_deduction"`
}

// ReconcileConfig configures cross-source value resolution.
type ReconcileConfig struct {
	// SourcePrecedence is the declared trust order used for tie-breaks.
	SourcePrecedence []string `yaml:"source_precedence" mapstructure:"source_precedence"`
	// TrustedMinLength is the minimum length a value from the most
	// trusted source must exceed to win outright.
	TrustedMinLength int `yaml:"trusted_min_length" mapstructure:"trusted_min_length"`
}

// BatchConfig configures batch validation runs.
type BatchConfig struct {
	Concurrency     int  `yaml:"concurrency" mapstructure:"concurrency"`
	ContinueOnError bool `yaml:"continue_on_error" mapstructure:"continue_on_error"`
	// Actor is recorded on audit entries written during the run.
	Actor string `yaml:"actor" mapstructure:"actor"`
}

// AnthropicConfig holds enrichment adapter settings.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "directory.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.continue_on_error", true)
	v.SetDefault("validation.score_threshold", 70)
	v.SetDefault("validation.phone_deduction", 15)
	v.SetDefault("validation.email_deduction", 10)
	v.SetDefault("validation.website_deduction", 10)
	v.SetDefault("validation.address_deduction", 20)
	v.SetDefault("validation.zip_deduction", 10)
	v.SetDefault("validation.license_deduction", 15)
	v.SetDefault("validation.npi_deduction", 10)
	v.SetDefault("reconcile.source_precedence", []string{"web", "mobile", "print"})
	v.SetDefault("reconcile.trusted_min_length", 5)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.requests_per_sec", 2.0)
	v.SetDefault("anthropic.timeout_secs", 20)

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

	return &cfg, nil
}

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
