package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Tax      Tax      `mapstructure:"tax"`
	Pricing  Pricing  `mapstructure:"pricing"`
}

// Database holds the configuration for the database.
// Driver is "sqlite" or "postgres"; when empty it is inferred from the DSN.
type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Tax holds the configuration for the rules engine.
type Tax struct {
	// SeedFile is a YAML file of per-fiscal-year rate tables loaded by `config seed`.
	SeedFile string `mapstructure:"seed_file"`
	// LegacyCryptoRules switches the calculator to the deprecated rule set that
	// grants crypto a long-term rate after 1095 days.
	LegacyCryptoRules bool `mapstructure:"legacy_crypto_rules"`
}

// Pricing holds the configuration for the external ticker price source.
type Pricing struct {
	BaseURL        string  `mapstructure:"base_url"`
	QuoteAsset     string  `mapstructure:"quote_asset"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.dsn", "file:taxharvest.db")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("tax.seed_file", "configs/tax_rates.yml")
	v.SetDefault("pricing.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("pricing.quote_asset", "USDT")
	v.SetDefault("pricing.rate_limit", 20) // requests per second
	v.SetDefault("pricing.rate_limit_burst", 5)
	v.SetDefault("pricing.timeout_seconds", 10)
}
