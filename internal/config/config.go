package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the exchange routing values and engine defaults. The engine
// itself is pure; these settings shape the envelopes it emits.
type Config struct {
	Env                 string `mapstructure:"ENV"`
	LogLevel            string `mapstructure:"LOG_LEVEL"`
	SenderLicense       string `mapstructure:"SENDER_LICENSE"`
	ReceiverLicense     string `mapstructure:"RECEIVER_LICENSE"`
	SourceEndpoint      string `mapstructure:"SOURCE_ENDPOINT"`
	DestinationEndpoint string `mapstructure:"DESTINATION_ENDPOINT"`
	DefaultCurrency     string `mapstructure:"DEFAULT_CURRENCY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_CURRENCY", "SAR")
	v.SetDefault("SOURCE_ENDPOINT", "http://provider.example.sa")
	v.SetDefault("DESTINATION_ENDPOINT", "http://exchange.nphies.sa")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("SENDER_LICENSE")
	v.BindEnv("RECEIVER_LICENSE")
	v.BindEnv("SOURCE_ENDPOINT")
	v.BindEnv("DESTINATION_ENDPOINT")
	v.BindEnv("DEFAULT_CURRENCY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.SenderLicense == "" {
		return nil, fmt.Errorf("SENDER_LICENSE is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
