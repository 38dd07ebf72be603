package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-session/internal/weather/providers"
)

type AppConfig struct {
	OpenWeatherAPIKey  string `mapstructure:"openweather_api_key" validate:"required"`
	OpenWeatherBaseURL string `mapstructure:"openweather_base_url" validate:"required,url"`
	Units              string `mapstructure:"units" validate:"oneof=metric imperial standard"`

	// DefaultCity is fetched while no city has been saved. It is never persisted.
	DefaultCity string `mapstructure:"default_city" validate:"required"`

	// Preference store.
	PrefsPath           string        `mapstructure:"prefs_path" validate:"required"`
	PrefsWatch          bool          `mapstructure:"prefs_watch"`
	PrefsResyncInterval time.Duration `mapstructure:"prefs_resync_interval" validate:"gte=0"`

	// Outbound HTTP.
	HTTPTimeout    time.Duration `mapstructure:"http_timeout" validate:"gte=0"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst" validate:"gte=1"`

	Port           string `mapstructure:"port" validate:"required,numeric"`
	LogLevel       string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

var defaults = map[string]interface{}{
	"openweather_api_key":   "",
	"openweather_base_url":  providers.DefaultBaseURL,
	"units":                 "metric",
	"default_city":          "Karachi",
	"prefs_path":            "data/settings.json",
	"prefs_watch":           true,
	"prefs_resync_interval": "1m",
	"http_timeout":          "15s",
	"rate_limit_rps":        1.0,
	"rate_limit_burst":      5,
	"port":                  "8080",
	"log_level":             "info",
	"metrics_enabled":       true,
}

var validate = validator.New()

// Load reads configuration from .env, the environment and, when CONFIG_FILE
// is set, a YAML file. Environment variables win over the file.
func Load() (*AppConfig, error) {
	// .env is optional; variables already set in the environment are kept.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, err
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
