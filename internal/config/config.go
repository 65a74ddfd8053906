package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server configuration. Values come from an optional
// config.yaml next to the binary and DATADASH_* environment variables;
// env wins.
type Config struct {
	Addr               string        `mapstructure:"addr"`
	SamplePath         string        `mapstructure:"sample_path"`
	GeoJSONPath        string        `mapstructure:"geojson_path"`
	CacheDir           string        `mapstructure:"cache_dir"`
	GeocoderURL        string        `mapstructure:"geocoder_url"`
	GeocoderDelay      time.Duration `mapstructure:"geocoder_delay"`
	GeocoderMaxQueries int           `mapstructure:"geocoder_max_queries"`
	DefaultTopN        int           `mapstructure:"default_top_n"`
}

// Load reads configuration from file, env, and defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DATADASH")
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("sample_path", "sample_vendors.csv")
	v.SetDefault("geojson_path", "")
	v.SetDefault("cache_dir", ".datadash-cache")
	v.SetDefault("geocoder_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder_delay", 500*time.Millisecond)
	v.SetDefault("geocoder_max_queries", 60)
	v.SetDefault("default_top_n", 10)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
