package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server Server `mapstructure:"server"`
	Cloud  Cloud  `mapstructure:"cloud"`
	Local  Local  `mapstructure:"local"`
	Sync   Sync   `mapstructure:"sync"`
}

// Server configures the HTTP control surface.
type Server struct {
	Address string `mapstructure:"address"`
}

// Cloud configures the remote document store.
type Cloud struct {
	URI            string        `mapstructure:"uri"`
	Name           string        `mapstructure:"name"`
	UserID         string        `mapstructure:"user_id"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// Local configures the on-device store.
type Local struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// Sync tunes the background cycle and read windows.
type Sync struct {
	// Interval between automatic sync cycles; zero disables the ticker.
	Interval time.Duration `mapstructure:"interval"`
	// SessionWindowDays bounds how much history the progression engine
	// and analytics load by default.
	SessionWindowDays int `mapstructure:"session_window_days"`
}

// Load reads configuration from file or environment variables.
func Load(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Nested keys map to env vars, e.g. cloud.uri -> CLOUD_URI.
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("cloud.uri", "mongodb://localhost:27017")
	viper.SetDefault("cloud.name", "fitness_sync")
	viper.SetDefault("cloud.connect_timeout", "10s")
	viper.SetDefault("local.path", "./data")
	viper.SetDefault("local.in_memory", false)
	viper.SetDefault("sync.interval", "5m")
	viper.SetDefault("sync.session_window_days", 90)

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults carry it.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}
