// Package config loads runtime settings from a config file, environment
// variables, and an optional .env file, in ascending priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the terminal frontends need to run.
type Config struct {
	ServerURL      string        `mapstructure:"server_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DownloadDir    string        `mapstructure:"download_dir"`
	DownloadBase   string        `mapstructure:"download_base"`
	LogFile        string        `mapstructure:"log_file"`
}

// Load reads configuration from config.yaml (searched in the working
// directory and ~/.config/quizforge), QUIZFORGE_* environment variables,
// and a .env file when present. Missing files are fine; defaults cover
// everything except the server URL, which defaults to localhost.
func Load() (Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizforge")
	v.SetEnvPrefix("QUIZFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("download_dir", "downloads")
	v.SetDefault("download_base", "")
	v.SetDefault("log_file", "quizforge.log")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return cfg, nil
}
