package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port     int    `yaml:"port"`
		DataPath string `yaml:"data_path"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"app"`

	Provider struct {
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		Language string `yaml:"language"`
	} `yaml:"provider"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Refresh struct {
		// Interval is how often the refresh job runs.
		Interval string `yaml:"interval"`
		// MaxAge is how old cached metadata may get before the job refreshes it.
		MaxAge string `yaml:"max_age"`
	} `yaml:"refresh"`

	Notifications struct {
		Type   string `yaml:"type"` // 'pushbullet' or empty to disable
		APIKey string `yaml:"api_key"`
	} `yaml:"notifications"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.App.Port)
	}
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("provider api key is required (set provider.api_key or TMDB_API_KEY)")
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.App.Port = 8081
	cfg.App.DataPath = "./data"
	cfg.App.Debug = false

	cfg.Provider.BaseURL = "https://api.themoviedb.org/3"
	cfg.Provider.Language = "en-US"

	cfg.Database.Path = "./data/cinelog.db"

	cfg.Refresh.Interval = "6h"
	cfg.Refresh.MaxAge = "168h"
}

// Credentials can always come from the environment so the config file
// never has to hold secrets.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("TMDB_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("PUSHBULLET_API_KEY"); v != "" {
		cfg.Notifications.APIKey = v
		if cfg.Notifications.Type == "" {
			cfg.Notifications.Type = "pushbullet"
		}
	}
}
