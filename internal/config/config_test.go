package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"cinelog/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "provider:\n  api_key: test-key\n"))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.App.Port != 8081 {
		t.Errorf("expected default port 8081, got %d", cfg.App.Port)
	}
	if cfg.Provider.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("unexpected default base url: %s", cfg.Provider.BaseURL)
	}
	if cfg.Provider.Language != "en-US" {
		t.Errorf("unexpected default language: %s", cfg.Provider.Language)
	}
	if cfg.Refresh.Interval != "6h" || cfg.Refresh.MaxAge != "168h" {
		t.Errorf("unexpected refresh defaults: %s / %s", cfg.Refresh.Interval, cfg.Refresh.MaxAge)
	}
}

func TestLoadReadsYAML(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
app:
  port: 9000
  debug: true
provider:
  api_key: file-key
  language: de-DE
database:
  path: /tmp/watch.db
refresh:
  interval: 1h
  max_age: 24h
`))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.App.Port != 9000 || !cfg.App.Debug {
		t.Errorf("app section not loaded: %+v", cfg.App)
	}
	if cfg.Provider.APIKey != "file-key" || cfg.Provider.Language != "de-DE" {
		t.Errorf("provider section not loaded: %+v", cfg.Provider)
	}
	if cfg.Database.Path != "/tmp/watch.db" {
		t.Errorf("database section not loaded: %+v", cfg.Database)
	}
	if cfg.Refresh.Interval != "1h" || cfg.Refresh.MaxAge != "24h" {
		t.Errorf("refresh section not loaded: %+v", cfg.Refresh)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("TMDB_BASE_URL", "http://localhost:8090/3")

	cfg, err := config.Load(writeConfig(t, "provider:\n  api_key: file-key\n"))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("expected env api key to win, got %s", cfg.Provider.APIKey)
	}
	if cfg.Provider.BaseURL != "http://localhost:8090/3" {
		t.Errorf("expected env base url to win, got %s", cfg.Provider.BaseURL)
	}
}

func TestPushbulletKeyEnablesNotifications(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("PUSHBULLET_API_KEY", "pb-key")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Notifications.Type != "pushbullet" || cfg.Notifications.APIKey != "pb-key" {
		t.Errorf("expected pushbullet enabled from env, got %+v", cfg.Notifications)
	}
}

func TestMissingAPIKeyIsAnError(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error when no api key is configured")
	}
}

func TestInvalidPortIsAnError(t *testing.T) {
	if _, err := config.Load(writeConfig(t, "app:\n  port: 70000\nprovider:\n  api_key: k\n")); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
