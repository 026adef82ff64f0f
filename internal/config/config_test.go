package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortuna/totals/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.RESTPort != "8080" || cfg.Datasets.DefaultSeason == "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Live.EfficiencyThreshold != 95 {
		t.Errorf("EfficiencyThreshold = %f, want 95", cfg.Live.EfficiencyThreshold)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "totals.yaml")
	body := `
server:
  rest_port: "9090"
datasets:
  dir: /srv/seasons
  default_season: "2023-24"
scheduler:
  live_poll_interval: 30s
live:
  model_margin: 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DEFAULT_SEASON", "2024-25")
	t.Setenv("REDIS_URL", "redis://cache:6379")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.RESTPort != "9090" {
		t.Errorf("RESTPort = %s, want 9090", cfg.Server.RESTPort)
	}
	if cfg.Server.WSPort != "8081" {
		t.Errorf("unset WSPort should keep default, got %s", cfg.Server.WSPort)
	}
	if cfg.Datasets.Dir != "/srv/seasons" {
		t.Errorf("Dir = %s", cfg.Datasets.Dir)
	}
	if cfg.Datasets.DefaultSeason != "2024-25" {
		t.Errorf("env should override file season, got %s", cfg.Datasets.DefaultSeason)
	}
	if cfg.Scheduler.LivePollInterval != 30*time.Second {
		t.Errorf("LivePollInterval = %v", cfg.Scheduler.LivePollInterval)
	}
	if cfg.Live.ModelMargin != 3 || cfg.Live.ReversionMargin != 5 {
		t.Errorf("Live = %+v", cfg.Live)
	}
	if !cfg.Redis.Enabled || cfg.Redis.URL != "redis://cache:6379" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
