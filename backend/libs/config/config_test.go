package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	HTTP struct {
		Port string `yaml:"port" env:"SAMPLE_HTTP_PORT"`
	} `yaml:"http"`
	Source struct {
		Path    string        `yaml:"path"`
		Layouts []string      `yaml:"layouts"`
		Every   time.Duration `yaml:"every"`
		Enabled bool          `yaml:"enabled"`
	} `yaml:"source"`
	Limit int `yaml:"limit" env:"-"`
}

func TestLoadConfigFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("http:\n  port: \"9000\"\nsource:\n  path: /data/a.csv\n  layouts: [\"2006-01-02\"]\nlimit: 3\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SAMPLE_HTTP_PORT", "9100")
	t.Setenv("SOURCE_LAYOUTS", "02-01-2006 15:04; 2006-01-02T15:04:05Z07:00")
	t.Setenv("SOURCE_EVERY", "90s")
	t.Setenv("SOURCE_ENABLED", "true")
	t.Setenv("LIMIT", "99")

	var cfg sampleConfig
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Port != "9100" {
		t.Fatalf("expected env port override, got %q", cfg.HTTP.Port)
	}
	if cfg.Source.Path != "/data/a.csv" {
		t.Fatalf("expected path from file, got %q", cfg.Source.Path)
	}
	if len(cfg.Source.Layouts) != 2 || cfg.Source.Layouts[0] != "02-01-2006 15:04" {
		t.Fatalf("unexpected layouts %v", cfg.Source.Layouts)
	}
	if cfg.Source.Every != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.Source.Every)
	}
	if !cfg.Source.Enabled {
		t.Fatalf("expected enabled")
	}
	if cfg.Limit != 3 {
		t.Fatalf("env:\"-\" field must ignore env, got %d", cfg.Limit)
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	var cfg sampleConfig
	if err := LoadConfigFile("", cfg); err == nil {
		t.Fatalf("expected error for non-pointer target")
	}
	if err := LoadConfigFile("", nil); err == nil {
		t.Fatalf("expected error for nil target")
	}
}

func TestLoadConfigBadValue(t *testing.T) {
	t.Setenv("SOURCE_EVERY", "soon")
	var cfg sampleConfig
	if err := LoadConfigFile("", &cfg); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg sampleConfig
	if err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatalf("expected read error")
	}
}
