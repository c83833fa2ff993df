package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oxygene76/exosky/internal/types"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data:
  planets_file: planets.csv
  stars_file: stars.csv
sky:
  magnitude_limit: 12.5
export:
  dpi: 150
log:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Data.PlanetsFile != "planets.csv" || cfg.Data.StarsFile != "stars.csv" {
		t.Fatalf("data files = %q, %q", cfg.Data.PlanetsFile, cfg.Data.StarsFile)
	}
	if cfg.Sky.MagnitudeLimit != 12.5 {
		t.Fatalf("magnitude limit = %v, want 12.5", cfg.Sky.MagnitudeLimit)
	}
	if cfg.Export.DPI != 150 {
		t.Fatalf("dpi = %d, want 150", cfg.Export.DPI)
	}
	// Untouched keys keep their defaults
	if cfg.Sky.Radius != 90 || cfg.Sky.HistogramBins != 50 {
		t.Fatalf("sky defaults lost: %+v", cfg.Sky)
	}
	if cfg.Data.Stars.Magnitude != "phot_g_mean_mag" {
		t.Fatalf("star magnitude column = %q", cfg.Data.Stars.Magnitude)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sky:\n  magnitude_limit: 10\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EXOSKY_SKY_MAGNITUDE_LIMIT", "8")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Sky.MagnitudeLimit != 8 {
		t.Fatalf("magnitude limit = %v, want env value 8", cfg.Sky.MagnitudeLimit)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, types.ErrMissingResource) {
		t.Fatalf("LoadConfig error = %v, want ErrMissingResource", err)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"radius", "sky:\n  radius: 200\n"},
		{"bins", "sky:\n  histogram_bins: 0\n"},
		{"file name with dir", "export:\n  file_name: out/sky.png\n"},
		{"log format", "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("LoadConfig accepted %q", tt.content)
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = ":9999"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Server.Addr != ":9999" {
		t.Fatalf("server addr = %q, want :9999", loaded.Server.Addr)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("catalog loaded", "planets", 3)
	if !strings.Contains(buf.String(), `"planets":3`) {
		t.Fatalf("log output %q missing structured field", buf.String())
	}

	if _, err := NewLogger(LogConfig{Level: "loud"}, &buf); err == nil {
		t.Fatal("NewLogger accepted an unknown level")
	}
}
