package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jmstructural/services"
)

var configKeys = []string{
	"APP_ENV", "LOG_LEVEL", "CURRENCY", "TAX_PERCENT", "ROUNDING_MODE",
	"GENERATION_LATENCY", "GENERATION_TIMEOUT", "GENERATION_SEED", "SEED_DATA",
}

// clearEnv blanks every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Environment != "development" || cfg.LogLevel != "info" {
		t.Errorf("unexpected env/log level: %q %q", cfg.Environment, cfg.LogLevel)
	}
	if cfg.Currency != "KES" {
		t.Errorf("Currency = %q, want KES", cfg.Currency)
	}
	if cfg.TaxPercent.String() != "16" {
		t.Errorf("TaxPercent = %s, want 16", cfg.TaxPercent)
	}
	if cfg.Rounding != services.RoundHalfUp {
		t.Errorf("Rounding = %q, want half_up", cfg.Rounding)
	}
	if cfg.GenerationLatency != 2*time.Second || cfg.GenerationTimeout != 30*time.Second {
		t.Errorf("unexpected generation timings: %v %v", cfg.GenerationLatency, cfg.GenerationTimeout)
	}
	if cfg.GenerationSeed != 42 || !cfg.SeedData {
		t.Errorf("unexpected seed settings: %d %v", cfg.GenerationSeed, cfg.SeedData)
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CURRENCY", "kes")
	t.Setenv("TAX_PERCENT", "8")
	t.Setenv("ROUNDING_MODE", "half_even")
	t.Setenv("GENERATION_LATENCY", "250")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("GENERATION_SEED", "7")
	t.Setenv("SEED_DATA", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.IsProduction() || cfg.Currency != "KES" || cfg.TaxPercent.String() != "8" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Calculator().Rounding != services.RoundHalfEven {
		t.Errorf("Rounding = %q, want half_even", cfg.Rounding)
	}
	if cfg.GenerationLatency != 250*time.Millisecond || cfg.GenerationTimeout != 5*time.Second {
		t.Errorf("unexpected generation timings: %v %v", cfg.GenerationLatency, cfg.GenerationTimeout)
	}
	if cfg.GenerationSeed != 7 || cfg.SeedData {
		t.Errorf("unexpected seed settings: %d %v", cfg.GenerationSeed, cfg.SeedData)
	}
}

func TestLoad_FromDotEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range configKeys {
		os.Unsetenv(k)
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "TAX_PERCENT=14\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TaxPercent.String() != "14" || cfg.LogLevel != "debug" {
		t.Errorf("env file not applied: tax=%s level=%s", cfg.TaxPercent, cfg.LogLevel)
	}
}

func TestLoad_InvalidTaxPercent(t *testing.T) {
	tests := []struct {
		value  string
		wantIs error
	}{
		{"abc", nil},
		{"-1", services.ErrInvalidTaxPercent},
		{"101", services.ErrInvalidTaxPercent},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TAX_PERCENT", tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GENERATION_SEED", "forty-two"},
		{"GENERATION_SEED", "-1"},
		{"GENERATION_LATENCY", "2 seconds"},
		{"GENERATION_LATENCY", "-5s"},
		{"GENERATION_TIMEOUT", "30x"},
		{"SEED_DATA", "ye"},
		{"ROUNDING_MODE", "half_down"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestLoad_ReportsEveryInvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("GENERATION_SEED", "x")
	t.Setenv("SEED_DATA", "maybe")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"GENERATION_SEED", "SEED_DATA"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}
