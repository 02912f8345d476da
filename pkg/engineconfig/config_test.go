package engineconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesOverridesOntoDefaults(t *testing.T) {
	path := writeTempConfig(t, `
frequency: 30s
backoff:
  max_retries: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Frequency != 30*time.Second {
		t.Fatalf("expected overridden frequency, got %v", cfg.Frequency)
	}
	if cfg.Backoff.MaxRetries != 3 {
		t.Fatalf("expected overridden max_retries, got %d", cfg.Backoff.MaxRetries)
	}
	// Untouched fields keep their defaults.
	if cfg.Ask.Timeout != Defaults().Ask.Timeout {
		t.Fatalf("expected default ask timeout preserved, got %v", cfg.Ask.Timeout)
	}
}

func TestLoadAppliesMatcherOverride(t *testing.T) {
	path := writeTempConfig(t, `
matcher:
  name: cpu_high
  signal_name: cpu.high
  threshold: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Matcher.Name != "cpu_high" || cfg.Matcher.SignalName != "cpu.high" || cfg.Matcher.Threshold != 3 {
		t.Fatalf("expected matcher override applied, got %+v", cfg.Matcher)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestValidateRejectsBadBackoffBounds(t *testing.T) {
	cfg := Defaults()
	cfg.Backoff.MaxBackoff = cfg.Backoff.MinBackoff - time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a validation error when max_backoff < min_backoff")
	}
}

func TestValidateRejectsNonPositiveFrequency(t *testing.T) {
	cfg := Defaults()
	cfg.Frequency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a validation error for zero frequency")
	}
}

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults must validate cleanly: %v", err)
	}
}

func TestValidateRejectsNegativeMaxRetries(t *testing.T) {
	cfg := Defaults()
	cfg.Backoff.MaxRetries = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a validation error for negative max_retries")
	}
}

func TestValidateAcceptsZeroMaxRetries(t *testing.T) {
	cfg := Defaults()
	cfg.Backoff.MaxRetries = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("max_retries=0 (terminate on first crash) must be legal, got %v", err)
	}
}
