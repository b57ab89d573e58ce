package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var configKeys = []string{
	"CONFIG_FILE", "HTTP_PORT", "ALLOWED_ORIGINS", "DATABASE_URL", "LOG_LEVEL",
	"SCHEDULER_SPEC", "SCHEDULER_START_DELAY", "MAX_CONCURRENCY",
	"PROBE_DEFAULT_TIMEOUT", "REALERT_INTERVAL", "ALERT_RETRIES",
	"ALERT_RETRY_DELAY", "ALERT_ATTEMPT_TIMEOUT", "SLACK_PROXY_URL",
	"CRON_SECRET", "JWT_SECRET",
}

// clearEnv blanks every config key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uptime.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 3000 {
		t.Errorf("HTTPPort = %d, want 3000", cfg.HTTPPort)
	}
	if cfg.SchedulerSpec != "* * * * *" {
		t.Errorf("SchedulerSpec = %q", cfg.SchedulerSpec)
	}
	if cfg.SchedulerStartDelay != 2*time.Second {
		t.Errorf("SchedulerStartDelay = %v, want 2s", cfg.SchedulerStartDelay)
	}
	if cfg.MaxConcurrency != 16 {
		t.Errorf("MaxConcurrency = %d, want 16", cfg.MaxConcurrency)
	}
	if cfg.ProbeDefaultTimeout != 10*time.Second {
		t.Errorf("ProbeDefaultTimeout = %v", cfg.ProbeDefaultTimeout)
	}
	if cfg.RealertInterval != 15*time.Minute {
		t.Errorf("RealertInterval = %v", cfg.RealertInterval)
	}
	if cfg.AlertRetries != 3 || cfg.AlertRetryDelay != time.Second || cfg.AlertAttemptTimeout != 10*time.Second {
		t.Errorf("alert settings = %d/%v/%v", cfg.AlertRetries, cfg.AlertRetryDelay, cfg.AlertAttemptTimeout)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want none", cfg.AllowedOrigins)
	}
	if len(cfg.JWTSecret) != 64 {
		t.Errorf("expected a generated 32-byte hex JWT secret, got %d chars", len(cfg.JWTSecret))
	}
}

func TestLoad_EnvValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SCHEDULER_START_DELAY", "30")
	t.Setenv("REALERT_INTERVAL", "5m")
	t.Setenv("ALERT_RETRY_DELAY", "250ms")
	t.Setenv("JWT_SECRET", "shared")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins); diff != "" {
		t.Errorf("AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if cfg.SchedulerStartDelay != 30*time.Second {
		t.Errorf("SchedulerStartDelay = %v, want 30s", cfg.SchedulerStartDelay)
	}
	if cfg.RealertInterval != 5*time.Minute {
		t.Errorf("RealertInterval = %v, want 5m", cfg.RealertInterval)
	}
	if cfg.AlertRetryDelay != 250*time.Millisecond {
		t.Errorf("AlertRetryDelay = %v", cfg.AlertRetryDelay)
	}
	if cfg.JWTSecret != "shared" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("REALERT_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPPort != 3000 {
		t.Errorf("HTTPPort = %d, want default", cfg.HTTPPort)
	}
	if cfg.RealertInterval != 15*time.Minute {
		t.Errorf("RealertInterval = %v, want default", cfg.RealertInterval)
	}
}

func TestLoad_RejectsZeroConcurrency(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_CONCURRENCY", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for MAX_CONCURRENCY=0")
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
http_port: 9090
scheduler_spec: "*/2 * * * *"
allowed_origins:
  - https://app.example
  - https://admin.example
cron_secret: from-file
realert_interval: 10m
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CRON_SECRET", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090 from file", cfg.HTTPPort)
	}
	if cfg.SchedulerSpec != "*/2 * * * *" {
		t.Errorf("SchedulerSpec = %q", cfg.SchedulerSpec)
	}
	if diff := cmp.Diff([]string{"https://app.example", "https://admin.example"}, cfg.AllowedOrigins); diff != "" {
		t.Errorf("AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if cfg.CronSecret != "from-env" {
		t.Errorf("CronSecret = %q, env must win over file", cfg.CronSecret)
	}
	if cfg.RealertInterval != 10*time.Minute {
		t.Errorf("RealertInterval = %v", cfg.RealertInterval)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "http_port: [unclosed"},
		{"nested value", "database:\n  url: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CONFIG_FILE", writeFile(t, tt.content))
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
		if _, err := Load(); err == nil {
			t.Fatal("expected error")
		}
	})
}
