package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calccli.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCLIConfig(t *testing.T) {
	path := writeConfig(t, `
addr = "calc.internal:9300"
connect_attempts = 5
backoff_initial = "100ms"
backoff_max = "2s"
`)
	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "calc.internal:9300" || cfg.ConnectAttempts != 5 {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.Backoff.InitialDelay != 100*time.Millisecond || cfg.Backoff.MaxDelay != 2*time.Second {
		t.Fatalf("backoff: %+v", cfg.Backoff)
	}
}

func TestLoadCLIConfigPartialKeepsDefaults(t *testing.T) {
	cfg, err := loadCLIConfig(writeConfig(t, `addr = "127.0.0.1:9300"`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := defaultCLIConfig()
	if cfg.ConnectAttempts != want.ConnectAttempts {
		t.Fatalf("connect_attempts default lost: %+v", cfg)
	}
	if cfg.Backoff != want.Backoff {
		t.Fatalf("backoff defaults lost: %+v", cfg.Backoff)
	}
}

func TestLoadCLIConfigBadDuration(t *testing.T) {
	if _, err := loadCLIConfig(writeConfig(t, `backoff_initial = "soon"`)); err == nil {
		t.Fatalf("expected duration parse error")
	}
}
