package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/tcpcalc/internal/client"
)

// fileConfig is the optional calccli TOML shape: a default target plus
// reconnect tuning.
type fileConfig struct {
	Addr            string `toml:"addr"`
	ConnectAttempts int    `toml:"connect_attempts"`
	BackoffInitial  string `toml:"backoff_initial"`
	BackoffMax      string `toml:"backoff_max"`
}

type cliConfig struct {
	Addr            string
	ConnectAttempts int
	Backoff         client.BackoffConfig
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		ConnectAttempts: 3,
		Backoff:         client.DefaultBackoffConfig(),
	}
}

func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load calccli config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}

	if meta.IsDefined("connect_attempts") {
		cfg.ConnectAttempts = raw.ConnectAttempts
	}

	if meta.IsDefined("backoff_initial") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.BackoffInitial))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse backoff_initial: %w", err)
		}
		cfg.Backoff.InitialDelay = d
	}

	if meta.IsDefined("backoff_max") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.BackoffMax))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse backoff_max: %w", err)
		}
		cfg.Backoff.MaxDelay = d
	}

	return cfg, nil
}
