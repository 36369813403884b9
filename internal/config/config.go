package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/tcpcalc/internal/protocol/answer"
)

// ServerConfig is the calcd deployment shape.
type ServerConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	AdminAddr       string   `toml:"admin_addr"`
	AnswerOrder     string   `toml:"answer_order"`
	ReadBufferBytes int      `toml:"read_buffer_bytes"`
	CorsOrigins     []string `toml:"cors_origins"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:      ":9300",
		AnswerOrder:     "message-first",
		ReadBufferBytes: 2048,
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultServerConfig().ListenAddr
	}
	if cfg.ReadBufferBytes == 0 {
		cfg.ReadBufferBytes = DefaultServerConfig().ReadBufferBytes
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("config: listen_addr must not be empty")
	}
	if cfg.ReadBufferBytes < 2 {
		return fmt.Errorf("config: read_buffer_bytes too small: %d", cfg.ReadBufferBytes)
	}
	if _, err := answer.ParseOrder(cfg.AnswerOrder); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Order resolves the configured answer order. Validation has already
// rejected unknown spellings.
func (c ServerConfig) Order() answer.Order {
	order, _ := answer.ParseOrder(c.AnswerOrder)
	return order
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
