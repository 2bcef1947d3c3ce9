package modelconfig

import (
	"context"
	"fmt"
)

// DefaultTopK is used when the configuration leaves top_k unset or invalid
const DefaultTopK = 5

// Config is the set of values a RAG pipeline instance is built from.
// It is comparable; two turns may share a pipeline only if their configs are equal.
type Config struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
}

// Normalize fills defaults.
func (c Config) Normalize() Config {
	if c.TopK < 1 {
		c.TopK = DefaultTopK
	}
	return c
}

func (c Config) String() string {
	return fmt.Sprintf("%s/%s (top_k=%d, temperature=%.2f)", c.Provider, c.Model, c.TopK, c.Temperature)
}

// Source exposes the current model configuration. The dialogue layer only reads it.
type Source interface {
	Current(ctx context.Context) (Config, error)
}

// StaticSource always returns the same configuration
type StaticSource struct {
	cfg Config
}

func NewStaticSource(cfg Config) *StaticSource {
	return &StaticSource{cfg: cfg.Normalize()}
}

func (s *StaticSource) Current(ctx context.Context) (Config, error) {
	return s.cfg, nil
}
