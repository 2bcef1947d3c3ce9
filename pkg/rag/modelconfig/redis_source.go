package modelconfig

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding the live model configuration
const DefaultRedisKey = "paperchat:model_config"

const (
	fieldProvider    = "provider"
	fieldModel       = "model"
	fieldBaseURL     = "base_url"
	fieldTemperature = "temperature"
	fieldTopK        = "top_k"
)

// RedisSource reads the configuration from a Redis hash so that operators can
// change provider, model or top_k at runtime. Missing fields fall back to defaults.
type RedisSource struct {
	rdb      *redis.Client
	key      string
	defaults Config
}

func NewRedisSource(rdb *redis.Client, key string, defaults Config) *RedisSource {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{
		rdb:      rdb,
		key:      key,
		defaults: defaults.Normalize(),
	}
}

func (s *RedisSource) Current(ctx context.Context) (Config, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", s.key, err)
	}
	return FromHash(s.defaults, fields)
}

// Save overwrites the stored configuration.
func (s *RedisSource) Save(ctx context.Context, cfg Config) error {
	cfg = cfg.Normalize()
	return s.rdb.HSet(ctx, s.key, map[string]interface{}{
		fieldProvider:    cfg.Provider,
		fieldModel:       cfg.Model,
		fieldBaseURL:     cfg.BaseURL,
		fieldTemperature: strconv.FormatFloat(cfg.Temperature, 'f', -1, 64),
		fieldTopK:        strconv.Itoa(cfg.TopK),
	}).Err()
}

// FromHash overlays hash fields onto defaults.
func FromHash(defaults Config, fields map[string]string) (Config, error) {
	cfg := defaults
	if v, ok := fields[fieldProvider]; ok && v != "" {
		cfg.Provider = v
	}
	if v, ok := fields[fieldModel]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := fields[fieldBaseURL]; ok {
		cfg.BaseURL = v
	}
	if v, ok := fields[fieldTemperature]; ok && v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", fieldTemperature, v, err)
		}
		cfg.Temperature = t
	}
	if v, ok := fields[fieldTopK]; ok && v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", fieldTopK, v, err)
		}
		cfg.TopK = k
	}
	return cfg.Normalize(), nil
}
