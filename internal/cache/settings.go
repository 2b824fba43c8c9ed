package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"hotel-payment-service/internal/config"
	"hotel-payment-service/internal/db"
)

const (
	settingsKey    = "currency:settings"
	defaultTTLSecs = 60
)

// SettingsCache is a read-through redis cache for the exchange rate document.
// Redis being down degrades to direct repository reads.
type SettingsCache struct {
	client *redis.Client
	repo   *db.SettingsRepository
	ttl    time.Duration
	logger *slog.Logger
}

func NewSettingsCache(cfg config.Redis, repo *db.SettingsRepository, logger *slog.Logger) *SettingsCache {
	ttl := cfg.CacheTTLSecs
	if ttl <= 0 {
		ttl = defaultTTLSecs
	}

	var client *redis.Client
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			logger.Warn("Invalid redis URL, settings cache disabled", "error", err)
		} else {
			client = redis.NewClient(opts)
		}
	}

	return &SettingsCache{
		client: client,
		repo:   repo,
		ttl:    time.Duration(ttl) * time.Second,
		logger: logger,
	}
}

func (c *SettingsCache) Get(ctx context.Context) (*db.CurrencySettingsEntity, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, settingsKey).Result()
		if err == nil {
			var entity db.CurrencySettingsEntity
			if err := json.Unmarshal([]byte(raw), &entity); err == nil {
				return &entity, nil
			}
		} else if err != redis.Nil {
			c.logger.WarnContext(ctx, "Settings cache read failed", "error", err)
		}
	}

	entity, err := c.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if raw, err := json.Marshal(entity); err == nil {
			if err := c.client.Set(ctx, settingsKey, raw, c.ttl).Err(); err != nil {
				c.logger.WarnContext(ctx, "Settings cache write failed", "error", err)
			}
		}
	}

	return entity, nil
}

// Invalidate drops the cached document after the settings were overwritten.
func (c *SettingsCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, settingsKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "Settings cache invalidation failed", "error", err)
	}
}
