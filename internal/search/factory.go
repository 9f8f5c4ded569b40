package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/elephant/internal/config"
)

// NewFromConfig creates an Index implementation based on the search config driver.
func NewFromConfig(ctx context.Context, cfg config.SearchConfig) (Index, error) {
	switch cfg.Driver {
	case "bleve":
		return NewBleveIndex(cfg.Path)
	case "redis":
		return NewRedisIndex(ctx, RedisConfig{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	default:
		return nil, fmt.Errorf("unknown search driver: %s", cfg.Driver)
	}
}
