// Package cache puts a Redis cache-aside layer in front of the project name
// lookup used for payload enrichment. Enrichment is best-effort, so every
// cache failure degrades to the underlying lookup rather than an error.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stsphera/notify-engine/internal/repository"
	"go.uber.org/zap"
)

const defaultTTL = 10 * time.Minute

// ProjectNameCache implements repository.ProjectRepository over a delegate,
// memoizing names in Redis.
type ProjectNameCache struct {
	delegate repository.ProjectRepository
	client   *goredis.Client
	ttl      time.Duration
	logger   *zap.Logger
}

var _ repository.ProjectRepository = (*ProjectNameCache)(nil)

func NewProjectNameCache(delegate repository.ProjectRepository, client *goredis.Client, logger *zap.Logger) (*ProjectNameCache, error) {
	if delegate == nil {
		return nil, fmt.Errorf("project repository is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProjectNameCache{
		delegate: delegate,
		client:   client,
		ttl:      defaultTTL,
		logger:   logger,
	}, nil
}

func (c *ProjectNameCache) GetName(ctx context.Context, id string) (string, error) {
	key := cacheKey(id)

	name, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, goredis.Nil) {
		c.logger.Warn("project name cache read failed",
			zap.String("projectId", id),
			zap.Error(err),
		)
	}

	name, err = c.delegate.GetName(ctx, id)
	if err != nil {
		return "", err
	}

	if setErr := c.client.Set(ctx, key, name, c.ttl).Err(); setErr != nil {
		c.logger.Warn("project name cache write failed",
			zap.String("projectId", id),
			zap.Error(setErr),
		)
	}

	return name, nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("project:name:%s", id)
}
