package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/models"
)

// statusCacheTTL keeps cached status entries just under the client poll
// interval so pollers never see a stale terminal transition for long
const statusCacheTTL = 2 * time.Second

// statusCache is a redis read-through cache for lesson status payloads.
// Status polling is by far the hottest read path while a lesson processes,
// so it is served from redis instead of hitting MySQL on every tick.
type statusCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewStatusCache creates a new redis-backed status cache
func NewStatusCache(rdb *redis.Client, logger *zap.Logger) *statusCache {
	return &statusCache{
		rdb:    rdb,
		logger: logger,
	}
}

// statusKey includes the owner so a cached entry can never be served to
// another user polling the same lesson ID
func statusKey(ownerID, lessonID string) string {
	return fmt.Sprintf("lesson:status:%s:%s", ownerID, lessonID)
}

// Get returns the cached status payload, or nil on a miss
func (c *statusCache) Get(ctx context.Context, ownerID, lessonID string) (*models.LessonStatusResponse, error) {
	raw, err := c.rdb.Get(ctx, statusKey(ownerID, lessonID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status cache: %w", err)
	}

	var status models.LessonStatusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("failed to decode cached status: %w", err)
	}
	return &status, nil
}

// Set stores a status payload with the cache TTL
func (c *statusCache) Set(ctx context.Context, ownerID, lessonID string, status *models.LessonStatusResponse) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode status for cache: %w", err)
	}

	if err := c.rdb.Set(ctx, statusKey(ownerID, lessonID), raw, statusCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to write status cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry so the next poll reads fresh state.
// Called when an upload or retry changes the status outside the pipeline.
func (c *statusCache) Invalidate(ctx context.Context, ownerID, lessonID string) {
	if err := c.rdb.Del(ctx, statusKey(ownerID, lessonID)).Err(); err != nil {
		c.logger.Warn("failed to invalidate status cache", zap.Error(err), zap.String("lesson_id", lessonID))
	}
}
