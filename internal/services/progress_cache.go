package services

import (
  "context"
  "fmt"
  "strconv"
  "time"

  "github.com/google/uuid"
  "github.com/redis/go-redis/v9"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
)

const progressCacheTTL = 10 * time.Minute

// ProgressCache keeps computed pathway percentages in redis so read
// traffic does not recount step rows. Every method is safe on a nil
// receiver; the service runs without redis configured.
type ProgressCache struct {
  rdb *redis.Client
  log *logger.Logger
}

func NewProgressCache(addr, password string, db int, baseLog *logger.Logger) *ProgressCache {
  if addr == "" {
    return nil
  }
  rdb := redis.NewClient(&redis.Options{
    Addr:     addr,
    Password: password,
    DB:       db,
  })
  return &ProgressCache{rdb: rdb, log: baseLog.With("service", "ProgressCache")}
}

func progressCacheKey(pathwayID, userID, groupID uuid.UUID) string {
  return fmt.Sprintf("pathway_progress:%s:%s:%s", pathwayID, userID, groupID)
}

func (c *ProgressCache) GetPercentage(ctx context.Context, pathwayID, userID, groupID uuid.UUID) (int, bool) {
  if c == nil || c.rdb == nil {
    return 0, false
  }
  val, err := c.rdb.Get(ctx, progressCacheKey(pathwayID, userID, groupID)).Result()
  if err != nil {
    if err != redis.Nil {
      c.log.Debug("progress cache read failed", "error", err)
    }
    return 0, false
  }
  pct, err := strconv.Atoi(val)
  if err != nil {
    return 0, false
  }
  return pct, true
}

func (c *ProgressCache) SetPercentage(ctx context.Context, pathwayID, userID, groupID uuid.UUID, pct int) {
  if c == nil || c.rdb == nil {
    return
  }
  if err := c.rdb.Set(ctx, progressCacheKey(pathwayID, userID, groupID), strconv.Itoa(pct), progressCacheTTL).Err(); err != nil {
    c.log.Debug("progress cache write failed", "error", err)
  }
}

func (c *ProgressCache) Invalidate(ctx context.Context, pathwayID, userID, groupID uuid.UUID) {
  if c == nil || c.rdb == nil {
    return
  }
  if err := c.rdb.Del(ctx, progressCacheKey(pathwayID, userID, groupID)).Err(); err != nil {
    c.log.Debug("progress cache invalidate failed", "error", err)
  }
}
