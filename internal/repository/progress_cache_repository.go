package repository

import (
	"codepulse_backend/internal/util"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ProgressCacheRepository 连续天数与月度进度的 Redis 缓存。
// Redis 未启用时所有方法都是空操作，读取总是未命中。
type ProgressCacheRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewProgressCacheRepository(rdb *redis.Client, ttl time.Duration) *ProgressCacheRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProgressCacheRepository{Redis: rdb, TTL: ttl}
}

func (r *ProgressCacheRepository) enabled() bool {
	return r != nil && r.Redis != nil
}

func streakKey(userID uint) string {
	return fmt.Sprintf(util.CacheKeyStreak, userID)
}

func progressKey(userID uint, year, month int) string {
	return fmt.Sprintf(util.CacheKeyProgress, userID, year, month)
}

func (r *ProgressCacheRepository) GetStreak(ctx context.Context, userID uint, out interface{}) bool {
	return r.get(ctx, streakKey(userID), out)
}

func (r *ProgressCacheRepository) SetStreak(ctx context.Context, userID uint, v interface{}) {
	r.set(ctx, streakKey(userID), v)
}

func (r *ProgressCacheRepository) GetProgress(ctx context.Context, userID uint, year, month int, out interface{}) bool {
	return r.get(ctx, progressKey(userID, year, month), out)
}

func (r *ProgressCacheRepository) SetProgress(ctx context.Context, userID uint, year, month int, v interface{}) {
	r.set(ctx, progressKey(userID, year, month), v)
}

// Invalidate 清除用户的连续天数缓存以及 day 所在月份的进度缓存
func (r *ProgressCacheRepository) Invalidate(ctx context.Context, userID uint, day time.Time) error {
	if !r.enabled() {
		return nil
	}
	return r.Redis.Del(ctx, streakKey(userID), progressKey(userID, day.Year(), int(day.Month()))).Err()
}

func (r *ProgressCacheRepository) get(ctx context.Context, key string, out interface{}) bool {
	if !r.enabled() {
		return false
	}
	data, err := r.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (r *ProgressCacheRepository) set(ctx context.Context, key string, v interface{}) {
	if !r.enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	r.Redis.Set(ctx, key, data, r.TTL)
}
