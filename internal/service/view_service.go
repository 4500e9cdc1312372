package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"skillforge_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	viewKeyPrefix         = "view:"
	ViewInvalidateChannel = "views:invalidate"
)

// ViewInvalidator 通知展示层丢弃指定路径的缓存。只尽力而为，错误只记日志。
type ViewInvalidator interface {
	Invalidate(ctx context.Context, paths ...string)
}

// ViewCache 渲染结果缓存（目前只有公开作品集使用）
type ViewCache interface {
	Get(ctx context.Context, path string, out any) bool
	Set(ctx context.Context, path string, v any)
}

// RedisViewStore 基于 redis 的视图缓存：失效时删除 key 并在频道上广播路径
type RedisViewStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisViewStore(client *redis.Client, ttl time.Duration) *RedisViewStore {
	return &RedisViewStore{Client: client, TTL: ttl}
}

func (s *RedisViewStore) Invalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = viewKeyPrefix + p
	}

	// 请求可能已结束，失效通知不随之取消
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	pipe := s.Client.Pipeline()
	pipe.Del(ctx, keys...)
	for _, p := range paths {
		pipe.Publish(ctx, ViewInvalidateChannel, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("View invalidation failed", zap.Strings("paths", paths), zap.Error(err))
	}
}

func (s *RedisViewStore) Get(ctx context.Context, path string, out any) bool {
	data, err := s.Client.Get(ctx, viewKeyPrefix+path).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("View cache read failed", zap.String("path", path), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	return true
}

func (s *RedisViewStore) Set(ctx context.Context, path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Client.Set(ctx, viewKeyPrefix+path, data, s.TTL).Err(); err != nil {
		logger.Log.Warn("View cache write failed", zap.String("path", path), zap.Error(err))
	}
}

// NoopViews 未配置 redis 时使用
type NoopViews struct{}

func (NoopViews) Invalidate(context.Context, ...string) {}

func (NoopViews) Get(context.Context, string, any) bool { return false }

func (NoopViews) Set(context.Context, string, any) {}
