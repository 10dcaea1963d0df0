package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache Redis 缓存实现，内置固定大小的 Worker Pool
type RedisCache struct {
	client   *redis.Client
	taskChan chan func()
	wg       sync.WaitGroup
	once     sync.Once
}

// NewRedisCache 创建 Redis 缓存实例并启动 workerNum 个 Worker
func NewRedisCache(client *redis.Client, workerNum, taskChanSize int) *RedisCache {
	rc := &RedisCache{
		client:   client,
		taskChan: make(chan func(), taskChanSize),
	}
	for i := 0; i < workerNum; i++ {
		rc.wg.Add(1)
		go rc.startWorker()
	}
	zap.L().Info("Redis Cache Workers started", zap.Int("workers", workerNum), zap.Int("buffer", taskChanSize))
	return rc
}

// startWorker 单个 Worker 消费循环，panic 后自动重启
func (r *RedisCache) startWorker() {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("Redis Worker panic", zap.Any("recover", rec))
			go r.startWorker()
			return
		}
		r.wg.Done()
	}()

	for task := range r.taskChan {
		if task != nil {
			task()
		}
	}
}

// Set 设置键值对并指定过期时间
func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

// Get 获取键对应的值（键不存在返回空字符串和 nil）
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

// Delete 删除键，使用 UNLINK 异步释放
func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink keys %v", keys)
	}
	return nil
}

// DeleteByPattern 以 SCAN 分批删除匹配模式的所有键
func (r *RedisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return errorx.Wrapf(err, errorx.CodeCacheError, "redis scan pattern %s", pattern)
		}
		if len(keys) > 0 {
			if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
				return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink keys with pattern %s", pattern)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping 健康检查
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errorx.Wrap(err, errorx.CodeCacheError, "redis ping")
	}
	return nil
}

// SubmitTask 提交异步缓存任务，通道满时降级为同步执行
func (r *RedisCache) SubmitTask(action func()) {
	select {
	case r.taskChan <- action:
	default:
		zap.L().Warn("Redis cache task channel full, executing synchronously")
		action()
	}
}

// Close 停止 Worker 并关闭客户端，排队中的任务会被执行完
func (r *RedisCache) Close() error {
	var err error
	r.once.Do(func() {
		close(r.taskChan)
		r.wg.Wait()
		err = r.client.Close()
	})
	return err
}

var _ AsyncCacheService = (*RedisCache)(nil)
