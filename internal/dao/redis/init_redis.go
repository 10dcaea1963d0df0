// Package redis 提供缓存服务的 Redis 实现
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/NanduBolleddu/Revu/internal/config"
	"github.com/NanduBolleddu/Revu/pkg/constants"

	"github.com/redis/go-redis/v9"
)

// NewClient 根据配置创建 Redis 客户端并检测连通性
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Db,
		// 连接池配置
		PoolSize:     50,
		MinIdleConns: constants.CACHE_WORKER_NUM, // 与 Worker 数量匹配
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return client, nil
}
