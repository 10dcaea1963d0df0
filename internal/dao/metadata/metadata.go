// Package metadata 连接关系型元数据库（用户/组织/媒体），聊天核心只用于健康检查
package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/NanduBolleddu/Revu/internal/config"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client 元数据库探活
type Client struct {
	pool *pgxpool.Pool
}

// Open 建立连接池，DSN 为空时返回 nil, nil
func Open(ctx context.Context, cfg *config.PostgresConfig) (*Client, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Client{pool: pool}, nil
}

// Now 执行 SELECT NOW()，返回数据库时间
func (p *Client) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := p.pool.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return time.Time{}, errorx.Wrap(err, errorx.CodeDBError, "postgres select now")
	}
	return now, nil
}

// Close 关闭连接池
func (p *Client) Close() {
	p.pool.Close()
}
