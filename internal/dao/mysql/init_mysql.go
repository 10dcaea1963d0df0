// Package mysql 提供文档存储的 GORM/MySQL 实现
// 负责建立连接、自动迁移表结构、构造 Repository 聚合
package mysql

import (
	"context"
	"fmt"

	"github.com/NanduBolleddu/Revu/internal/config"
	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/model"

	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 建立 MySQL 连接
// TranslateError 打开后唯一索引冲突会被转换为 gorm.ErrDuplicatedKey
func Open(cfg *config.MysqlConfig) (*gorm.DB, error) {
	// 格式：user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DatabaseName,
	)
	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

// Migrate 自动迁移聊天相关表结构
// 不会删除已有字段或数据
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UserStatus{},      // 在线状态表
		&model.Chat{},            // 私聊会话表
		&model.ChatMessage{},     // 私聊消息表
		&model.ChatMessageRead{}, // 消息已读表
	)
}

// NewRepositories 基于 GORM 实例构造 Repository 聚合
func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Presence: NewPresenceRepository(db),
		Thread:   NewThreadRepository(db),
		Message:  NewMessageRepository(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return wrapDBError(err, "获取连接池")
			}
			return wrapDBError(sqlDB.PingContext(ctx), "ping mysql")
		},
		Close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}
