// Package repository 定义文档存储的数据访问接口和聚合结构
// 具体实现位于 dao/mysql（GORM）和 dao/pebble（嵌入式 KV）
package repository

import (
	"context"
	"time"

	"github.com/NanduBolleddu/Revu/internal/model"
)

// PresenceRepository 在线状态数据访问接口
type PresenceRepository interface {
	// Upsert 按 user_id 覆盖写入在线状态
	Upsert(ctx context.Context, status *model.UserStatus) error
	// SetOffline 标记离线并清空连接句柄
	SetOffline(ctx context.Context, userId string, at time.Time) error
	// MarkAllOffline 将所有在线记录标记为离线，返回影响条数
	MarkAllOffline(ctx context.Context, at time.Time) (int64, error)
	// FindByUserId 查找单个用户，不存在返回 CodeNotFound
	FindByUserId(ctx context.Context, userId string) (*model.UserStatus, error)
	// FindByUserIds 批量查找，缺失的用户不会出现在结果中
	FindByUserIds(ctx context.Context, userIds []string) ([]model.UserStatus, error)
	// FindAllExcept 返回除指定用户外的所有记录，按昵称升序
	FindAllExcept(ctx context.Context, excludeUserId string) ([]model.UserStatus, error)
	// SearchByUsername 昵称包含 query（不区分大小写），按昵称升序，最多 limit 条
	SearchByUsername(ctx context.Context, query, excludeUserId string, limit int) ([]model.UserStatus, error)
}

// ThreadRepository 私聊会话数据访问接口
type ThreadRepository interface {
	// FindByPairKey 根据参与者对查找会话，不存在返回 CodeNotFound
	FindByPairKey(ctx context.Context, pairKey string) (*model.Chat, error)
	// FindByUuid 根据会话 id 查找，不存在返回 CodeNotFound
	FindByUuid(ctx context.Context, chatId string) (*model.Chat, error)
	// Create 创建会话，pair_key 冲突时返回 CodeConflict
	Create(ctx context.Context, chat *model.Chat) error
	// UpdateLastMessage 覆盖最近消息缓存并将 updated_at 设为 updatedAt
	UpdateLastMessage(ctx context.Context, chatId string, last model.LastMessage, updatedAt time.Time) error
	// FindByUserId 返回包含该用户的所有会话，按 updated_at 降序
	FindByUserId(ctx context.Context, userId string) ([]model.Chat, error)
}

// MessageRepository 私聊消息数据访问接口
type MessageRepository interface {
	// Create 追加一条消息
	Create(ctx context.Context, message *model.ChatMessage) error
	// CountByChatId 统计会话消息总数
	CountByChatId(ctx context.Context, chatId string) (int64, error)
	// FindPageByChatId 按创建时间从新到旧返回 [offset, offset+limit) 区间，包含已读列表
	FindPageByChatId(ctx context.Context, chatId string, offset, limit int) ([]model.ChatMessage, error)
	// MarkRead 为会话中发给 readerId 且未读的消息追加已读记录，返回新增条数
	MarkRead(ctx context.Context, chatId, readerId string, at time.Time) (int64, error)
}

// Repositories 聚合所有 Repository 实例
type Repositories struct {
	Presence PresenceRepository
	Thread   ThreadRepository
	Message  MessageRepository

	// Ping 存储健康检查
	Ping func(ctx context.Context) error
	// Close 释放底层连接
	Close func() error
}
