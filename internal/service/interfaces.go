// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层和实时会话层调用
package service

import (
	"context"
	"time"

	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/model"
)

// PresenceService 在线状态业务接口
type PresenceService interface {
	// Join 用户携带连接句柄上线
	Join(ctx context.Context, userId, username, avatar, handle string) (*model.UserStatus, error)
	// Leave 按连接句柄下线，句柄未知时为空操作
	Leave(ctx context.Context, handle string) (*model.UserStatus, error)
	// Lookup 查找单个用户，不存在返回 CodeNotFound
	Lookup(ctx context.Context, userId string) (*model.UserStatus, error)
	// ListUsers 除 excludeUserId 外的全部用户
	ListUsers(ctx context.Context, excludeUserId string) ([]model.UserStatus, error)
	// Search 昵称搜索，查询不足 2 个字符时返回空列表
	Search(ctx context.Context, query, excludeUserId string, limit int) ([]model.UserStatus, error)
}

// ThreadService 私聊会话业务接口
type ThreadService interface {
	// FindOrCreate 查找或创建两人之间唯一的会话
	FindOrCreate(ctx context.Context, a, b model.Participant) (*model.Chat, error)
	// Get 按 id 读取会话
	Get(ctx context.Context, chatId string) (*model.Chat, error)
	// UpdateLastMessage 刷新最近消息缓存
	UpdateLastMessage(ctx context.Context, chatId, senderId, text string, ts time.Time, kind string) error
	// ListForUser 用户的会话列表，按更新时间倒序
	ListForUser(ctx context.Context, userId string) ([]respond.ChatListItem, error)
}

// MessageService 私聊消息业务接口
type MessageService interface {
	// Append 校验并追加消息
	Append(ctx context.Context, chatId, senderId, senderUsername, receiverId, body, kind string) (*model.ChatMessage, error)
	// Page 分页读取消息，结果按时间正序
	Page(ctx context.Context, chatId string, page, size int) (*respond.MessagePage, error)
	// MarkRead 标记发给 readerId 的未读消息为已读
	MarkRead(ctx context.Context, chatId, readerId string) (int64, error)
}
