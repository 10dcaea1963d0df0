package respond

import (
	"time"

	"github.com/NanduBolleddu/Revu/internal/model"
)

// OtherParticipant 会话对端及其实时在线状态
type OtherParticipant struct {
	UserId   string    `json:"userId"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	LastSeen time.Time `json:"lastSeen"`
	IsOnline bool      `json:"isOnline"`
}

// ChatListItem 会话列表项
type ChatListItem struct {
	Id               string              `json:"id"`
	Participants     []model.Participant `json:"participants"`
	LastMessage      model.LastMessage   `json:"lastMessage"`
	OtherParticipant OtherParticipant    `json:"otherParticipant"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// MessagePage 消息分页结果，Messages 按时间正序
type MessagePage struct {
	Messages      []model.ChatMessage `json:"messages"`
	HasMore       bool                `json:"hasMore"`
	TotalMessages int64               `json:"totalMessages"`
	CurrentPage   int                 `json:"currentPage"`
}

// UserStatusRespond 用户列表/搜索结果项
type UserStatusRespond struct {
	UserId   string    `json:"userId"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

// NewUserStatusRespond 去掉连接句柄等内部字段
func NewUserStatusRespond(s model.UserStatus) UserStatusRespond {
	return UserStatusRespond{
		UserId:   s.UserId,
		Username: s.Username,
		Avatar:   s.Avatar,
		IsOnline: s.IsOnline,
		LastSeen: s.LastSeen,
	}
}

// NewUserStatusList 批量转换
func NewUserStatusList(statuses []model.UserStatus) []UserStatusRespond {
	out := make([]UserStatusRespond, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, NewUserStatusRespond(s))
	}
	return out
}
