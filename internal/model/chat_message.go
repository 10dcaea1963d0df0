package model

import "time"

// ChatMessage 私聊消息
// 对应数据库 chat_message 表，创建后只允许追加已读记录
type ChatMessage struct {
	Id   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:消息雪花ID" json:"id"`

	ChatId         string `gorm:"column:chat_id;index:idx_chat_created;type:char(20);not null;comment:会话uuid" json:"chatId"`
	SenderId       string `gorm:"column:sender_id;type:varchar(64);not null" json:"senderId"`
	SenderUsername string `gorm:"column:sender_username;type:varchar(100)" json:"senderUsername"`
	ReceiverId     string `gorm:"column:receiver_id;index;type:varchar(64);not null" json:"receiverId"`

	Message     string `gorm:"column:message;type:varchar(1000);not null" json:"message"`
	MessageType string `gorm:"column:message_type;type:varchar(16);not null;default:text;comment:text|system" json:"messageType"`

	ReadBy []ChatMessageRead `gorm:"foreignKey:MessageUuid;references:Uuid" json:"readBy"`

	CreatedAt time.Time `gorm:"column:created_at;index:idx_chat_created" json:"createdAt"`
}

// TableName 指定表名
func (ChatMessage) TableName() string {
	return "chat_message"
}

// ChatMessageRead 消息已读记录
// (message_uuid, user_id) 唯一，保证同一读者只出现一次
type ChatMessageRead struct {
	Id          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MessageUuid string    `gorm:"column:message_uuid;uniqueIndex:idx_message_reader;type:char(20);not null" json:"-"`
	ChatId      string    `gorm:"column:chat_id;index;type:char(20);not null" json:"-"`
	UserId      string    `gorm:"column:user_id;uniqueIndex:idx_message_reader;type:varchar(64);not null" json:"userId"`
	ReadAt      time.Time `gorm:"column:read_at" json:"readAt"`
}

// TableName 指定表名
func (ChatMessageRead) TableName() string {
	return "chat_message_read"
}

// ReadByUser 判断消息是否已被 userId 读过
func (m *ChatMessage) ReadByUser(userId string) bool {
	for _, r := range m.ReadBy {
		if r.UserId == userId {
			return true
		}
	}
	return false
}
