// Package model 定义文档存储实体模型
// 本文件定义在线状态模型，每个已知用户一条记录
package model

import "time"

// UserStatus 用户在线状态
// 对应数据库 user_status 表，按 user_id 软覆盖（upsert）
type UserStatus struct {
	Id uint `gorm:"column:id;primaryKey" json:"-"`

	// UserId 外部身份系统下发的稳定用户标识
	UserId string `gorm:"column:user_id;uniqueIndex;type:varchar(64);not null;comment:用户id" json:"userId"`

	Username string `gorm:"column:username;index;type:varchar(100);not null;comment:昵称" json:"username"`
	Avatar   string `gorm:"column:avatar;type:varchar(255);comment:头像" json:"avatar"`

	IsOnline bool      `gorm:"column:is_online;not null;default:false;comment:是否在线" json:"isOnline"`
	LastSeen time.Time `gorm:"column:last_seen;comment:最后在线时间" json:"lastSeen"`

	// SocketId 当前连接句柄，离线时为空
	SocketId string `gorm:"column:socket_id;type:varchar(64);comment:连接句柄" json:"socketId,omitempty"`

	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 指定表名
func (UserStatus) TableName() string {
	return "user_status"
}
