package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Participant 会话参与者快照
type Participant struct {
	UserId   string    `gorm:"column:user_id;index;type:varchar(64);not null" json:"userId"`
	Username string    `gorm:"column:username;type:varchar(100)" json:"username"`
	Avatar   string    `gorm:"column:avatar;type:varchar(255)" json:"avatar"`
	LastSeen time.Time `gorm:"column:last_seen" json:"lastSeen"`
}

// LastMessage 会话最近一条消息的冗余缓存
type LastMessage struct {
	SenderId    string     `gorm:"column:sender_id;type:varchar(64)" json:"senderId"`
	Text        string     `gorm:"column:text;type:TEXT" json:"text"`
	Timestamp   *time.Time `gorm:"column:timestamp" json:"timestamp"`
	MessageType string     `gorm:"column:message_type;type:varchar(16)" json:"messageType"`
}

// Chat 一对一私聊会话
// 对应数据库 chat 表，每个无序用户对至多一条（pair_key 唯一）
type Chat struct {
	Id   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:会话雪花ID" json:"id"`

	// PairKey 两个参与者 id 排序后带长度前缀连接，见 PairKey()
	PairKey string `gorm:"column:pair_key;uniqueIndex;type:varchar(160);not null;comment:参与者对" json:"pairKey"`

	ParticipantOne Participant `gorm:"embedded;embeddedPrefix:p1_" json:"participantOne"`
	ParticipantTwo Participant `gorm:"embedded;embeddedPrefix:p2_" json:"participantTwo"`
	LastMessage    LastMessage `gorm:"embedded;embeddedPrefix:last_" json:"lastMessage"`

	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;index" json:"updatedAt"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chat"
}

// PairKey 生成与顺序无关的参与者对键
// 格式为 "<len(较小id)>:<较小id>:<较大id>"，长度前缀保证 id 中含 ":" 时也不会冲突
func PairKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strconv.Itoa(len(ids[0])) + ":" + strings.Join(ids, ":")
}

// Participants 按创建顺序返回两个参与者
func (c *Chat) Participants() []Participant {
	return []Participant{c.ParticipantOne, c.ParticipantTwo}
}

// HasParticipant 判断用户是否属于该会话
func (c *Chat) HasParticipant(userId string) bool {
	return c.ParticipantOne.UserId == userId || c.ParticipantTwo.UserId == userId
}

// Other 返回相对 userId 的另一位参与者
func (c *Chat) Other(userId string) Participant {
	if c.ParticipantOne.UserId == userId {
		return c.ParticipantTwo
	}
	return c.ParticipantOne
}
