// Package chat 实现私聊实时会话层
// event.go
// 核心职责：定义实时事件信封与事件名
package chat

import (
	"encoding/json"
	"fmt"
)

// 入站事件
const (
	EventJoinPrivateChat    = "join_private_chat"
	EventSendPrivateMessage = "send_private_message"
	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
	EventMarkMessagesRead   = "mark_messages_read"
	EventJoinMedia          = "join-media"
)

// 出站事件
const (
	EventJoinSuccess       = "join_success"
	EventJoinError         = "join_error"
	EventNewPrivateMessage = "new_private_message"
	EventMessageError      = "message_error"
	EventChatListUpdate    = "chat_list_update"
	EventUserTyping        = "user_typing"
	EventMessagesRead      = "messages_read"
	EventUserStatusUpdate  = "user_status_update"
	EventError             = "event_error"
)

// 媒体房间内双向转发的事件
const (
	EventNewComment    = "new-comment"
	EventNewAnnotation = "new-annotation"
)

// Event 每个 websocket 帧的 JSON 信封
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent 序列化 data 并封装为事件
func NewEvent(name string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s: %w", name, err)
	}
	return Event{Name: name, Data: raw}, nil
}

// DecodeEvent 解析入站帧
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	if ev.Name == "" {
		return Event{}, fmt.Errorf("missing event name")
	}
	return ev, nil
}
