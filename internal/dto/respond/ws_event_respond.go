package respond

import "time"

// NoticeRespond join_success / join_error / message_error / event_error
type NoticeRespond struct {
	Message string `json:"message"`
}

// PrivateMessageRespond new_private_message
type PrivateMessageRespond struct {
	Id             string    `json:"id"`
	ChatId         string    `json:"chatId"`
	SenderId       string    `json:"senderId"`
	SenderUsername string    `json:"senderUsername"`
	ReceiverId     string    `json:"receiverId"`
	Message        string    `json:"message"`
	MessageType    string    `json:"messageType"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserTypingRespond user_typing
type UserTypingRespond struct {
	SenderId       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	IsTyping       bool   `json:"isTyping"`
}

// MessagesReadRespond messages_read
type MessagesReadRespond struct {
	ChatId string `json:"chatId"`
	ReadBy string `json:"readBy"`
}

// UserStatusUpdateRespond user_status_update
type UserStatusUpdateRespond struct {
	UserId   string    `json:"userId"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}
