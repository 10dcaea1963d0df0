package request

// 实时事件负载，由 validate 标签在分发前校验

// JoinPrivateChatRequest join_private_chat
type JoinPrivateChatRequest struct {
	UserId   string `json:"userId" validate:"required,max=64"`
	Username string `json:"username" validate:"required,max=100"`
	Avatar   string `json:"avatar" validate:"max=255"`
}

// SendPrivateMessageRequest send_private_message
// Message 的空/超长校验由消息存储负责，以便返回具体原因
type SendPrivateMessageRequest struct {
	SenderId       string `json:"senderId" validate:"required,max=64"`
	SenderUsername string `json:"senderUsername" validate:"required,max=100"`
	ReceiverId     string `json:"receiverId" validate:"required,max=64,nefield=SenderId"`
	Message        string `json:"message"`
	Avatar         string `json:"avatar" validate:"max=255"`
}

// TypingRequest typing_start / typing_stop
type TypingRequest struct {
	SenderId       string `json:"senderId" validate:"required"`
	ReceiverId     string `json:"receiverId" validate:"required"`
	SenderUsername string `json:"senderUsername"`
}

// MarkMessagesReadRequest mark_messages_read
type MarkMessagesReadRequest struct {
	ChatId string `json:"chatId" validate:"required"`
	UserId string `json:"userId" validate:"required"`
}

// MediaCommentRequest new-comment
type MediaCommentRequest struct {
	MediaId string `json:"mediaId" validate:"required"`
	Comment any    `json:"comment"`
}

// MediaAnnotationRequest new-annotation
type MediaAnnotationRequest struct {
	MediaId    string `json:"mediaId" validate:"required"`
	Annotation any    `json:"annotation"`
}
