// Package message 实现私聊消息存储
package message

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/pkg/constants"
	"github.com/NanduBolleddu/Revu/pkg/errorx"
	"github.com/NanduBolleddu/Revu/pkg/util/snowflake"
)

// Service 消息存储
type Service struct {
	repo repository.MessageRepository
	now  func() time.Time
}

func NewService(repo repository.MessageRepository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// ValidateBody 去掉首尾空白后校验消息内容
// 长度按字符计算
func ValidateBody(body string) (string, error) {
	text := strings.TrimSpace(body)
	if text == "" {
		return "", errorx.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > constants.MESSAGE_MAX_LENGTH {
		return "", errorx.ErrMessageTooLong
	}
	return text, nil
}

// Append 校验并追加一条消息，返回落库后的记录
func (s *Service) Append(ctx context.Context, chatId, senderId, senderUsername, receiverId, body, kind string) (*model.ChatMessage, error) {
	text, err := ValidateBody(body)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = constants.MessageTypeText
	}
	message := &model.ChatMessage{
		Uuid:           snowflake.GenerateIDString(),
		ChatId:         chatId,
		SenderId:       senderId,
		SenderUsername: senderUsername,
		ReceiverId:     receiverId,
		Message:        text,
		MessageType:    kind,
		ReadBy:         []model.ChatMessageRead{},
		CreatedAt:      s.now(),
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// Page 分页读取会话消息
// 第 page 页取从新到旧的第 (page-1)*size 条开始的 size 条，返回时按时间正序
func (s *Service) Page(ctx context.Context, chatId string, page, size int) (*respond.MessagePage, error) {
	if page < 1 {
		page = constants.DEFAULT_PAGE
	}
	if page > constants.MAX_PAGE {
		page = constants.MAX_PAGE
	}
	if size < 1 {
		size = constants.DEFAULT_PAGE_SIZE
	}
	if size > constants.MAX_PAGE_SIZE {
		size = constants.MAX_PAGE_SIZE
	}
	offset := (page - 1) * size

	total, err := s.repo.CountByChatId(ctx, chatId)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.FindPageByChatId(ctx, chatId, offset, size)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	for i := range messages {
		if messages[i].ReadBy == nil {
			messages[i].ReadBy = []model.ChatMessageRead{}
		}
	}

	return &respond.MessagePage{
		Messages:      messages,
		HasMore:       int64(offset+len(messages)) < total,
		TotalMessages: total,
		CurrentPage:   page,
	}, nil
}

// MarkRead 将会话中发给 readerId 的未读消息标记为已读，重复调用无副作用
func (s *Service) MarkRead(ctx context.Context, chatId, readerId string) (int64, error) {
	if chatId == "" || readerId == "" {
		return 0, errorx.ErrInvalidParam
	}
	return s.repo.MarkRead(ctx, chatId, readerId, s.now())
}
