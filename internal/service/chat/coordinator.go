// Package chat 实现私聊实时会话层
// coordinator.go
// 核心职责：按连接维护 disconnected -> joined -> disconnected 状态机
// 1. 解析并校验入站事件
// 2. 编排在线状态、会话、消息三个存储
// 3. 通过 Broker 把结果投递给相关连接
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/NanduBolleddu/Revu/internal/dto/request"
	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/infrastructure/metrics"
	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/internal/service"
	"github.com/NanduBolleddu/Revu/internal/service/message"
	"github.com/NanduBolleddu/Revu/pkg/constants"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// 回复给客户端的原因文本
const (
	reasonJoinSuccess    = "Successfully joined private chat"
	reasonJoinFailed     = "Failed to join private chat"
	reasonSendFailed     = "Failed to send message"
	reasonNotJoined      = "Join private chat before sending messages"
	reasonSenderMismatch = "Sender does not match joined user"
	reasonUnknownEvent   = "Unknown event"
)

// Coordinator 实时会话协调器
type Coordinator struct {
	presence service.PresenceService
	threads  service.ThreadService
	messages service.MessageService
	broker   Broker
	validate *validator.Validate

	mu       sync.RWMutex
	sessions map[string]string // connId -> 已加入的 userId
}

func NewCoordinator(presence service.PresenceService, threads service.ThreadService, messages service.MessageService, broker Broker) *Coordinator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Coordinator{
		presence: presence,
		threads:  threads,
		messages: messages,
		broker:   broker,
		validate: v,
		sessions: make(map[string]string),
	}
}

// Connect 新连接建立
func (c *Coordinator) Connect(conn Conn) {
	c.broker.Register(conn)
	metrics.WsConnections.Inc()
}

// Disconnect 连接断开，已加入的用户标记为离线
// 未加入过的连接静默处理
func (c *Coordinator) Disconnect(ctx context.Context, conn Conn) {
	c.mu.Lock()
	userId, joined := c.sessions[conn.ID()]
	delete(c.sessions, conn.ID())
	c.mu.Unlock()

	c.broker.Remove(conn)
	metrics.WsConnections.Dec()
	if !joined {
		return
	}
	if _, err := c.presence.Leave(ctx, conn.ID()); err != nil {
		zap.L().Error("断开连接时标记离线失败", zap.String("user_id", userId), zap.Error(err))
	}
}

// SessionOf 连接当前加入的用户
func (c *Coordinator) SessionOf(connId string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	userId, ok := c.sessions[connId]
	return userId, ok
}

// Handle 分发一个入站帧
func (c *Coordinator) Handle(ctx context.Context, conn Conn, raw []byte) {
	ev, err := DecodeEvent(raw)
	if err != nil {
		zap.L().Warn("无法解析的实时事件", zap.String("conn", conn.ID()), zap.Error(err))
		c.fail(conn, "malformed", EventError, errorx.ErrMalformedEvent.Msg)
		return
	}

	switch ev.Name {
	case EventJoinPrivateChat:
		c.join(ctx, conn, ev.Data)
	case EventSendPrivateMessage:
		c.sendMessage(ctx, conn, ev.Data)
	case EventTypingStart:
		c.typing(ctx, conn, ev.Name, ev.Data, true)
	case EventTypingStop:
		c.typing(ctx, conn, ev.Name, ev.Data, false)
	case EventMarkMessagesRead:
		c.markRead(ctx, conn, ev.Data)
	case EventJoinMedia:
		c.joinMedia(conn, ev.Data)
	case EventNewComment, EventNewAnnotation:
		c.relayMedia(ctx, conn, ev)
	default:
		c.fail(conn, "unknown", EventError, reasonUnknownEvent+": "+ev.Name)
	}
}

func (c *Coordinator) join(ctx context.Context, conn Conn, data json.RawMessage) {
	var req request.JoinPrivateChatRequest
	if err := c.decode(data, &req); err != nil {
		c.failWith(conn, EventJoinPrivateChat, EventJoinError, err)
		return
	}

	prev, hadPrev := c.SessionOf(conn.ID())
	if _, err := c.presence.Join(ctx, req.UserId, req.Username, req.Avatar, conn.ID()); err != nil {
		zap.L().Error("加入私聊失败", zap.String("user_id", req.UserId), zap.Error(err))
		c.fail(conn, EventJoinPrivateChat, EventJoinError, reasonJoinFailed)
		return
	}
	if hadPrev && prev != req.UserId {
		c.broker.Unsubscribe(prev, conn)
	}
	c.mu.Lock()
	c.sessions[conn.ID()] = req.UserId
	c.mu.Unlock()
	c.broker.Subscribe(req.UserId, conn)

	c.reply(conn, EventJoinSuccess, respond.NoticeRespond{Message: reasonJoinSuccess})
}

func (c *Coordinator) sendMessage(ctx context.Context, conn Conn, data json.RawMessage) {
	var req request.SendPrivateMessageRequest
	if err := c.decode(data, &req); err != nil {
		c.failWith(conn, EventSendPrivateMessage, EventMessageError, err)
		return
	}
	userId, joined := c.SessionOf(conn.ID())
	if !joined {
		c.fail(conn, EventSendPrivateMessage, EventMessageError, reasonNotJoined)
		return
	}
	if userId != req.SenderId {
		c.fail(conn, EventSendPrivateMessage, EventMessageError, reasonSenderMismatch)
		return
	}
	text, err := message.ValidateBody(req.Message)
	if err != nil {
		c.failWith(conn, EventSendPrivateMessage, EventMessageError, err)
		return
	}

	receiver, err := c.presence.Lookup(ctx, req.ReceiverId)
	if err != nil {
		if errorx.IsNotFound(err) {
			c.failWith(conn, EventSendPrivateMessage, EventMessageError, errorx.ErrReceiverMissing)
			return
		}
		c.sendFailed(conn, "查询接收者失败", err)
		return
	}

	sender := model.Participant{UserId: req.SenderId, Username: req.SenderUsername, Avatar: req.Avatar}
	other := model.Participant{UserId: receiver.UserId, Username: receiver.Username, Avatar: receiver.Avatar, LastSeen: receiver.LastSeen}
	chat, err := c.threads.FindOrCreate(ctx, sender, other)
	if err != nil {
		c.sendFailed(conn, "查找或创建会话失败", err)
		return
	}
	msg, err := c.messages.Append(ctx, chat.Uuid, req.SenderId, req.SenderUsername, req.ReceiverId, text, constants.MessageTypeText)
	if err != nil {
		c.sendFailed(conn, "保存消息失败", err)
		return
	}
	if err := c.threads.UpdateLastMessage(ctx, chat.Uuid, msg.SenderId, msg.Message, msg.CreatedAt, msg.MessageType); err != nil {
		c.sendFailed(conn, "更新最近消息失败", err)
		return
	}
	metrics.ChatMessages.Inc()

	ev, err := NewEvent(EventNewPrivateMessage, respond.PrivateMessageRespond{
		Id:             msg.Uuid,
		ChatId:         msg.ChatId,
		SenderId:       msg.SenderId,
		SenderUsername: msg.SenderUsername,
		ReceiverId:     msg.ReceiverId,
		Message:        msg.Message,
		MessageType:    msg.MessageType,
		CreatedAt:      msg.CreatedAt,
	})
	if err != nil {
		c.sendFailed(conn, "编码消息失败", err)
		return
	}
	if err := conn.Send(ev); err != nil {
		zap.L().Warn("回传消息给发送方失败", zap.String("conn", conn.ID()), zap.Error(err))
	}
	if err := c.broker.PublishToUser(ctx, msg.ReceiverId, ev, conn.ID()); err != nil {
		zap.L().Error("投递消息给接收方失败", zap.String("receiver_id", msg.ReceiverId), zap.Error(err))
		metrics.ChatEventErrors.WithLabelValues(EventSendPrivateMessage).Inc()
	}

	// 会话列表推送失败只记录日志
	c.pushChatList(ctx, msg.SenderId, func(ev Event) error { return conn.Send(ev) })
	c.pushChatList(ctx, msg.ReceiverId, func(ev Event) error {
		return c.broker.PublishToUser(ctx, msg.ReceiverId, ev, conn.ID())
	})
}

func (c *Coordinator) pushChatList(ctx context.Context, userId string, deliver func(Event) error) {
	items, err := c.threads.ListForUser(ctx, userId)
	if err == nil {
		var ev Event
		if ev, err = NewEvent(EventChatListUpdate, items); err == nil {
			err = deliver(ev)
		}
	}
	if err != nil {
		zap.L().Error("推送会话列表失败", zap.String("user_id", userId), zap.Error(err))
		metrics.ChatEventErrors.WithLabelValues(EventChatListUpdate).Inc()
	}
}

// typing 只做转发，不落库
func (c *Coordinator) typing(ctx context.Context, conn Conn, name string, data json.RawMessage, isTyping bool) {
	var req request.TypingRequest
	if err := c.decode(data, &req); err != nil {
		c.failWith(conn, name, EventError, err)
		return
	}
	ev, err := NewEvent(EventUserTyping, respond.UserTypingRespond{
		SenderId:       req.SenderId,
		SenderUsername: req.SenderUsername,
		IsTyping:       isTyping,
	})
	if err == nil {
		err = c.broker.PublishToUser(ctx, req.ReceiverId, ev, conn.ID())
	}
	if err != nil {
		zap.L().Warn("转发输入状态失败", zap.String("receiver_id", req.ReceiverId), zap.Error(err))
		metrics.ChatEventErrors.WithLabelValues(name).Inc()
	}
}

// markRead 失败只记录日志，不回复请求方
func (c *Coordinator) markRead(ctx context.Context, conn Conn, data json.RawMessage) {
	var req request.MarkMessagesReadRequest
	if err := c.decode(data, &req); err != nil {
		c.failWith(conn, EventMarkMessagesRead, EventError, err)
		return
	}
	logFail := func(msg string, err error) {
		zap.L().Error(msg, zap.String("chat_id", req.ChatId), zap.String("user_id", req.UserId), zap.Error(err))
		metrics.ChatEventErrors.WithLabelValues(EventMarkMessagesRead).Inc()
	}

	n, err := c.messages.MarkRead(ctx, req.ChatId, req.UserId)
	if err != nil {
		logFail("标记已读失败", err)
		return
	}
	chat, err := c.threads.Get(ctx, req.ChatId)
	if err != nil {
		logFail("读取会话失败", err)
		return
	}
	if !chat.HasParticipant(req.UserId) {
		logFail("读者不属于该会话", errorx.ErrInvalidParam)
		return
	}
	ev, err := NewEvent(EventMessagesRead, respond.MessagesReadRespond{ChatId: req.ChatId, ReadBy: req.UserId})
	if err == nil {
		err = c.broker.PublishToUser(ctx, chat.Other(req.UserId).UserId, ev, conn.ID())
	}
	if err != nil {
		logFail("通知已读失败", err)
		return
	}
	zap.L().Debug("消息已读", zap.String("chat_id", req.ChatId), zap.Int64("count", n))
}

func (c *Coordinator) joinMedia(conn Conn, data json.RawMessage) {
	var mediaId string
	if err := json.Unmarshal(data, &mediaId); err != nil || strings.TrimSpace(mediaId) == "" {
		c.fail(conn, EventJoinMedia, EventError, errorx.ErrMalformedEvent.Msg)
		return
	}
	c.broker.JoinRoom(mediaId, conn)
}

// relayMedia 评论与标注只在房间内转发，原样透传负载
func (c *Coordinator) relayMedia(ctx context.Context, conn Conn, ev Event) {
	var mediaId string
	var err error
	if ev.Name == EventNewComment {
		var req request.MediaCommentRequest
		err = c.decode(ev.Data, &req)
		mediaId = req.MediaId
	} else {
		var req request.MediaAnnotationRequest
		err = c.decode(ev.Data, &req)
		mediaId = req.MediaId
	}
	if err != nil {
		c.failWith(conn, ev.Name, EventError, err)
		return
	}
	if err := c.broker.PublishToRoom(ctx, mediaId, ev, conn.ID()); err != nil {
		zap.L().Warn("转发媒体事件失败", zap.String("media_id", mediaId), zap.String("event", ev.Name), zap.Error(err))
		metrics.ChatEventErrors.WithLabelValues(ev.Name).Inc()
	}
}

// decode 解析负载并按 validate 标签校验
func (c *Coordinator) decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errorx.ErrMalformedEvent
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errorx.Wrap(err, errorx.CodeMalformedEvent, errorx.ErrMalformedEvent.Msg)
	}
	if err := c.validate.Struct(v); err != nil {
		return errorx.Wrap(err, errorx.CodeMalformedEvent, errorx.ErrMalformedEvent.Msg)
	}
	return nil
}

func (c *Coordinator) sendFailed(conn Conn, msg string, err error) {
	zap.L().Error(msg, zap.String("conn", conn.ID()), zap.Error(err))
	c.fail(conn, EventSendPrivateMessage, EventMessageError, reasonSendFailed)
}

// failWith 业务错误取其消息作为原因，其他错误统一为通用原因
func (c *Coordinator) failWith(conn Conn, inbound, outbound string, err error) {
	var codeErr *errorx.CodeError
	reason := reasonSendFailed
	if outbound == EventJoinError {
		reason = reasonJoinFailed
	}
	if errors.As(err, &codeErr) {
		reason = codeErr.Msg
	}
	zap.L().Debug("拒绝实时事件", zap.String("event", inbound), zap.Error(err))
	c.fail(conn, inbound, outbound, reason)
}

func (c *Coordinator) fail(conn Conn, inbound, outbound, reason string) {
	metrics.ChatEventErrors.WithLabelValues(inbound).Inc()
	c.reply(conn, outbound, respond.NoticeRespond{Message: reason})
}

func (c *Coordinator) reply(conn Conn, name string, data any) {
	ev, err := NewEvent(name, data)
	if err != nil {
		zap.L().Error("编码回复失败", zap.String("event", name), zap.Error(err))
		return
	}
	if err := conn.Send(ev); err != nil {
		zap.L().Warn("回复连接失败", zap.String("conn", conn.ID()), zap.String("event", name), zap.Error(err))
	}
}
