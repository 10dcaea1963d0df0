// Package handler 提供 HTTP 请求处理器
// 本文件处理私聊相关的非实时查询
package handler

import (
	"github.com/NanduBolleddu/Revu/internal/dto/request"
	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/service"
	"github.com/NanduBolleddu/Revu/pkg/constants"

	"github.com/gin-gonic/gin"
)

// PrivateChatHandler 私聊查询处理器
type PrivateChatHandler struct {
	presence service.PresenceService
	threads  service.ThreadService
	messages service.MessageService
}

func NewPrivateChatHandler(presence service.PresenceService, threads service.ThreadService, messages service.MessageService) *PrivateChatHandler {
	return &PrivateChatHandler{presence: presence, threads: threads, messages: messages}
}

// GetChats 用户的会话列表
// GET /private-chat/chats/:userId
func (h *PrivateChatHandler) GetChats(c *gin.Context) {
	var uri request.UserIdUri
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	items, err := h.threads.ListForUser(c.Request.Context(), uri.UserId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, items)
}

// GetMessages 会话消息分页
// GET /private-chat/messages/:chatId?page=1&limit=50
func (h *PrivateChatHandler) GetMessages(c *gin.Context) {
	var uri request.ChatIdUri
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	req := request.GetMessagesRequest{Page: constants.DEFAULT_PAGE, Limit: constants.DEFAULT_PAGE_SIZE}
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	page, err := h.messages.Page(c.Request.Context(), uri.ChatId, req.Page, req.Limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, page)
}

// ListUsers 除当前用户外的全部用户
// GET /private-chat/users/:currentUserId
func (h *PrivateChatHandler) ListUsers(c *gin.Context) {
	var uri request.CurrentUserUri
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	users, err := h.presence.ListUsers(c.Request.Context(), uri.CurrentUserId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewUserStatusList(users))
}

// SearchUsers 按昵称搜索用户
// GET /private-chat/users/search/:currentUserId?q=
func (h *PrivateChatHandler) SearchUsers(c *gin.Context) {
	var uri request.CurrentUserUri
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	var req request.SearchUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	users, err := h.presence.Search(c.Request.Context(), req.Q, uri.CurrentUserId, constants.SEARCH_MAX_RESULTS)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewUserStatusList(users))
}
