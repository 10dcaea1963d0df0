// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接升级
package handler

import (
	"github.com/NanduBolleddu/Revu/internal/gateway/websocket"

	"github.com/gin-gonic/gin"
)

// WsHandler websocket 入口
type WsHandler struct {
	gateway *websocket.Gateway
}

func NewWsHandler(gateway *websocket.Gateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// Connect 升级为 websocket 连接
// GET /ws
// 身份在连接建立后通过 join_private_chat 事件提交
func (h *WsHandler) Connect(c *gin.Context) {
	h.gateway.ServeWS(c)
}
