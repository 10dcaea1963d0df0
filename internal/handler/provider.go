// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"github.com/NanduBolleddu/Revu/internal/gateway/websocket"
	"github.com/NanduBolleddu/Revu/internal/service"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	PrivateChat *PrivateChatHandler
	Ws          *WsHandler
	Health      *HealthHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *service.Services, gateway *websocket.Gateway, health *HealthHandler) *Handlers {
	return &Handlers{
		PrivateChat: NewPrivateChatHandler(svc.Presence, svc.Thread, svc.Message),
		Ws:          NewWsHandler(gateway),
		Health:      health,
	}
}
