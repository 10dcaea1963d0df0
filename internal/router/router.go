// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/NanduBolleddu/Revu/internal/handler"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.RegisterSystemRoutes(r)                             // 服务信息、健康检查、指标
	rt.RegisterPrivateChatRoutes(r.Group("/private-chat")) // 私聊查询
	rt.RegisterWebSocketRoutes(&r.RouterGroup)             // 实时连接
}
