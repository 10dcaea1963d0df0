// Package router 提供 HTTP 路由注册
// 本文件定义私聊查询路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterPrivateChatRoutes 注册私聊查询路由
func (rt *Router) RegisterPrivateChatRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.PrivateChat
	rg.GET("/chats/:userId", h.GetChats)                  // 会话列表
	rg.GET("/messages/:chatId", h.GetMessages)            // 消息分页
	rg.GET("/users/:currentUserId", h.ListUsers)          // 全部用户
	rg.GET("/users/search/:currentUserId", h.SearchUsers) // 搜索用户
}
