// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	myredis "github.com/NanduBolleddu/Revu/internal/dao/redis"
	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/service/message"
	"github.com/NanduBolleddu/Revu/internal/service/presence"
	"github.com/NanduBolleddu/Revu/internal/service/thread"
)

// Services 聚合所有 Service 实例
type Services struct {
	// Registry 在线状态注册表，实时会话层需要其连接句柄能力
	Registry *presence.Registry

	Presence PresenceService
	Thread   ThreadService
	Message  MessageService
}

// NewServices 创建并注入所有 Service 实例
// cache 为 nil 时会话列表不走缓存
// 在线状态通知器由实时会话层创建后通过 Registry.SetNotifier 注入
func NewServices(repos *repository.Repositories, cache myredis.AsyncCacheService) *Services {
	registry := presence.NewRegistry(repos.Presence, nil)
	return &Services{
		Registry: registry,
		Presence: registry,
		Thread:   thread.NewService(repos.Thread, registry, cache),
		Message:  message.NewService(repos.Message),
	}
}
