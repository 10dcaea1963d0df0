package router

import (
	"github.com/NanduBolleddu/Revu/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// RegisterSystemRoutes 注册服务信息、健康检查和指标路由
func (rt *Router) RegisterSystemRoutes(r *gin.Engine) {
	r.GET("/", rt.handlers.Health.Banner)
	r.GET("/health", rt.handlers.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
