package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck 单个依赖的探活函数
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler 服务信息与健康检查
type HealthHandler struct {
	appName string
	checks  []HealthCheck
}

func NewHealthHandler(appName string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{appName: appName, checks: checks}
}

// Banner GET /
func (h *HealthHandler) Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  h.appName + " API Server",
		"status":   "running",
		"features": []string{"private-chat", "presence", "media-rooms"},
	})
}

// Health GET /health
// 任一依赖失败时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			zap.L().Warn("健康检查失败", zap.String("dependency", check.Name), zap.Error(err))
			results[check.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"dependencies": results,
		"time":         time.Now().UTC(),
	})
}
