package middleware

import (
	"github.com/NanduBolleddu/Revu/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Secure 安全响应头，sslRedirect 开启时将 HTTP 重定向到 HTTPS
func Secure(cfg *config.SecureConfig, mode string) gin.HandlerFunc {
	// 在返回函数之前初始化，避免每次请求都重复创建对象
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:        cfg.SSLRedirect,
		SSLHost:            cfg.SSLHost,
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "same-origin",
		IsDevelopment:      mode == "dev" || mode == gin.DebugMode,
	})

	return func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			// 重定向或拒绝时响应已写出，终止后续处理
			zap.L().Warn("secure middleware rejected request", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
