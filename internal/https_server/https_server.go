// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"github.com/NanduBolleddu/Revu/internal/config"
	"github.com/NanduBolleddu/Revu/internal/handler"
	"github.com/NanduBolleddu/Revu/internal/infrastructure/logger"
	"github.com/NanduBolleddu/Revu/internal/infrastructure/middleware"
	"github.com/NanduBolleddu/Revu/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init 初始化 HTTP 服务器并返回 Gin 引擎实例
// 配置顺序：
//  1. 创建 Gin 引擎（空白，不含默认中间件）
//  2. 注册日志和恢复中间件
//  3. 配置安全响应头与 CORS
//  4. 注册业务路由
func Init(handlers *handler.Handlers, cfg *config.Config) *gin.Engine {
	if cfg.MainConfig.Mode != "dev" && cfg.MainConfig.Mode != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))
	engine.Use(middleware.Secure(&cfg.SecureConfig, cfg.MainConfig.Mode))

	corsConfig := cors.DefaultConfig()
	if len(cfg.SecureConfig.AllowOrigin) == 0 || contains(cfg.SecureConfig.AllowOrigin, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.SecureConfig.AllowOrigin
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
