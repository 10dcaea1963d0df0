package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/NanduBolleddu/Revu/internal/config"
	"github.com/NanduBolleddu/Revu/internal/dao/metadata"
	dao "github.com/NanduBolleddu/Revu/internal/dao/mysql"
	pebblestore "github.com/NanduBolleddu/Revu/internal/dao/pebble"
	myredis "github.com/NanduBolleddu/Revu/internal/dao/redis"
	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/gateway/websocket"
	"github.com/NanduBolleddu/Revu/internal/handler"
	"github.com/NanduBolleddu/Revu/internal/https_server"
	"github.com/NanduBolleddu/Revu/internal/infrastructure/logger"
	"github.com/NanduBolleddu/Revu/internal/infrastructure/mq"
	"github.com/NanduBolleddu/Revu/internal/service"
	"github.com/NanduBolleddu/Revu/internal/service/chat"
	"github.com/NanduBolleddu/Revu/pkg/constants"
	"github.com/NanduBolleddu/Revu/pkg/util/snowflake"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. 加载配置
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		if conf == nil {
			return err
		}
		log.Printf("配置文件未找到，使用默认配置: %v", err)
	}
	config.SetConfig(conf)

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		return fmt.Errorf("init logger failed: %w", err)
	}
	defer zap.L().Sync()
	zap.L().Info("日志初始化成功")

	snowflake.Init(conf.SnowflakeConfig.MachineID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 初始化文档存储
	repos, err := openStore(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.Close(); err != nil {
			zap.L().Warn("关闭文档存储失败", zap.Error(err))
		}
	}()
	zap.L().Info("文档存储初始化成功", zap.String("driver", conf.StoreConfig.Driver))

	// 4. 初始化 Redis 会话列表缓存（可选）
	var (
		cache    *myredis.RedisCache
		cacheSvc myredis.AsyncCacheService
	)
	if conf.RedisConfig.Enabled {
		client, err := myredis.NewClient(ctx, &conf.RedisConfig)
		if err != nil {
			return err
		}
		cache = myredis.NewRedisCache(client, constants.CACHE_WORKER_NUM, constants.CACHE_TASK_BUF_SIZE)
		defer cache.Close()
		cacheSvc = cache
		zap.L().Info("Redis 初始化成功")
	}

	// 5. 元数据库探活（可选）
	meta, err := metadata.Open(ctx, &conf.PostgresConfig)
	if err != nil {
		return err
	}
	if meta != nil {
		defer meta.Close()
	}

	// 6. 初始化 Service 层
	svcs := service.NewServices(repos, cacheSvc)
	if n, err := svcs.Registry.Reconcile(ctx); err != nil {
		zap.L().Warn("清理遗留在线状态失败", zap.Error(err))
	} else if n > 0 {
		zap.L().Info("已将遗留在线用户标记为离线", zap.Int64("count", n))
	}

	// 7. 初始化消息代理与会话协调器
	broker, err := newBroker(ctx, conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := broker.Close(); err != nil {
			zap.L().Warn("关闭消息代理失败", zap.Error(err))
		}
	}()
	svcs.Registry.SetNotifier(chat.NewPresenceBroadcaster(broker))
	coordinator := chat.NewCoordinator(svcs.Presence, svcs.Thread, svcs.Message, broker)
	gateway := websocket.NewGateway(coordinator, websocket.Options{
		EventRate:   conf.ChatConfig.EventRate,
		EventBurst:  conf.ChatConfig.EventBurst,
		AllowOrigin: conf.SecureConfig.AllowOrigin,
	})
	zap.L().Info("ChatServer 初始化成功", zap.String("mode", conf.ChatConfig.MessageMode))

	// 8. 初始化 HTTP 服务器
	if err := handler.InitTrans("en"); err != nil {
		zap.L().Warn("初始化校验翻译器失败", zap.Error(err))
	}
	checks := []handler.HealthCheck{{Name: "store", Check: repos.Ping}}
	if cache != nil {
		checks = append(checks, handler.HealthCheck{Name: "cache", Check: cache.Ping})
	}
	if meta != nil {
		checks = append(checks, handler.HealthCheck{Name: "metadata", Check: func(ctx context.Context) error {
			_, err := meta.Now(ctx)
			return err
		}})
	}
	health := handler.NewHealthHandler(conf.MainConfig.AppName, checks...)
	engine := https_server.Init(handler.NewHandlers(svcs, gateway, health), conf)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}
	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 9. 等待信号
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			zap.L().Error("server running fault", zap.Error(err))
			return err
		}
	}

	zap.L().Info("关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("服务器关闭超时", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
	return nil
}

// openStore 按 storeConfig.driver 选择文档存储实现
func openStore(conf *config.Config) (*repository.Repositories, error) {
	switch conf.StoreConfig.Driver {
	case "pebble":
		store, err := pebblestore.Open(conf.StoreConfig.PebblePath)
		if err != nil {
			return nil, err
		}
		return store.Repositories(), nil
	case "", "mysql":
		db, err := dao.Open(&conf.MysqlConfig)
		if err != nil {
			return nil, err
		}
		if err := dao.Migrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		return dao.NewRepositories(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.StoreConfig.Driver)
	}
}

// newBroker 按 chatConfig.messageMode 选择消息代理
func newBroker(ctx context.Context, conf *config.Config) (chat.Broker, error) {
	hub := chat.NewHub()
	switch conf.ChatConfig.MessageMode {
	case "", "channel":
		return hub, nil
	case "kafka":
		relay := mq.NewKafkaRelay(&conf.KafkaConfig, hub)
		relay.Start(ctx)
		return relay, nil
	case "nats":
		return mq.NewNatsRelay(&conf.NatsConfig, hub)
	default:
		return nil, fmt.Errorf("unknown message mode %q", conf.ChatConfig.MessageMode)
	}
}
