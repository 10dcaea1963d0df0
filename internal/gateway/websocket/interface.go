package websocket

import (
	"context"

	"github.com/NanduBolleddu/Revu/internal/service/chat"
)

// EventHandler 连接生命周期回调，由 chat.Coordinator 实现
type EventHandler interface {
	Connect(conn chat.Conn)
	Handle(ctx context.Context, conn chat.Conn, raw []byte)
	Disconnect(ctx context.Context, conn chat.Conn)
}

// Options 网关配置
type Options struct {
	EventRate   float64  // 单连接每秒事件数上限，0 表示不限
	EventBurst  int      // 突发上限
	AllowOrigin []string // 允许的 Origin，包含 "*" 时不校验
}
