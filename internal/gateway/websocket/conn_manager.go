// Package websocket 负责 websocket 连接的升级与读写协程
// 每个连接一个读协程、一个写协程，写协程独占 websocket 写端
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/service/chat"
	"github.com/NanduBolleddu/Revu/pkg/constants"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	errClosed     = errors.New("websocket client closed")
	errBufferFull = errorx.New(errorx.CodeServerBusy, "send buffer full")
)

// Gateway websocket 接入层
type Gateway struct {
	upgrader websocket.Upgrader
	handler  EventHandler
	opts     Options
}

func NewGateway(handler EventHandler, opts Options) *Gateway {
	g := &Gateway{handler: handler, opts: opts}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

// checkOrigin 未携带 Origin 的非浏览器客户端直接放行
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.opts.AllowOrigin {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Client 表示一个 WebSocket 客户端连接
type Client struct {
	Conn     *websocket.Conn
	Uuid     string
	SendBack chan []byte // 给前端

	limiter   *rate.Limiter
	done      chan struct{}
	closeOnce sync.Once
}

// ID 实现 chat.Conn
func (c *Client) ID() string {
	return c.Uuid
}

// Send 实现 chat.Conn，缓冲区满时丢弃并返回错误
func (c *Client) Send(ev chat.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errClosed
	default:
	}
	select {
	case c.SendBack <- data:
		return nil
	case <-c.done:
		return errClosed
	default:
		return errBufferFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ServeWS 升级连接并启动读写协程
func (g *Gateway) ServeWS(c *gin.Context) {
	g.ServeHTTP(c.Writer, c.Request)
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket 升级失败", zap.Error(err))
		return
	}
	client := &Client{
		Conn:     conn,
		Uuid:     uuid.NewString(),
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
		done:     make(chan struct{}),
	}
	if g.opts.EventRate > 0 {
		burst := g.opts.EventBurst
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(g.opts.EventRate), burst)
	}

	g.handler.Connect(client)
	go client.Write()
	go client.Read(g.handler)
	zap.L().Info("ws连接成功", zap.String("conn", client.Uuid), zap.String("remote", r.RemoteAddr))
}

// Read 读取 websocket 消息交给事件处理器，连接断开后触发 Disconnect
func (c *Client) Read(handler EventHandler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.close()
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		handler.Disconnect(dctx, c)
		dcancel()
		_ = c.Conn.Close()
		zap.L().Info("ws连接断开", zap.String("conn", c.Uuid))
	}()

	c.Conn.SetReadLimit(constants.WS_READ_LIMIT)
	_ = c.Conn.SetReadDeadline(time.Now().Add(constants.WS_PONG_WAIT))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(constants.WS_PONG_WAIT))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read error", zap.String("conn", c.Uuid), zap.Error(err))
			}
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			ev, _ := chat.NewEvent(chat.EventError, respond.NoticeRespond{Message: "Too many events"})
			_ = c.Send(ev)
			continue
		}
		handler.Handle(ctx, c, raw)
	}
}

// Write 从 SendBack 通道读取消息发送给 websocket，并定时发送 ping
func (c *Client) Write() {
	ticker := time.NewTicker(constants.WS_PING_PERIOD)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case data := <-c.SendBack:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(constants.WS_WRITE_WAIT))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				zap.L().Warn("ws write error", zap.String("conn", c.Uuid), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(constants.WS_WRITE_WAIT))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(constants.WS_WRITE_WAIT))
			return
		}
	}
}
