package mq

import (
	"context"
	"strings"
	"time"

	"github.com/NanduBolleddu/Revu/internal/config"
	"github.com/NanduBolleddu/Revu/internal/service/chat"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// 主题
const (
	subjectPrefix    = "revu."
	subjectAll       = "revu.>"
	subjectBroadcast = "revu.broadcast"
)

type natsConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// NatsRelay 基于 NATS 的 Broker
type NatsRelay struct {
	*chat.Hub

	conn natsConn
}

// NewNatsRelay 连接 NATS 并订阅全部 revu 主题
func NewNatsRelay(cfg *config.NatsConfig, hub *chat.Hub) (*NatsRelay, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("revu"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			zap.L().Warn("nats 连接断开", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.L().Info("nats 重连成功", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeBrokerError, "连接 nats %s 失败", cfg.URL)
	}
	relay, err := newNatsRelay(hub, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return relay, nil
}

func newNatsRelay(hub *chat.Hub, conn natsConn) (*NatsRelay, error) {
	n := &NatsRelay{Hub: hub, conn: conn}
	if _, err := conn.Subscribe(subjectAll, n.onMessage); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeBrokerError, "订阅 nats 主题失败")
	}
	return n, nil
}

func (n *NatsRelay) onMessage(msg *nats.Msg) {
	if err := dispatch(n.Hub, msg.Data); err != nil {
		zap.L().Warn("丢弃无法解析的转发消息", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// subjectFor 按信封类型生成主题，目标中的 "." 替换为 "_"
func subjectFor(env Envelope) string {
	if env.Kind == KindBroadcast {
		return subjectBroadcast
	}
	return subjectPrefix + env.Kind + "." + strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(env.Target)
}

func (n *NatsRelay) publish(env Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return errorx.Wrap(err, errorx.CodeBrokerError, "编码转发信封失败")
	}
	if err := n.conn.Publish(subjectFor(env), data); err != nil {
		return errorx.Wrapf(err, errorx.CodeBrokerError, "发布 nats 消息失败 kind=%s", env.Kind)
	}
	return nil
}

func (n *NatsRelay) PublishToUser(_ context.Context, userId string, ev chat.Event, excludeConnId string) error {
	return n.publish(Envelope{Kind: KindUser, Target: userId, Exclude: excludeConnId, Event: ev})
}

func (n *NatsRelay) PublishToRoom(_ context.Context, room string, ev chat.Event, excludeConnId string) error {
	return n.publish(Envelope{Kind: KindRoom, Target: room, Exclude: excludeConnId, Event: ev})
}

func (n *NatsRelay) Broadcast(_ context.Context, ev chat.Event) error {
	return n.publish(Envelope{Kind: KindBroadcast, Event: ev})
}

// Close 处理完已收到的消息后断开
func (n *NatsRelay) Close() error {
	return n.conn.Drain()
}
