// Package mq 实现跨节点的实时事件转发
// 每个节点把发布操作封装为路由信封写入 Kafka 或 NATS，
// 再由各节点消费后交给本地 chat.Hub 投递
package mq

import (
	"encoding/json"
	"fmt"

	"github.com/NanduBolleddu/Revu/internal/service/chat"
)

// 信封路由类型
const (
	KindUser      = "user"
	KindRoom      = "room"
	KindBroadcast = "broadcast"
)

// Envelope 路由信封
type Envelope struct {
	Kind    string     `json:"kind"`
	Target  string     `json:"target,omitempty"`
	Exclude string     `json:"exclude,omitempty"` // 发起方连接句柄
	Event   chat.Event `json:"event"`
}

// Encode 序列化信封
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope 反序列化并校验信封
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	switch env.Kind {
	case KindUser, KindRoom:
		if env.Target == "" {
			return Envelope{}, fmt.Errorf("envelope %s without target", env.Kind)
		}
	case KindBroadcast:
	default:
		return Envelope{}, fmt.Errorf("unknown envelope kind %q", env.Kind)
	}
	return env, nil
}

// Deliver 交给本地 Hub 投递
func (e Envelope) Deliver(hub *chat.Hub) {
	switch e.Kind {
	case KindUser:
		hub.DeliverToUser(e.Target, e.Event, e.Exclude)
	case KindRoom:
		hub.DeliverToRoom(e.Target, e.Event, e.Exclude)
	case KindBroadcast:
		hub.DeliverBroadcast(e.Event)
	}
}

// dispatch 解码并投递一条转发消息
func dispatch(hub *chat.Hub, data []byte) error {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return err
	}
	env.Deliver(hub)
	return nil
}
