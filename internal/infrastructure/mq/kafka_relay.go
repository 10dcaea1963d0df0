package mq

import (
	"context"
	"errors"
	"time"

	"github.com/NanduBolleddu/Revu/internal/config"
	"github.com/NanduBolleddu/Revu/internal/service/chat"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaRelay 基于 Kafka 的 Broker
// 连接与订阅由内嵌的本地 Hub 管理，发布操作写入主题
type KafkaRelay struct {
	*chat.Hub

	producer kafkaWriter
	consumer kafkaReader
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewKafkaRelay 创建 Kafka 转发器
// 每个节点需使用不同的 GroupID，保证所有节点都能收到全部事件
func NewKafkaRelay(cfg *config.KafkaConfig, hub *chat.Hub) *KafkaRelay {
	timeout := cfg.Timeout * time.Second
	producer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.HostPort),
		Topic:                  cfg.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           timeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
	}
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.HostPort},
		Topic:          cfg.ChatTopic,
		CommitInterval: timeout,
		GroupID:        cfg.GroupID,
		StartOffset:    kafka.LastOffset,
	})
	return newKafkaRelay(hub, producer, consumer)
}

func newKafkaRelay(hub *chat.Hub, producer kafkaWriter, consumer kafkaReader) *KafkaRelay {
	return &KafkaRelay{Hub: hub, producer: producer, consumer: consumer, done: make(chan struct{})}
}

// Start 启动消费循环
func (k *KafkaRelay) Start(ctx context.Context) {
	ctx, k.cancel = context.WithCancel(ctx)
	go k.consume(ctx)
}

func (k *KafkaRelay) consume(ctx context.Context) {
	defer close(k.done)
	zap.L().Info("kafka relay consumer start")
	for {
		msg, err := k.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			zap.L().Error("读取 kafka 消息失败", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if err := dispatch(k.Hub, msg.Value); err != nil {
			zap.L().Warn("丢弃无法解析的转发消息", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (k *KafkaRelay) publish(ctx context.Context, env Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return errorx.Wrap(err, errorx.CodeBrokerError, "编码转发信封失败")
	}
	if err := k.producer.WriteMessages(ctx, kafka.Message{Key: []byte(env.Target), Value: data}); err != nil {
		return errorx.Wrapf(err, errorx.CodeBrokerError, "写入 kafka 失败 kind=%s", env.Kind)
	}
	return nil
}

func (k *KafkaRelay) PublishToUser(ctx context.Context, userId string, ev chat.Event, excludeConnId string) error {
	return k.publish(ctx, Envelope{Kind: KindUser, Target: userId, Exclude: excludeConnId, Event: ev})
}

func (k *KafkaRelay) PublishToRoom(ctx context.Context, room string, ev chat.Event, excludeConnId string) error {
	return k.publish(ctx, Envelope{Kind: KindRoom, Target: room, Exclude: excludeConnId, Event: ev})
}

func (k *KafkaRelay) Broadcast(ctx context.Context, ev chat.Event) error {
	return k.publish(ctx, Envelope{Kind: KindBroadcast, Event: ev})
}

// Close 停止消费并关闭读写端
func (k *KafkaRelay) Close() error {
	if k.cancel != nil {
		k.cancel()
		<-k.done
	}
	return errors.Join(k.consumer.Close(), k.producer.Close())
}
