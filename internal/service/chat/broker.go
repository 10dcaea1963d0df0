// Package chat 实现私聊实时会话层
// broker.go
// 核心职责：定义连接与消息代理接口
// 会话协调器只依赖 Broker，单机 Hub 与 Kafka/NATS 转发实现可互换
package chat

import "context"

// Conn 一条实时连接
type Conn interface {
	// ID 连接句柄，进程间唯一
	ID() string
	// Send 投递事件，不阻塞调用方
	Send(ev Event) error
}

// Broker 定义消息代理接口
// 支持多种实现：Hub (单机), KafkaRelay / NatsRelay (分布式)
type Broker interface {
	// Register 登记新连接，之后可收到广播
	Register(conn Conn)
	// Remove 移除连接及其所有订阅
	Remove(conn Conn)
	// Subscribe 将连接加入用户个人频道
	Subscribe(userId string, conn Conn)
	// Unsubscribe 将连接移出用户个人频道
	Unsubscribe(userId string, conn Conn)
	// JoinRoom 将连接加入媒体房间
	JoinRoom(room string, conn Conn)

	// PublishToUser 投递到用户个人频道，excludeConnId 对应的连接不会收到
	PublishToUser(ctx context.Context, userId string, ev Event, excludeConnId string) error
	// PublishToRoom 投递到媒体房间，excludeConnId 对应的连接不会收到
	PublishToRoom(ctx context.Context, room string, ev Event, excludeConnId string) error
	// Broadcast 投递给所有连接
	Broadcast(ctx context.Context, ev Event) error

	// Close 关闭代理资源
	Close() error
}
