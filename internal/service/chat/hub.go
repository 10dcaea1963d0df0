// Package chat 实现私聊实时会话层
// hub.go
// 核心职责：单机模式下的连接与频道管理
// 不依赖外部消息队列，分布式模式下作为每个节点的本地投递层
package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type memberships struct {
	users map[string]struct{}
	rooms map[string]struct{}
}

// Hub 进程内 Broker 实现
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
	subs  map[string]*memberships
	users map[string]map[string]Conn // userId -> connId -> conn
	rooms map[string]map[string]Conn // mediaId -> connId -> conn
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		subs:  make(map[string]*memberships),
		users: make(map[string]map[string]Conn),
		rooms: make(map[string]map[string]Conn),
	}
}

// Register 登记连接
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.register(conn)
}

func (h *Hub) register(conn Conn) *memberships {
	h.conns[conn.ID()] = conn
	m, ok := h.subs[conn.ID()]
	if !ok {
		m = &memberships{users: map[string]struct{}{}, rooms: map[string]struct{}{}}
		h.subs[conn.ID()] = m
	}
	return m
}

// Remove 移除连接及其全部频道订阅
func (h *Hub) Remove(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := conn.ID()
	if m, ok := h.subs[id]; ok {
		for userId := range m.users {
			leave(h.users, userId, id)
		}
		for room := range m.rooms {
			leave(h.rooms, room, id)
		}
	}
	delete(h.subs, id)
	delete(h.conns, id)
}

func (h *Hub) Subscribe(userId string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.register(conn)
	m.users[userId] = struct{}{}
	join(h.users, userId, conn)
}

func (h *Hub) Unsubscribe(userId string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[conn.ID()]; ok {
		delete(m.users, userId)
	}
	leave(h.users, userId, conn.ID())
}

func (h *Hub) JoinRoom(room string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.register(conn)
	m.rooms[room] = struct{}{}
	join(h.rooms, room, conn)
}

func (h *Hub) PublishToUser(_ context.Context, userId string, ev Event, excludeConnId string) error {
	h.DeliverToUser(userId, ev, excludeConnId)
	return nil
}

func (h *Hub) PublishToRoom(_ context.Context, room string, ev Event, excludeConnId string) error {
	h.DeliverToRoom(room, ev, excludeConnId)
	return nil
}

func (h *Hub) Broadcast(_ context.Context, ev Event) error {
	h.DeliverBroadcast(ev)
	return nil
}

// Close 单机模式无外部资源
func (h *Hub) Close() error {
	return nil
}

// DeliverToUser 投递到本节点上订阅了该用户频道的连接
func (h *Hub) DeliverToUser(userId string, ev Event, excludeConnId string) {
	h.mu.RLock()
	targets := snapshot(h.users[userId], excludeConnId)
	h.mu.RUnlock()
	send(targets, ev)
}

// DeliverToRoom 投递到本节点上该房间的连接
func (h *Hub) DeliverToRoom(room string, ev Event, excludeConnId string) {
	h.mu.RLock()
	targets := snapshot(h.rooms[room], excludeConnId)
	h.mu.RUnlock()
	send(targets, ev)
}

// DeliverBroadcast 投递到本节点全部连接
func (h *Hub) DeliverBroadcast(ev Event) {
	h.mu.RLock()
	targets := snapshot(h.conns, "")
	h.mu.RUnlock()
	send(targets, ev)
}

// ConnCount 本节点连接数
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Subscribers 用户频道在本节点的连接数
func (h *Hub) Subscribers(userId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userId])
}

func join(index map[string]map[string]Conn, key string, conn Conn) {
	set, ok := index[key]
	if !ok {
		set = make(map[string]Conn)
		index[key] = set
	}
	set[conn.ID()] = conn
}

func leave(index map[string]map[string]Conn, key, connId string) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, connId)
	if len(set) == 0 {
		delete(index, key)
	}
}

func snapshot(set map[string]Conn, excludeConnId string) []Conn {
	out := make([]Conn, 0, len(set))
	for id, c := range set {
		if id != excludeConnId {
			out = append(out, c)
		}
	}
	return out
}

// send 在锁外投递，单个连接失败不影响其他连接
func send(targets []Conn, ev Event) {
	for _, c := range targets {
		if err := c.Send(ev); err != nil {
			zap.L().Warn("投递事件失败", zap.String("conn", c.ID()), zap.String("event", ev.Name), zap.Error(err))
		}
	}
}
