package chat

import (
	"context"

	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/model"

	"go.uber.org/zap"
)

// PresenceBroadcaster 把在线状态变化广播给所有连接
// 订阅范围收窄时替换该实现即可
type PresenceBroadcaster struct {
	broker Broker
}

func NewPresenceBroadcaster(broker Broker) *PresenceBroadcaster {
	return &PresenceBroadcaster{broker: broker}
}

// PresenceChanged 实现 presence.Notifier
func (p *PresenceBroadcaster) PresenceChanged(ctx context.Context, status model.UserStatus) {
	ev, err := NewEvent(EventUserStatusUpdate, respond.UserStatusUpdateRespond{
		UserId:   status.UserId,
		Username: status.Username,
		Avatar:   status.Avatar,
		IsOnline: status.IsOnline,
		LastSeen: status.LastSeen,
	})
	if err == nil {
		err = p.broker.Broadcast(ctx, ev)
	}
	if err != nil {
		zap.L().Error("广播在线状态失败", zap.String("user_id", status.UserId), zap.Error(err))
	}
}
