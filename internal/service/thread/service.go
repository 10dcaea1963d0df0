// Package thread 实现私聊会话存储
// 每个无序用户对至多一个会话，首次发消息时惰性创建
package thread

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	myredis "github.com/NanduBolleddu/Revu/internal/dao/redis"
	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/pkg/constants"
	"github.com/NanduBolleddu/Revu/pkg/errorx"
	"github.com/NanduBolleddu/Revu/pkg/util/snowflake"

	"go.uber.org/zap"
)

// PresenceReader 会话列表需要的在线状态查询能力
type PresenceReader interface {
	Statuses(ctx context.Context, userIds []string) (map[string]model.UserStatus, error)
}

// Service 会话存储
type Service struct {
	repo     repository.ThreadRepository
	presence PresenceReader
	cache    myredis.AsyncCacheService
	now      func() time.Time
}

// NewService 创建会话存储，cache 为 nil 时不使用缓存
func NewService(repo repository.ThreadRepository, presence PresenceReader, cache myredis.AsyncCacheService) *Service {
	return &Service{
		repo:     repo,
		presence: presence,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func chatListKey(userId string) string {
	return "chat_list_" + userId
}

// FindOrCreate 查找或创建 a、b 之间的会话，与参数顺序无关
// 并发创建时唯一约束冲突的一方读取胜者的记录
func (s *Service) FindOrCreate(ctx context.Context, a, b model.Participant) (*model.Chat, error) {
	if a.UserId == "" || b.UserId == "" || a.UserId == b.UserId {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "invalid participant pair %q/%q", a.UserId, b.UserId)
	}
	pairKey := model.PairKey(a.UserId, b.UserId)
	chat, err := s.repo.FindByPairKey(ctx, pairKey)
	if err == nil {
		return chat, nil
	}
	if !errorx.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	for _, p := range []*model.Participant{&a, &b} {
		if p.LastSeen.IsZero() {
			p.LastSeen = now
		}
	}
	chat = &model.Chat{
		Uuid:           snowflake.GenerateIDString(),
		PairKey:        pairKey,
		ParticipantOne: a,
		ParticipantTwo: b,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, chat); err != nil {
		if errorx.HasCode(err, errorx.CodeConflict) {
			zap.L().Info("会话已被并发创建，读取已有记录", zap.String("pair_key", pairKey))
			return s.repo.FindByPairKey(ctx, pairKey)
		}
		return nil, err
	}
	s.invalidate(ctx, a.UserId, b.UserId)
	return chat, nil
}

// Get 按 id 读取会话
func (s *Service) Get(ctx context.Context, chatId string) (*model.Chat, error) {
	return s.repo.FindByUuid(ctx, chatId)
}

// UpdateLastMessage 覆盖最近消息缓存并把更新时间推进到 ts
func (s *Service) UpdateLastMessage(ctx context.Context, chatId, senderId, text string, ts time.Time, kind string) error {
	last := model.LastMessage{SenderId: senderId, Text: text, Timestamp: &ts, MessageType: kind}
	if err := s.repo.UpdateLastMessage(ctx, chatId, last, ts); err != nil {
		return err
	}
	if s.cache != nil {
		chat, err := s.repo.FindByUuid(ctx, chatId)
		if err != nil {
			return err
		}
		s.invalidate(ctx, chat.ParticipantOne.UserId, chat.ParticipantTwo.UserId)
	}
	return nil
}

// ListForUser 返回用户的全部会话，附带对端实时在线状态，按更新时间倒序
func (s *Service) ListForUser(ctx context.Context, userId string) ([]respond.ChatListItem, error) {
	chats, err := s.loadChats(ctx, userId)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })

	otherIds := make([]string, 0, len(chats))
	for i := range chats {
		otherIds = append(otherIds, chats[i].Other(userId).UserId)
	}
	statuses, err := s.presence.Statuses(ctx, otherIds)
	if err != nil {
		return nil, err
	}

	items := make([]respond.ChatListItem, 0, len(chats))
	for i := range chats {
		chat := &chats[i]
		other := chat.Other(userId)
		op := respond.OtherParticipant{
			UserId:   other.UserId,
			Username: other.Username,
			Avatar:   other.Avatar,
			LastSeen: other.LastSeen,
		}
		if st, ok := statuses[other.UserId]; ok {
			op.IsOnline = st.IsOnline
			if !st.LastSeen.IsZero() {
				op.LastSeen = st.LastSeen
			}
		}
		items = append(items, respond.ChatListItem{
			Id:               chat.Uuid,
			Participants:     chat.Participants(),
			LastMessage:      chat.LastMessage,
			OtherParticipant: op,
			CreatedAt:        chat.CreatedAt,
			UpdatedAt:        chat.UpdatedAt,
		})
	}
	return items, nil
}

// loadChats 先读缓存，未命中时查库并异步回填
// 在线状态不进缓存，每次都实时拼接
func (s *Service) loadChats(ctx context.Context, userId string) ([]model.Chat, error) {
	key := chatListKey(userId)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("读取会话列表缓存失败", zap.String("user_id", userId), zap.Error(err))
		} else if cached != "" {
			var chats []model.Chat
			if err := json.Unmarshal([]byte(cached), &chats); err == nil {
				return chats, nil
			}
			zap.L().Warn("会话列表缓存损坏", zap.String("user_id", userId))
		}
	}

	chats, err := s.repo.FindByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		data, err := json.Marshal(chats)
		if err == nil {
			s.cache.SubmitTask(func() {
				if err := s.cache.Set(context.Background(), key, string(data), constants.REDIS_TIMEOUT*time.Minute); err != nil {
					zap.L().Warn("回填会话列表缓存失败", zap.String("user_id", userId), zap.Error(err))
				}
			})
		}
	}
	return chats, nil
}

func (s *Service) invalidate(ctx context.Context, userIds ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(userIds))
	for _, id := range userIds {
		keys = append(keys, chatListKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		zap.L().Warn("清理会话列表缓存失败", zap.Strings("keys", keys), zap.Error(err))
	}
}
