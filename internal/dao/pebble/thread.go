package pebble

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/cockroachdb/pebble"
)

type threadRepository struct {
	s *Store
}

func threadKey(chatId string) string {
	return prefixThread + escapeSegment(chatId)
}

func userThreadKey(userId, chatId string) string {
	return userThreadPrefix(userId) + escapeSegment(chatId)
}

func userThreadPrefix(userId string) string {
	return prefixUserThread + escapeSegment(userId) + "/"
}

func (r *threadRepository) FindByPairKey(ctx context.Context, pairKey string) (*model.Chat, error) {
	chatId, err := r.s.getRaw(prefixThreadPair + pairKey)
	if err != nil {
		return nil, err
	}
	return r.FindByUuid(ctx, chatId)
}

func (r *threadRepository) FindByUuid(_ context.Context, chatId string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.s.getJSON(threadKey(chatId), &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// Create 检查并写入参与者对索引，冲突返回 CodeConflict
func (r *threadRepository) Create(_ context.Context, chat *model.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pairKey := prefixThreadPair + chat.PairKey
	if _, err := r.s.getRaw(pairKey); err == nil {
		return errorx.Newf(errorx.CodeConflict, "会话已存在 pair_key=%s", chat.PairKey)
	} else if !errorx.IsNotFound(err) {
		return err
	}

	now := time.Now()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	if chat.UpdatedAt.IsZero() {
		chat.UpdatedAt = chat.CreatedAt
	}

	batch := r.s.db.NewBatch()
	defer batch.Close()
	if err := setJSON(batch, threadKey(chat.Uuid), chat); err != nil {
		return err
	}
	if err := batch.Set([]byte(pairKey), []byte(chat.Uuid), nil); err != nil {
		return wrapKVError(err, "写入参与者对索引")
	}
	for _, p := range chat.Participants() {
		if err := batch.Set([]byte(userThreadKey(p.UserId, chat.Uuid)), nil, nil); err != nil {
			return wrapKVError(err, "写入用户会话索引")
		}
	}
	return wrapKVErrorf(batch.Commit(pebble.Sync), "创建会话 pair_key=%s", chat.PairKey)
}

func (r *threadRepository) UpdateLastMessage(_ context.Context, chatId string, last model.LastMessage, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var chat model.Chat
	if err := r.s.getJSON(threadKey(chatId), &chat); err != nil {
		return err
	}
	chat.LastMessage = last
	chat.UpdatedAt = updatedAt
	return setJSON(r.s.db, threadKey(chatId), &chat)
}

func (r *threadRepository) FindByUserId(ctx context.Context, userId string) ([]model.Chat, error) {
	prefix := userThreadPrefix(userId)
	var ids []string
	err := r.s.scan(prefix, func(key string, _ []byte) (bool, error) {
		id, err := unescapeSegment(strings.TrimPrefix(key, prefix))
		if err != nil {
			return false, err
		}
		ids = append(ids, id)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	chats := make([]model.Chat, 0, len(ids))
	for _, id := range ids {
		chat, err := r.FindByUuid(ctx, id)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	sort.SliceStable(chats, func(i, j int) bool {
		if !chats[i].UpdatedAt.Equal(chats[j].UpdatedAt) {
			return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
		}
		return padID(chats[i].Uuid) > padID(chats[j].Uuid)
	})
	return chats, nil
}
