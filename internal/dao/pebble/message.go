package pebble

import (
	"context"
	"encoding/json"
	"time"

	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/cockroachdb/pebble"
)

type messageRepository struct {
	s *Store
}

func messagePrefix(chatId string) string {
	return prefixMessage + escapeSegment(chatId) + "/"
}

func messageKey(chatId, messageId string) string {
	return messagePrefix(chatId) + padID(messageId)
}

func (r *messageRepository) Create(_ context.Context, message *model.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.ReadBy == nil {
		message.ReadBy = []model.ChatMessageRead{}
	}
	return setJSON(r.s.db, messageKey(message.ChatId, message.Uuid), message)
}

func (r *messageRepository) CountByChatId(_ context.Context, chatId string) (int64, error) {
	var total int64
	err := r.s.scan(messagePrefix(chatId), func(string, []byte) (bool, error) {
		total++
		return true, nil
	})
	return total, err
}

// FindPageByChatId 逆序遍历，跳过 offset 条后取 limit 条
func (r *messageRepository) FindPageByChatId(_ context.Context, chatId string, offset, limit int) ([]model.ChatMessage, error) {
	messages := make([]model.ChatMessage, 0, limit)
	skipped := 0
	err := r.s.scanReverse(messagePrefix(chatId), func(key string, value []byte) (bool, error) {
		if skipped < offset {
			skipped++
			return true, nil
		}
		var m model.ChatMessage
		if err := json.Unmarshal(value, &m); err != nil {
			return false, errorx.Wrapf(err, errorx.CodeDBError, "解码 %s", key)
		}
		messages = append(messages, m)
		return len(messages) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(_ context.Context, chatId, readerId string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	batch := r.s.db.NewBatch()
	defer batch.Close()

	var n int64
	err := r.s.scan(messagePrefix(chatId), func(key string, value []byte) (bool, error) {
		var m model.ChatMessage
		if err := json.Unmarshal(value, &m); err != nil {
			return false, errorx.Wrapf(err, errorx.CodeDBError, "解码 %s", key)
		}
		if m.ReceiverId != readerId || m.ReadByUser(readerId) {
			return true, nil
		}
		m.ReadBy = append(m.ReadBy, model.ChatMessageRead{MessageUuid: m.Uuid, ChatId: chatId, UserId: readerId, ReadAt: at})
		n++
		return true, setJSON(batch, key, &m)
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, wrapKVErrorf(batch.Commit(pebble.Sync), "标记已读 chat_id=%s", chatId)
}
