package mysql

import (
	"context"
	"time"

	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/model"

	"gorm.io/gorm"
)

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository 创建会话 Repository
func NewThreadRepository(db *gorm.DB) repository.ThreadRepository {
	return &threadRepository{db: db}
}

// FindByPairKey 根据参与者对查找会话
func (r *threadRepository) FindByPairKey(ctx context.Context, pairKey string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&chat).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 pair_key=%s", pairKey)
	}
	return &chat, nil
}

// FindByUuid 根据会话 id 查找
func (r *threadRepository) FindByUuid(ctx context.Context, chatId string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.WithContext(ctx).Where("uuid = ?", chatId).First(&chat).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 chat_id=%s", chatId)
	}
	return &chat, nil
}

// Create 创建会话，唯一索引冲突映射为 CodeConflict
func (r *threadRepository) Create(ctx context.Context, chat *model.Chat) error {
	return wrapDBErrorf(r.db.WithContext(ctx).Create(chat).Error, "创建会话 pair_key=%s", chat.PairKey)
}

// UpdateLastMessage 更新最近消息缓存
func (r *threadRepository) UpdateLastMessage(ctx context.Context, chatId string, last model.LastMessage, updatedAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Chat{}).Where("uuid = ?", chatId).
		Updates(map[string]any{
			"last_sender_id":    last.SenderId,
			"last_text":         last.Text,
			"last_timestamp":    last.Timestamp,
			"last_message_type": last.MessageType,
			"updated_at":        updatedAt,
		}).Error
	return wrapDBErrorf(err, "更新会话最近消息 chat_id=%s", chatId)
}

// FindByUserId 查找用户参与的全部会话
func (r *threadRepository) FindByUserId(ctx context.Context, userId string) ([]model.Chat, error) {
	var chats []model.Chat
	if err := r.db.WithContext(ctx).
		Where("p1_user_id = ? OR p2_user_id = ?", userId, userId).
		Order("updated_at DESC, id DESC").Find(&chats).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户会话 user_id=%s", userId)
	}
	return chats, nil
}
