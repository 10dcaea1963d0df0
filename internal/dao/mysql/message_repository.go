package mysql

import (
	"context"
	"time"

	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(ctx context.Context, message *model.ChatMessage) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error; err != nil {
		return wrapDBErrorf(err, "创建消息 chat_id=%s", message.ChatId)
	}
	return nil
}

// CountByChatId 统计会话消息数
func (r *messageRepository) CountByChatId(ctx context.Context, chatId string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("chat_id = ?", chatId).Count(&total).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计消息 chat_id=%s", chatId)
	}
	return total, nil
}

// FindPageByChatId 按创建时间倒序分页
func (r *messageRepository) FindPageByChatId(ctx context.Context, chatId string, offset, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.WithContext(ctx).Preload("ReadBy").
		Where("chat_id = ?", chatId).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "分页查询消息 chat_id=%s", chatId)
	}
	return messages, nil
}

// MarkRead 批量追加已读记录
// (message_uuid, user_id) 唯一索引保证并发重复调用不会产生重复记录
func (r *messageRepository) MarkRead(ctx context.Context, chatId, readerId string, at time.Time) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var uuids []string
		unread := tx.Model(&model.ChatMessageRead{}).Select("1").
			Where("chat_message_read.message_uuid = chat_message.uuid AND chat_message_read.user_id = ?", readerId)
		if err := tx.Model(&model.ChatMessage{}).
			Where("chat_id = ? AND receiver_id = ?", chatId, readerId).
			Where("NOT EXISTS (?)", unread).
			Pluck("uuid", &uuids).Error; err != nil {
			return err
		}
		if len(uuids) == 0 {
			return nil
		}

		reads := make([]model.ChatMessageRead, 0, len(uuids))
		for _, uuid := range uuids {
			reads = append(reads, model.ChatMessageRead{MessageUuid: uuid, ChatId: chatId, UserId: readerId, ReadAt: at})
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reads)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, wrapDBErrorf(err, "标记已读 chat_id=%s reader=%s", chatId, readerId)
	}
	return affected, nil
}
