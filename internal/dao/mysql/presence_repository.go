package mysql

import (
	"context"
	"time"

	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type presenceRepository struct {
	db *gorm.DB
}

// NewPresenceRepository 创建在线状态 Repository
func NewPresenceRepository(db *gorm.DB) repository.PresenceRepository {
	return &presenceRepository{db: db}
}

// Upsert 按 user_id 覆盖写入
func (r *presenceRepository) Upsert(ctx context.Context, status *model.UserStatus) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "avatar", "is_online", "last_seen", "socket_id", "updated_at"}),
	}).Create(status).Error
	return wrapDBErrorf(err, "写入在线状态 user_id=%s", status.UserId)
}

// SetOffline 标记离线
func (r *presenceRepository) SetOffline(ctx context.Context, userId string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.UserStatus{}).
		Where("user_id = ?", userId).
		Updates(map[string]any{"is_online": false, "socket_id": "", "last_seen": at}).Error
	return wrapDBErrorf(err, "标记离线 user_id=%s", userId)
}

// MarkAllOffline 启动时清理上一进程遗留的在线记录
func (r *presenceRepository) MarkAllOffline(ctx context.Context, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.UserStatus{}).
		Where("is_online = ?", true).
		Updates(map[string]any{"is_online": false, "socket_id": "", "last_seen": at})
	if res.Error != nil {
		return 0, wrapDBError(res.Error, "批量标记离线")
	}
	return res.RowsAffected, nil
}

// FindByUserId 查找用户在线状态
func (r *presenceRepository) FindByUserId(ctx context.Context, userId string) (*model.UserStatus, error) {
	var status model.UserStatus
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&status).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询在线状态 user_id=%s", userId)
	}
	return &status, nil
}

// FindByUserIds 批量查找
func (r *presenceRepository) FindByUserIds(ctx context.Context, userIds []string) ([]model.UserStatus, error) {
	var statuses []model.UserStatus
	if len(userIds) == 0 {
		return statuses, nil
	}
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIds).Find(&statuses).Error; err != nil {
		return nil, wrapDBError(err, "批量查询在线状态")
	}
	return statuses, nil
}

// FindAllExcept 查找除指定用户外的所有用户
func (r *presenceRepository) FindAllExcept(ctx context.Context, excludeUserId string) ([]model.UserStatus, error) {
	var statuses []model.UserStatus
	if err := r.db.WithContext(ctx).Where("user_id <> ?", excludeUserId).
		Order("username ASC").Find(&statuses).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户列表 exclude=%s", excludeUserId)
	}
	return statuses, nil
}

// SearchByUsername 昵称子串匹配
func (r *presenceRepository) SearchByUsername(ctx context.Context, query, excludeUserId string, limit int) ([]model.UserStatus, error) {
	var statuses []model.UserStatus
	if err := r.db.WithContext(ctx).
		Where("user_id <> ? AND LOWER(username) LIKE ?", excludeUserId, containsPattern(query)).
		Order("username ASC").Limit(limit).Find(&statuses).Error; err != nil {
		return nil, wrapDBErrorf(err, "搜索用户 q=%s", query)
	}
	return statuses, nil
}
