// Package presence 实现在线状态注册表
// Registry 在进程启动时创建并注入协调器，连接句柄只通过 Join/Leave 增删
package presence

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/pkg/constants"

	"go.uber.org/zap"
)

// Notifier 接收在线状态变化
// 当前实现为全量广播，可替换为按订阅范围推送
type Notifier interface {
	PresenceChanged(ctx context.Context, status model.UserStatus)
}

type entry struct {
	userId   string
	username string
	avatar   string
}

// Registry 在线状态注册表
// 内存中维护 userId <-> 连接句柄 的双向映射，状态持久化到 PresenceRepository
type Registry struct {
	repo     repository.PresenceRepository
	notifier Notifier
	now      func() time.Time

	mu       sync.RWMutex
	byUser   map[string]string // userId -> handle
	byHandle map[string]entry  // handle -> entry
}

// Option Registry 可选配置
type Option func(*Registry)

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry 创建注册表，notifier 可为 nil
func NewRegistry(repo repository.PresenceRepository, notifier Notifier, opts ...Option) *Registry {
	r := &Registry{
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		byUser:   make(map[string]string),
		byHandle: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetNotifier 在构造之后注入通知器
func (r *Registry) SetNotifier(n Notifier) {
	r.notifier = n
}

// Join 用户上线
// 同一用户的新连接会替换旧句柄，旧句柄之后的 Leave 为空操作
// 持久化成功后才修改内存映射，失败时旧连接的登记保持不变
func (r *Registry) Join(ctx context.Context, userId, username, avatar, handle string) (*model.UserStatus, error) {
	now := r.now()
	status := &model.UserStatus{
		UserId:    userId,
		Username:  username,
		Avatar:    avatar,
		IsOnline:  true,
		LastSeen:  now,
		SocketId:  handle,
		UpdatedAt: now,
	}
	if err := r.repo.Upsert(ctx, status); err != nil {
		return nil, err
	}

	r.mu.Lock()
	prevHandle, hadPrev := r.byUser[userId]
	prevEntry, handleTaken := r.byHandle[handle]
	if hadPrev && prevHandle != handle {
		delete(r.byHandle, prevHandle)
	}
	switched := handleTaken && prevEntry.userId != userId
	if switched && r.byUser[prevEntry.userId] == handle {
		// 同一连接切换身份
		delete(r.byUser, prevEntry.userId)
	}
	r.byUser[userId] = handle
	r.byHandle[handle] = entry{userId: userId, username: username, avatar: avatar}
	r.mu.Unlock()

	if switched {
		_, _ = r.markOffline(ctx, prevEntry)
	}

	zap.L().Info("用户上线", zap.String("user_id", userId), zap.String("handle", handle))
	r.notify(ctx, *status)
	return status, nil
}

// Leave 按连接句柄下线
// 句柄未知（重复断开或已被新连接替换）时返回 nil, nil
func (r *Registry) Leave(ctx context.Context, handle string) (*model.UserStatus, error) {
	r.mu.Lock()
	e, ok := r.byHandle[handle]
	if ok {
		delete(r.byHandle, handle)
		if r.byUser[e.userId] == handle {
			delete(r.byUser, e.userId)
		}
	}
	r.mu.Unlock()

	if !ok {
		zap.L().Debug("leave with unknown handle", zap.String("handle", handle))
		return nil, nil
	}
	return r.markOffline(ctx, e)
}

func (r *Registry) markOffline(ctx context.Context, e entry) (*model.UserStatus, error) {
	now := r.now()
	if err := r.repo.SetOffline(ctx, e.userId, now); err != nil {
		zap.L().Error("标记离线失败", zap.String("user_id", e.userId), zap.Error(err))
		return nil, err
	}
	status := model.UserStatus{
		UserId:    e.userId,
		Username:  e.username,
		Avatar:    e.avatar,
		IsOnline:  false,
		LastSeen:  now,
		UpdatedAt: now,
	}
	zap.L().Info("用户下线", zap.String("user_id", e.userId))
	r.notify(ctx, status)
	return &status, nil
}

func (r *Registry) notify(ctx context.Context, status model.UserStatus) {
	if r.notifier != nil {
		r.notifier.PresenceChanged(ctx, status)
	}
}

// UserOf 反查连接句柄对应的用户
func (r *Registry) UserOf(handle string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byHandle[handle]
	return e.userId, ok
}

// HandleOf 返回用户当前的连接句柄
func (r *Registry) HandleOf(userId string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byUser[userId]
	return h, ok
}

// OnlineCount 本进程内在线用户数
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Lookup 查找在线状态记录，不存在返回 CodeNotFound
func (r *Registry) Lookup(ctx context.Context, userId string) (*model.UserStatus, error) {
	return r.repo.FindByUserId(ctx, userId)
}

// Statuses 批量查询在线状态，按 userId 索引
func (r *Registry) Statuses(ctx context.Context, userIds []string) (map[string]model.UserStatus, error) {
	statuses, err := r.repo.FindByUserIds(ctx, userIds)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.UserStatus, len(statuses))
	for _, s := range statuses {
		out[s.UserId] = s
	}
	return out, nil
}

// ListUsers 除 excludeUserId 外的全部用户，按昵称升序
func (r *Registry) ListUsers(ctx context.Context, excludeUserId string) ([]model.UserStatus, error) {
	return r.repo.FindAllExcept(ctx, excludeUserId)
}

// Search 按昵称子串搜索（不区分大小写）
// 去除首尾空白后不足 2 个字符时直接返回空列表，不访问存储
func (r *Registry) Search(ctx context.Context, query, excludeUserId string, limit int) ([]model.UserStatus, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < constants.SEARCH_MIN_LENGTH {
		return []model.UserStatus{}, nil
	}
	if limit <= 0 || limit > constants.SEARCH_MAX_RESULTS {
		limit = constants.SEARCH_MAX_RESULTS
	}
	return r.repo.SearchByUsername(ctx, q, excludeUserId, limit)
}

// Reconcile 启动时把上一进程遗留的在线记录标记为离线
func (r *Registry) Reconcile(ctx context.Context) (int64, error) {
	return r.repo.MarkAllOffline(ctx, r.now())
}
