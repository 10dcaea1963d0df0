package pebble

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/cockroachdb/pebble"
)

type presenceRepository struct {
	s *Store
}

func presenceKey(userId string) string {
	return prefixPresence + escapeSegment(userId)
}

func (r *presenceRepository) Upsert(_ context.Context, status *model.UserStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now()
	}
	return setJSON(r.s.db, presenceKey(status.UserId), status)
}

func (r *presenceRepository) SetOffline(_ context.Context, userId string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var status model.UserStatus
	if err := r.s.getJSON(presenceKey(userId), &status); err != nil {
		return err
	}
	status.IsOnline = false
	status.SocketId = ""
	status.LastSeen = at
	status.UpdatedAt = at
	return setJSON(r.s.db, presenceKey(userId), &status)
}

func (r *presenceRepository) MarkAllOffline(_ context.Context, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	batch := r.s.db.NewBatch()
	defer batch.Close()

	var n int64
	err := r.s.scan(prefixPresence, func(key string, value []byte) (bool, error) {
		var status model.UserStatus
		if err := json.Unmarshal(value, &status); err != nil {
			return false, errorx.Wrapf(err, errorx.CodeDBError, "解码 %s", key)
		}
		if !status.IsOnline {
			return true, nil
		}
		status.IsOnline = false
		status.SocketId = ""
		status.LastSeen = at
		status.UpdatedAt = at
		n++
		return true, setJSON(batch, key, &status)
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, wrapKVError(batch.Commit(pebble.Sync), "批量标记离线")
}

func (r *presenceRepository) FindByUserId(_ context.Context, userId string) (*model.UserStatus, error) {
	var status model.UserStatus
	if err := r.s.getJSON(presenceKey(userId), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *presenceRepository) FindByUserIds(ctx context.Context, userIds []string) ([]model.UserStatus, error) {
	statuses := make([]model.UserStatus, 0, len(userIds))
	for _, id := range userIds {
		status, err := r.FindByUserId(ctx, id)
		if errorx.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

func (r *presenceRepository) FindAllExcept(_ context.Context, excludeUserId string) ([]model.UserStatus, error) {
	return r.filter(func(s *model.UserStatus) bool { return s.UserId != excludeUserId }, 0)
}

func (r *presenceRepository) SearchByUsername(_ context.Context, query, excludeUserId string, limit int) ([]model.UserStatus, error) {
	q := strings.ToLower(query)
	return r.filter(func(s *model.UserStatus) bool {
		return s.UserId != excludeUserId && strings.Contains(strings.ToLower(s.Username), q)
	}, limit)
}

// filter 全量扫描后按昵称升序排序，limit<=0 表示不截断
func (r *presenceRepository) filter(keep func(*model.UserStatus) bool, limit int) ([]model.UserStatus, error) {
	statuses := make([]model.UserStatus, 0)
	err := r.s.scan(prefixPresence, func(key string, value []byte) (bool, error) {
		var status model.UserStatus
		if err := json.Unmarshal(value, &status); err != nil {
			return false, errorx.Wrapf(err, errorx.CodeDBError, "解码 %s", key)
		}
		if keep(&status) {
			statuses = append(statuses, status)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(statuses, func(i, j int) bool { return statuses[i].Username < statuses[j].Username })
	if limit > 0 && len(statuses) > limit {
		statuses = statuses[:limit]
	}
	return statuses, nil
}
