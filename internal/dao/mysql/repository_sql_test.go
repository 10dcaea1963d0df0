package mysql

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NanduBolleddu/Revu/internal/model"

	"github.com/stretchr/testify/require"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlRecorder 记录 GORM 生成的 SQL，DryRun 模式下不会真正访问数据库
type sqlRecorder struct {
	mu   sync.Mutex
	sqls []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{})    {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sqls = append(r.sqls, sql)
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sqls)
	return r.sqls[len(r.sqls)-1]
}

func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(mysqldriver.New(mysqldriver.Config{
		DSN:                       "revu:revu@tcp(127.0.0.1:3306)/revu?charset=utf8mb4&parseTime=True&loc=Local",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		TranslateError:       true,
		Logger:               rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestPresenceUpsertSQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewPresenceRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &model.UserStatus{
		UserId: "u1", Username: "alice", IsOnline: true, SocketId: "conn-a",
	}))
	sql := rec.last(t)
	require.Contains(t, sql, "INSERT INTO `user_status`")
	require.Contains(t, sql, "ON DUPLICATE KEY UPDATE")
	for _, col := range []string{"`username`", "`avatar`", "`is_online`", "`last_seen`", "`socket_id`", "`updated_at`"} {
		require.Contains(t, sql, col+"=", "upsert must refresh %s", col)
	}
	require.NotContains(t, sql, "`created_at`=")
}

func TestPresenceSearchEscapesPattern(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewPresenceRepository(db)

	_, err := repo.SearchByUsername(context.Background(), "50%", "u1", 10)
	require.NoError(t, err)
	sql := rec.last(t)
	require.Contains(t, sql, "user_id <> 'u1'")
	require.Contains(t, sql, `LOWER(username) LIKE '%50\%%'`)
	require.Contains(t, sql, "ORDER BY username ASC LIMIT 10")
}

func TestThreadUpdateLastMessageSQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewThreadRepository(db)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastMessage(context.Background(), "42",
		model.LastMessage{SenderId: "u1", Text: "hi", Timestamp: &ts, MessageType: "text"}, ts))
	sql := rec.last(t)
	require.Contains(t, sql, "UPDATE `chat` SET")
	for _, col := range []string{"`last_sender_id`='u1'", "`last_text`='hi'", "`last_message_type`='text'", "`last_timestamp`=", "`updated_at`="} {
		require.Contains(t, sql, col)
	}
	require.Contains(t, sql, "WHERE uuid = '42'")
}

func TestThreadFindByUserIdSQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewThreadRepository(db)

	_, err := repo.FindByUserId(context.Background(), "u1")
	require.NoError(t, err)
	sql := rec.last(t)
	require.Contains(t, sql, "FROM `chat`")
	require.Contains(t, sql, "p1_user_id = 'u1' OR p2_user_id = 'u1'")
	require.Contains(t, sql, "ORDER BY updated_at DESC, id DESC")
}

func TestMessagePageSQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewMessageRepository(db)

	_, err := repo.FindPageByChatId(context.Background(), "42", 100, 50)
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.sqls)
	sql := rec.sqls[0]
	require.Contains(t, sql, "FROM `chat_message`")
	require.Contains(t, sql, "chat_id = '42'")
	require.Contains(t, sql, "ORDER BY created_at DESC, id DESC LIMIT 50 OFFSET 100")
}
