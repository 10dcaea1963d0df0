package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/model"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubPresence struct {
	users     []model.UserStatus
	lastQuery string
	lastLimit int
}

func (s *stubPresence) Join(context.Context, string, string, string, string) (*model.UserStatus, error) {
	return nil, nil
}
func (s *stubPresence) Leave(context.Context, string) (*model.UserStatus, error) { return nil, nil }
func (s *stubPresence) Lookup(context.Context, string) (*model.UserStatus, error) {
	return nil, errorx.New(errorx.CodeNotFound, "not found")
}
func (s *stubPresence) ListUsers(_ context.Context, exclude string) ([]model.UserStatus, error) {
	out := []model.UserStatus{}
	for _, u := range s.users {
		if u.UserId != exclude {
			out = append(out, u)
		}
	}
	return out, nil
}
func (s *stubPresence) Search(_ context.Context, q, _ string, limit int) ([]model.UserStatus, error) {
	s.lastQuery, s.lastLimit = q, limit
	return []model.UserStatus{}, nil
}

type stubThreads struct {
	err error
}

func (s *stubThreads) FindOrCreate(context.Context, model.Participant, model.Participant) (*model.Chat, error) {
	return nil, nil
}
func (s *stubThreads) Get(context.Context, string) (*model.Chat, error) { return nil, nil }
func (s *stubThreads) UpdateLastMessage(context.Context, string, string, string, time.Time, string) error {
	return nil
}
func (s *stubThreads) ListForUser(_ context.Context, userId string) ([]respond.ChatListItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []respond.ChatListItem{{Id: "c1", OtherParticipant: respond.OtherParticipant{UserId: "u2", IsOnline: true}}}, nil
}

type stubMessages struct {
	page, size int
}

func (s *stubMessages) Append(context.Context, string, string, string, string, string, string) (*model.ChatMessage, error) {
	return nil, nil
}
func (s *stubMessages) Page(_ context.Context, chatId string, page, size int) (*respond.MessagePage, error) {
	s.page, s.size = page, size
	return &respond.MessagePage{Messages: []model.ChatMessage{}, CurrentPage: page}, nil
}
func (s *stubMessages) MarkRead(context.Context, string, string) (int64, error) { return 0, nil }

type envelope struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestEngine(h *PrivateChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/private-chat")
	g.GET("/chats/:userId", h.GetChats)
	g.GET("/messages/:chatId", h.GetMessages)
	g.GET("/users/:currentUserId", h.ListUsers)
	g.GET("/users/search/:currentUserId", h.SearchUsers)
	return r
}

func get(t *testing.T, r http.Handler, path string) envelope {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestGetChats(t *testing.T) {
	threads := &stubThreads{}
	r := newTestEngine(NewPrivateChatHandler(&stubPresence{}, threads, &stubMessages{}))

	env := get(t, r, "/private-chat/chats/u1")
	require.Equal(t, errorx.CodeSuccess, env.Code)
	var items []respond.ChatListItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	require.True(t, items[0].OtherParticipant.IsOnline)

	threads.err = errorx.Wrap(errors.New("dial tcp: refused"), errorx.CodeDBError, "查询会话失败")
	env = get(t, r, "/private-chat/chats/u1")
	require.Equal(t, errorx.CodeServerBusy, env.Code)
}

func TestGetMessagesPaging(t *testing.T) {
	messages := &stubMessages{}
	r := newTestEngine(NewPrivateChatHandler(&stubPresence{}, &stubThreads{}, messages))

	env := get(t, r, "/private-chat/messages/c1")
	require.Equal(t, errorx.CodeSuccess, env.Code)
	require.Equal(t, 1, messages.page)
	require.Equal(t, 50, messages.size)

	get(t, r, "/private-chat/messages/c1?page=3&limit=20")
	require.Equal(t, 3, messages.page)
	require.Equal(t, 20, messages.size)

	env = get(t, r, "/private-chat/messages/c1?limit=5000")
	require.Equal(t, errorx.CodeInvalidParam, env.Code)
	env = get(t, r, "/private-chat/messages/c1?page=9223372036854775807")
	require.Equal(t, errorx.CodeInvalidParam, env.Code)

	env = get(t, r, "/private-chat/messages/c1?page=abc")
	require.Equal(t, errorx.CodeInvalidParam, env.Code)
}

func TestListAndSearchUsers(t *testing.T) {
	presence := &stubPresence{users: []model.UserStatus{
		{UserId: "u1", Username: "alice", SocketId: "conn-a"},
		{UserId: "u2", Username: "bob"},
	}}
	r := newTestEngine(NewPrivateChatHandler(presence, &stubThreads{}, &stubMessages{}))

	env := get(t, r, "/private-chat/users/u1")
	require.Equal(t, errorx.CodeSuccess, env.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	require.Equal(t, "u2", users[0]["userId"])
	require.NotContains(t, users[0], "socketId")

	env = get(t, r, "/private-chat/users/search/u1?q=%20al%20")
	require.Equal(t, errorx.CodeSuccess, env.Code)
	require.Equal(t, " al ", presence.lastQuery)
	require.Equal(t, 10, presence.lastLimit)
	require.JSONEq(t, `[]`, string(env.Data))
}

func TestHealthReportsDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("revu",
		HealthCheck{Name: "store", Check: func(context.Context) error { return nil }},
	)
	r := gin.New()
	r.GET("/", h.Banner)
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"store":"up"`)

	h.checks = append(h.checks, HealthCheck{Name: "cache", Check: func(context.Context) error { return errors.New("boom") }})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), `"cache":"down"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, w.Body.String(), `"status":"running"`)
}

func TestInitTrans(t *testing.T) {
	require.NoError(t, InitTrans("zh"))
	require.NotNil(t, Trans)
	require.Equal(t, map[string]string{"limit": "x"}, RemoveTopStruct(map[string]string{"GetMessagesRequest.limit": "x"}))
}
