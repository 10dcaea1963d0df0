package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pebblestore "github.com/NanduBolleddu/Revu/internal/dao/pebble"
	"github.com/NanduBolleddu/Revu/internal/dto/respond"
	"github.com/NanduBolleddu/Revu/internal/service"
	"github.com/NanduBolleddu/Revu/internal/service/chat"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts Options) (*httptest.Server, *service.Services) {
	t.Helper()
	store, err := pebblestore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svcs := service.NewServices(store.Repositories(), nil)
	hub := chat.NewHub()
	svcs.Registry.SetNotifier(chat.NewPresenceBroadcaster(hub))
	coord := chat.NewCoordinator(svcs.Presence, svcs.Thread, svcs.Message, hub)

	srv := httptest.NewServer(NewGateway(coord, opts))
	t.Cleanup(srv.Close)
	return srv, svcs
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	ev, err := chat.NewEvent(name, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ev))
}

// await 读取直到收到指定事件
func await(t *testing.T, conn *websocket.Conn, name string) chat.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev chat.Event
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Name == name {
			return ev
		}
	}
}

func TestGatewayPrivateMessageRoundTrip(t *testing.T) {
	srv, svcs := newServer(t, Options{AllowOrigin: []string{"*"}})
	a, b := dial(t, srv), dial(t, srv)

	emit(t, a, chat.EventJoinPrivateChat, map[string]string{"userId": "u1", "username": "alice"})
	await(t, a, chat.EventJoinSuccess)
	emit(t, b, chat.EventJoinPrivateChat, map[string]string{"userId": "u2", "username": "bob"})
	await(t, b, chat.EventJoinSuccess)

	emit(t, a, chat.EventSendPrivateMessage, map[string]string{
		"senderId": "u1", "senderUsername": "alice", "receiverId": "u2", "message": "hello",
	})
	ev := await(t, b, chat.EventNewPrivateMessage)
	var msg respond.PrivateMessageRespond
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	require.Equal(t, "hello", msg.Message)
	require.Equal(t, "u1", msg.SenderId)

	list := await(t, b, chat.EventChatListUpdate)
	var items []respond.ChatListItem
	require.NoError(t, json.Unmarshal(list.Data, &items))
	require.Equal(t, msg.ChatId, items[0].Id)

	// 关闭连接后用户下线
	require.NoError(t, a.Close())
	require.Eventually(t, func() bool {
		st, err := svcs.Presence.Lookup(context.Background(), "u1")
		return err == nil && !st.IsOnline
	}, 3*time.Second, 20*time.Millisecond)
}

func TestGatewayRejectsForeignOrigin(t *testing.T) {
	srv, _ := newServer(t, Options{AllowOrigin: []string{"https://revu.example"}})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://revu.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestGatewayRateLimit(t *testing.T) {
	srv, _ := newServer(t, Options{EventRate: 0.001, EventBurst: 1, AllowOrigin: []string{"*"}})
	conn := dial(t, srv)

	emit(t, conn, chat.EventJoinPrivateChat, map[string]string{"userId": "u1", "username": "alice"})
	await(t, conn, chat.EventJoinSuccess)

	emit(t, conn, chat.EventJoinPrivateChat, map[string]string{"userId": "u1", "username": "alice"})
	ev := await(t, conn, chat.EventError)
	require.JSONEq(t, `{"message":"Too many events"}`, string(ev.Data))
}

func TestGatewayOversizedMessageKeepsConnection(t *testing.T) {
	srv, svcs := newServer(t, Options{AllowOrigin: []string{"*"}})
	a, b := dial(t, srv), dial(t, srv)

	emit(t, a, chat.EventJoinPrivateChat, map[string]string{"userId": "u1", "username": "alice"})
	await(t, a, chat.EventJoinSuccess)
	emit(t, b, chat.EventJoinPrivateChat, map[string]string{"userId": "u2", "username": "bob"})
	await(t, b, chat.EventJoinSuccess)

	// 9000 个字符的正文超过长度上限，但帧本身仍在读取上限之内
	emit(t, a, chat.EventSendPrivateMessage, map[string]string{
		"senderId": "u1", "senderUsername": "alice", "receiverId": "u2", "message": strings.Repeat("x", 9000),
	})
	ev := await(t, a, chat.EventMessageError)
	var n respond.NoticeRespond
	require.NoError(t, json.Unmarshal(ev.Data, &n))
	require.Equal(t, "Message too long (max 1000 characters)", n.Message)

	st, err := svcs.Presence.Lookup(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, st.IsOnline)

	// 同一连接继续可用
	emit(t, a, chat.EventSendPrivateMessage, map[string]string{
		"senderId": "u1", "senderUsername": "alice", "receiverId": "u2", "message": "still here",
	})
	got := await(t, b, chat.EventNewPrivateMessage)
	var msg respond.PrivateMessageRespond
	require.NoError(t, json.Unmarshal(got.Data, &msg))
	require.Equal(t, "still here", msg.Message)
}

type stubHandler struct {
	mu  sync.Mutex
	out []string
}

func (s *stubHandler) record(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, v)
}

func (s *stubHandler) Connect(chat.Conn) { s.record("connect") }
func (s *stubHandler) Handle(_ context.Context, _ chat.Conn, raw []byte) {
	s.record(string(raw))
}
func (s *stubHandler) Disconnect(context.Context, chat.Conn) { s.record("disconnect") }

func TestClientSendAfterClose(t *testing.T) {
	c := &Client{Uuid: "c1", SendBack: make(chan []byte, 1), done: make(chan struct{})}
	ev, err := chat.NewEvent("x", nil)
	require.NoError(t, err)

	require.NoError(t, c.Send(ev))
	require.ErrorIs(t, c.Send(ev), errBufferFull)
	c.close()
	c.close()
	require.ErrorIs(t, c.Send(ev), errClosed)
}

func TestGatewayLifecycleCallbacks(t *testing.T) {
	h := &stubHandler{}
	srv := httptest.NewServer(NewGateway(h, Options{}))
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)))
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.out) == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.out) == 3 && h.out[2] == "disconnect"
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "connect", h.out[0])
}
