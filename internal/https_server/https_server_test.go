package https_server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NanduBolleddu/Revu/internal/config"
	pebblestore "github.com/NanduBolleddu/Revu/internal/dao/pebble"
	"github.com/NanduBolleddu/Revu/internal/gateway/websocket"
	"github.com/NanduBolleddu/Revu/internal/handler"
	"github.com/NanduBolleddu/Revu/internal/service"
	"github.com/NanduBolleddu/Revu/internal/service/chat"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := pebblestore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	repos := store.Repositories()

	svcs := service.NewServices(repos, nil)
	hub := chat.NewHub()
	svcs.Registry.SetNotifier(chat.NewPresenceBroadcaster(hub))
	coord := chat.NewCoordinator(svcs.Presence, svcs.Thread, svcs.Message, hub)
	gateway := websocket.NewGateway(coord, websocket.Options{AllowOrigin: []string{"*"}})
	health := handler.NewHealthHandler("revu", handler.HealthCheck{Name: "store", Check: repos.Ping})

	cfg := config.Default()
	cfg.MainConfig.Mode = gin.TestMode
	engine := Init(handler.NewHandlers(svcs, gateway, health), cfg)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func doGet(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestSystemRoutes(t *testing.T) {
	srv := newTestServer(t)

	code, body := doGet(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), "revu API Server")

	code, body = doGet(t, srv.URL+"/health")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `"store":"up"`)

	code, body = doGet(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), "revu_ws_connections")
}

func TestSecureHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestPrivateChatRoutes(t *testing.T) {
	srv := newTestServer(t)

	paths := []string{
		"/private-chat/chats/u1",
		"/private-chat/messages/c1?page=1&limit=50",
		"/private-chat/users/u1",
		"/private-chat/users/search/u1?q=al",
	}
	for _, p := range paths {
		code, body := doGet(t, srv.URL+p)
		require.Equal(t, http.StatusOK, code, p)
		var env struct {
			Code int `json:"code"`
		}
		require.NoError(t, json.Unmarshal(body, &env), p)
		require.Equal(t, errorx.CodeSuccess, env.Code, p)
	}

	code, _ := doGet(t, srv.URL+"/private-chat/unknown")
	require.Equal(t, http.StatusNotFound, code)
}

func TestWebsocketJoinThenQuery(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	ev, err := chat.NewEvent(chat.EventJoinPrivateChat, map[string]string{"userId": "u1", "username": "alice"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ev))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var got chat.Event
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, chat.EventJoinSuccess, got.Name)

	_, body := doGet(t, srv.URL+"/private-chat/users/search/u2?q=ali")
	var env struct {
		Data []struct {
			UserId   string `json:"userId"`
			IsOnline bool   `json:"isOnline"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	require.Len(t, env.Data, 1)
	require.Equal(t, "u1", env.Data[0].UserId)
	require.True(t, env.Data[0].IsOnline)
}
