package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []Event
	broken bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("send buffer full")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeConn) named(name string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, ev := range f.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

func ping(t *testing.T) Event {
	ev, err := NewEvent("ping", map[string]int{"n": 1})
	require.NoError(t, err)
	return ev
}

func TestHubPublishToUserExcludesOrigin(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	tab1, tab2, other := newFakeConn("c1"), newFakeConn("c2"), newFakeConn("c3")
	hub.Subscribe("u1", tab1)
	hub.Subscribe("u1", tab2)
	hub.Subscribe("u2", other)

	require.NoError(t, hub.PublishToUser(ctx, "u1", ping(t), "c1"))
	require.Empty(t, tab1.named("ping"))
	require.Len(t, tab2.named("ping"), 1)
	require.Empty(t, other.named("ping"))
	require.Equal(t, 2, hub.Subscribers("u1"))
}

func TestHubRemoveDropsAllMemberships(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	c := newFakeConn("c1")
	hub.Register(c)
	hub.Subscribe("u1", c)
	hub.JoinRoom("m1", c)
	require.Equal(t, 1, hub.ConnCount())

	hub.Remove(c)
	require.Zero(t, hub.ConnCount())
	require.Zero(t, hub.Subscribers("u1"))

	require.NoError(t, hub.PublishToUser(ctx, "u1", ping(t), ""))
	require.NoError(t, hub.PublishToRoom(ctx, "m1", ping(t), ""))
	require.NoError(t, hub.Broadcast(ctx, ping(t)))
	require.Empty(t, c.named("ping"))

	// 重复移除无副作用
	hub.Remove(c)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	c := newFakeConn("c1")
	hub.Subscribe("u1", c)
	hub.Unsubscribe("u1", c)
	hub.DeliverToUser("u1", ping(t), "")
	require.Empty(t, c.named("ping"))
	require.Equal(t, 1, hub.ConnCount())
}

func TestHubBroadcastSkipsBrokenConn(t *testing.T) {
	hub := NewHub()
	broken, ok := newFakeConn("c1"), newFakeConn("c2")
	broken.broken = true
	hub.Register(broken)
	hub.Register(ok)

	require.NoError(t, hub.Broadcast(context.Background(), ping(t)))
	require.Len(t, ok.named("ping"), 1)
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"event":"typing_start","data":{"senderId":"u1"}}`))
	require.NoError(t, err)
	require.Equal(t, EventTypingStart, ev.Name)
	require.JSONEq(t, `{"senderId":"u1"}`, string(ev.Data))

	_, err = DecodeEvent([]byte(`{"data":{}}`))
	require.Error(t, err)
	_, err = DecodeEvent([]byte(`not json`))
	require.Error(t, err)
}
