package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T, hub *RealtimeHub, userID string) (*websocket.Conn, *WSClient) {
	t.Helper()

	up := websocket.Upgrader{}
	registered := make(chan *WSClient, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cl := &WSClient{UserID: userID, Conn: conn}
		hub.Register(cl)
		registered <- cl
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, <-registered
}

func TestBroadcastReachesOnlyTargetUser(t *testing.T) {
	hub := NewRealtimeHub()
	client, _ := dialTestHub(t, hub, "u1")

	hub.Broadcast("someone-else", map[string]any{"kind": "alert.created"})
	hub.Broadcast("u1", map[string]any{"kind": "plan.approved"})

	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "plan.approved")
}

func TestBroadcastAndKeepAliveShareOneWriter(t *testing.T) {
	hub := NewRealtimeHub()
	client, cl := dialTestHub(t, hub, "u1")

	const frames = 25
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			_ = cl.Write(websocket.PingMessage, nil)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			hub.Broadcast("u1", map[string]any{"kind": "settings.updated", "n": i})
		}
	}()
	wg.Wait()

	// pings are handled by the read loop; every data frame must arrive intact
	for i := 0; i < frames; i++ {
		mt, msg, err := client.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, mt)
		assert.Contains(t, string(msg), "settings.updated")
	}

	hub.Unregister(cl)
}
