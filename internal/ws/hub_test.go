package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesConnectedClients(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log, "*")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conns := make([]*websocket.Conn, 2)
	for i := range conns {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns[i] = conn
	}

	// Registration happens on the hub goroutine after the handshake.
	require.Eventually(t, func() bool { return hub.Len() == len(conns) }, 3*time.Second, 10*time.Millisecond)

	hub.Publish(EventThreadCreated, map[string]interface{}{"id": 7})

	for _, c := range conns {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		require.NoError(t, c.ReadJSON(&msg))
		assert.Equal(t, EventThreadCreated, msg.Type)
		assert.Equal(t, map[string]interface{}{"id": float64(7)}, msg.Data)
	}
}

func TestUpgradeChecksOrigin(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log, "https://cleancook.example")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://cleancook.example"}})
	require.NoError(t, err)
	conn.Close()

	conn, _, err = websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn.Close()
}

func TestStoppedHubReleasesConnections(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log, "*")
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	readDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := &Client{hub: hub, conn: conn, send: make(chan []byte, 1)}
		go func() {
			c.readPump()
			close(readDone)
		}()
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	cancel()
	<-stopped
	conn.Close()

	select {
	case <-readDone:
	case <-time.After(3 * time.Second):
		t.Fatal("read loop still waiting on the stopped hub")
	}

	// New upgrades after shutdown are closed instead of blocking the handler.
	late := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer late.Close()
	conn, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(late.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrDeadlineExceeded), "connection should be closed, not left open")
}
