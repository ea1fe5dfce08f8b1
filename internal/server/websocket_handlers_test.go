package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/notifications"
	"cidadeemfoco/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialFeed(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.ShutdownWithTimeout(time.Second) })

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/ws/feed", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return env.srv.Hub().Count() == 1 },
		2*time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) notifications.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event notifications.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestFeedWebSocket_PushesPostEvents(t *testing.T) {
	env := newTestEnv(t)
	conn := dialFeed(t, env)

	author := testutil.CreateUser(t, env.db, "Ana", "ana@example.com", models.LevelOrdinary)
	req := multipartRequest(t, "/api/publicacoes", map[string]string{"description": "Buraco na rua"},
		"buraco.jpg", testutil.TinyJPEG(t, 8, 8))
	resp, body := env.do(t, req, env.tokenFor(t, author))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	created := readEvent(t, conn)
	assert.Equal(t, notifications.EventPostCreated, created.Type)
	assert.EqualValues(t, author.ID, created.Payload["usuarioId"])
	postID := created.Payload["id"]

	liker := testutil.CreateUser(t, env.db, "Bruno", "bruno@example.com", models.LevelOrdinary)
	resp, body = env.doJSON(t, http.MethodPost, "/api/publicacoes/"+itoa(uint(postID.(float64)))+"/curtir",
		nil, env.tokenFor(t, liker))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	updated := readEvent(t, conn)
	assert.Equal(t, notifications.EventPostReactionUpdated, updated.Type)
	assert.Equal(t, postID, updated.Payload["id"])
	assert.EqualValues(t, 1, updated.Payload["curtidas"])
}

func TestFeedWebSocket_ClientDisconnectUnregisters(t *testing.T) {
	env := newTestEnv(t)
	conn := dialFeed(t, env)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return env.srv.Hub().Count() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestFeedWebSocket_HubShutdownSendsGoingAway(t *testing.T) {
	env := newTestEnv(t)
	conn := dialFeed(t, env)

	require.NoError(t, env.srv.Hub().Shutdown(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
	assert.Equal(t, 0, env.srv.Hub().Count())
}
