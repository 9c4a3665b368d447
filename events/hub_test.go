package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/delivery-services/utils"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()

	hub := NewHub()
	r := gin.New()
	r.GET("/events/ws", hub.Handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/events/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubBroadcastsToClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(EventOrderCreated, map[string]string{"order_id": "o1"})
	msg := readMessage(t, conn)
	assert.Equal(t, EventOrderCreated, msg.Event)
	assert.Equal(t, map[string]interface{}{"order_id": "o1"}, msg.Data)
}

func TestHubFiltersEvents(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?events="+EventNotificationSent)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(EventOrderUpdated, "skipped")
	hub.Publish(EventNotificationSent, "delivered")

	msg := readMessage(t, conn)
	assert.Equal(t, EventNotificationSent, msg.Event)
	assert.Equal(t, "delivered", msg.Data)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsStalledClient(t *testing.T) {
	utils.SilenceLoggers()
	hub := NewHub()
	// no writePump drains this client, as with a peer that stopped reading
	stalled := &client{send: make(chan []byte, sendBuffer)}
	hub.register(stalled)

	done := make(chan struct{})
	go func() {
		for i := 0; i <= sendBuffer; i++ {
			hub.Publish(EventOrderCreated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stalled client")
	}
	assert.Zero(t, hub.ClientCount())
	assert.Len(t, stalled.send, sendBuffer)
}

func TestHubKeepsOtherClientsWhenOneStalls(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.register(&client{send: make(chan []byte, 1)})
	hub.Publish(EventOrderUpdated, "first")
	hub.Publish(EventOrderUpdated, "second")

	assert.Equal(t, "first", readMessage(t, conn).Data)
	assert.Equal(t, "second", readMessage(t, conn).Data)
	assert.Equal(t, 1, hub.ClientCount())
}
