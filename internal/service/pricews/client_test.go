package pricews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialerReadsPriceUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"price_update","symbol":"BTC","price":64000.5}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"price_update","symbol":"ETH","price":3100,"volume_24h":0}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := New(wsURL(srv), WithPingInterval(0), WithClock(func() time.Time { return fixed }))
	sub, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	tick, err := sub.Next()
	require.NoError(t, err)
	assert.Equal(t, "BTC", tick.Symbol)
	assert.Equal(t, 64000.5, tick.Price)
	assert.Nil(t, tick.Volume24h)
	assert.Equal(t, fixed, tick.ReceivedAt)

	tick, err = sub.Next()
	require.NoError(t, err)
	assert.Equal(t, "ETH", tick.Symbol)
	require.NotNil(t, tick.Volume24h)
	assert.Zero(t, *tick.Volume24h)

	require.NoError(t, sub.Close())
	_, err = sub.Next()
	assert.Error(t, err)
}

func TestDialerConnectFailure(t *testing.T) {
	_, err := New("ws://127.0.0.1:1", WithHandshakeTimeout(time.Second)).Dial(context.Background())
	assert.Error(t, err)
}
