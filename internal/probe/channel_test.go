package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// delayedSender sends payload once, delay after the upgrade, then waits for the peer to leave
func delayedSender(t *testing.T, delay time.Duration, payload string) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		time.Sleep(delay)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestChannel_TimeoutLeavesConnectionUsable(t *testing.T) {
	url := delayedSender(t, 200*time.Millisecond, "late")

	ch, err := Dial(context.Background(), testConfig(url, time.Second, time.Second))
	require.NoError(t, err)
	defer ch.Close()

	obs, err := ch.Await(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, ObservedIdle, obs.Kind)

	obs, err = ch.Await(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ObservedMessage, obs.Kind)
	assert.Equal(t, "late", string(obs.Payload))
}

func TestChannel_ClosureIsSticky(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "restarting")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.ReadMessage()
	}))
	defer ts.Close()

	ch, err := Dial(context.Background(), testConfig("ws"+strings.TrimPrefix(ts.URL, "http"), time.Second, time.Second))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		obs, err := ch.Await(context.Background(), 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, ObservedClosed, obs.Kind)
		assert.Equal(t, websocket.CloseGoingAway, obs.Code)
		assert.Equal(t, "restarting", obs.Reason)
	}

	assert.NoError(t, ch.Close())
	assert.NoError(t, ch.Close())
}

func TestChannel_AwaitHonorsContext(t *testing.T) {
	url := delayedSender(t, 5*time.Second, "never read")

	ch, err := Dial(context.Background(), testConfig(url, time.Second, time.Second))
	require.NoError(t, err)
	defer ch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ch.Await(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObservationKind_String(t *testing.T) {
	assert.Equal(t, "message", ObservedMessage.String())
	assert.Equal(t, "idle", ObservedIdle.String())
	assert.Equal(t, "closed", ObservedClosed.String())
	assert.Equal(t, "ObservationKind(9)", ObservationKind(9).String())
}

func TestObserveReadErr(t *testing.T) {
	obs := observeReadErr(&websocket.CloseError{Code: 4000, Text: "going away"})
	assert.Equal(t, Observation{Kind: ObservedClosed, Code: 4000, Reason: "going away"}, obs)

	obs = observeReadErr(&websocket.CloseError{Code: websocket.CloseAbnormalClosure, Text: "unexpected EOF"})
	assert.Equal(t, Observation{Kind: ObservedClosed, Code: websocket.CloseAbnormalClosure}, obs)

	reset := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
	obs = observeReadErr(reset)
	assert.Equal(t, Observation{Kind: ObservedClosed, Code: websocket.CloseAbnormalClosure}, obs)
}
