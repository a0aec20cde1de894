package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
)

func newFeed(t *testing.T, b bus.EventBus) (*FeedServer, *httptest.Server) {
	t.Helper()
	fs, err := NewFeedServer(b, log.NewNop(), DefaultConfig())
	require.NoError(t, err)
	ts := httptest.NewServer(fs.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = fs.Close()
	})
	return fs, ts
}

func dial(t *testing.T, fs *FeedServer, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	before := fs.Stats().Clients
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return fs.Stats().Clients == before+1 }, time.Second, 5*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestFeedBroadcastsDomainEvents(t *testing.T) {
	b := bus.New()
	fs, ts := newFeed(t, b)
	first := dial(t, fs, ts)
	second := dial(t, fs, ts)

	require.NoError(t, b.Publish(bus.NewEvent("custom.event", "test", nil)))
	require.NoError(t, b.Publish(bus.NewEvent(bus.HealthDied, "dummy#1234", map[string]any{"current": 0})))

	for _, conn := range []*websocket.Conn{first, second} {
		msg := read(t, conn)
		assert.Equal(t, bus.HealthDied, msg.Type, "events outside the feed list are not forwarded")
		assert.Equal(t, "dummy#1234", msg.Source)
		assert.Equal(t, map[string]any{"current": float64(0)}, msg.Data)
	}
	assert.Equal(t, uint64(2), fs.Stats().Sent)
}

func TestFeedHonoursEventTypeList(t *testing.T) {
	b := bus.New()
	cfg := DefaultConfig()
	cfg.EventTypes = []string{bus.AttackTriggered}
	fs, err := NewFeedServer(b, nil, cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(fs.Handler())
	defer ts.Close()
	defer fs.Close()

	conn := dial(t, fs, ts)
	require.NoError(t, b.Publish(bus.NewEvent(bus.HealthDied, "x", nil)))
	require.NoError(t, b.Publish(bus.NewEvent(bus.AttackTriggered, "x", nil)))
	assert.Equal(t, bus.AttackTriggered, read(t, conn).Type)
}

func TestFeedUnsubscribesOnClose(t *testing.T) {
	b := bus.New()
	fs, err := NewFeedServer(b, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, uint64(len(bus.DomainEventTypes())), b.GetMetrics().SubscribersActive)

	require.NoError(t, fs.Close())
	assert.Zero(t, b.GetMetrics().SubscribersActive)
	assert.ErrorIs(t, fs.Start(context.Background()), ErrServerClosed)
}

func TestFeedDropsDisconnectedClients(t *testing.T) {
	b := bus.New()
	fs, ts := newFeed(t, b)
	conn := dial(t, fs, ts)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return fs.Stats().Clients == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), fs.Stats().Connected)
}

func TestFeedHealthEndpoint(t *testing.T) {
	b := bus.New()
	fs, ts := newFeed(t, b)
	conn := dial(t, fs, ts)

	_, err := b.Subscribe(bus.HealthDied, func(bus.Event) error { return errors.New("handler failed") })
	require.NoError(t, err)
	assert.Error(t, b.Publish(bus.NewEvent(bus.HealthDied, "x", nil)))
	read(t, conn)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["clients"])
	metrics, ok := body["bus"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), metrics["published"])
	assert.Equal(t, float64(1), metrics["errors"])
}

func TestFeedObserverLeavesWithClose(t *testing.T) {
	b := bus.New()
	fs, err := NewFeedServer(b, nil, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, b.Publish(bus.NewEvent("x", "src", nil)))
	assert.EqualValues(t, 1, fs.Stats().Bus.Published)

	require.NoError(t, fs.Close())
	require.NoError(t, b.Publish(bus.NewEvent("x", "src", nil)))
	assert.EqualValues(t, 1, b.GetMetrics().Published, "metrics stop once no observer is left")
}

func TestFeedRefusesUpgradesAfterStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	fs, err := NewFeedServer(bus.New(), nil, cfg)
	require.NoError(t, err)
	defer fs.Close()
	ts := httptest.NewServer(fs.Handler())
	defer ts.Close()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/feed"

	ctx := context.Background()
	require.NoError(t, fs.Start(ctx))
	require.NoError(t, fs.Stop(ctx))

	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Zero(t, fs.Stats().Clients)

	require.NoError(t, fs.Start(ctx))
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err, "a restarted server accepts again")
	_ = conn.Close()
}

func TestFeedStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	fs, err := NewFeedServer(bus.New(), nil, cfg)
	require.NoError(t, err)
	defer fs.Close()

	ctx := context.Background()
	require.NoError(t, fs.Start(ctx))
	require.NotNil(t, fs.Addr())
	assert.ErrorIs(t, fs.Start(ctx), ErrServerAlreadyRunning)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+fs.Addr().String()+"/feed", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return fs.Stats().Clients == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, fs.Stop(ctx))
	assert.Zero(t, fs.Stats().Clients)
	assert.ErrorIs(t, fs.Stop(ctx), ErrServerNotRunning)
}

func TestNewFeedServerValidates(t *testing.T) {
	_, err := NewFeedServer(nil, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.Path = "feed"
	_, err = NewFeedServer(bus.New(), nil, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
