package feed

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/simulation"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func tick(ts int64) simulation.TickResult {
	return simulation.TickResult{
		Coin:       domain.CoinLTC,
		Sample:     domain.MetricsSample{TimeSeconds: ts, Hashrate: 100.5, PowerWatts: 3260, TemperatureC: 71},
		Counters:   domain.Counters{BlocksFound: 1, TotalEarningsUSD: 923.4},
		Market:     domain.MarketState{CoinPriceUSD: 75, NetworkDifficulty: 2.4e7, BlockRewardCoins: 12.5},
		BlockFound: true,
	}
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	a := dial(t, server)
	defer a.Close()
	b := dial(t, server)
	defer b.Close()
	waitClients(t, hub, 2)

	hub.Publish("run-xyz", tick(7))

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "run-xyz", msg.RunID)
		assert.Equal(t, domain.CoinLTC, msg.Coin)
		assert.Equal(t, int64(7), msg.Sample.TimeSeconds)
		assert.Equal(t, 100.5, msg.Sample.Hashrate)
		assert.Equal(t, int64(1), msg.Counters.BlocksFound)
		assert.True(t, msg.BlockFound)
	}
}

func TestHub_MessageFields(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitClients(t, hub, 1)

	hub.Publish("run-1", tick(1))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"run_id", "coin", "sample", "counters", "market", "block_found"} {
		assert.Contains(t, raw, key)
	}

	var sample map[string]float64
	require.NoError(t, json.Unmarshal(raw["sample"], &sample))
	assert.Equal(t, 1.0, sample["time"])
	assert.Equal(t, 71.0, sample["temperature"])
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dial(t, server)
	waitClients(t, hub, 1)

	conn.Close()
	waitClients(t, hub, 0)

	// Publishing with no clients is a no-op
	hub.Publish("run-1", tick(1))
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	hub := NewHub(&Config{
		SendBuffer:   1,
		PingInterval: time.Hour,
		WriteTimeout: time.Second,
		ReadTimeout:  time.Minute,
	}, quietLogger())

	// Register a client whose writer never drains
	c := &client{send: make(chan []byte, 1)}
	hub.register(c)

	done := make(chan struct{})
	go func() {
		for i := int64(1); i <= 10; i++ {
			hub.Publish("run-1", tick(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow client")
	}
	assert.Len(t, c.send, 1)
}

func TestHub_RegisterAfterCloseRejected(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	hub.Close()

	c := &client{send: make(chan []byte, 1)}
	n, ok := hub.register(c)
	assert.False(t, ok)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, hub.Clients())

	// Publishing must not reach the rejected client
	hub.Publish("run", simulation.TickResult{Coin: domain.CoinBTC})
	assert.Empty(t, c.send)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	// New connections are refused
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, 503, resp.StatusCode)
	}
}

func TestHub_AsEngineObserver(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitClients(t, hub, 1)

	sched := simulation.NewManualScheduler()
	e, err := simulation.NewEngine(simulation.EngineOptions{
		Random:    simulation.NewSeededSource(5),
		Scheduler: sched,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	e.OnTick(hub.Publish)

	e.Start(t.Context())
	sched.Advance(3)
	e.Stop()

	for want := int64(1); want <= 3; want++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, want, msg.Sample.TimeSeconds)
		assert.Equal(t, e.RunID(), msg.RunID)
	}
}
