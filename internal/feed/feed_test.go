package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollwatch/internal/domain"
	"scrollwatch/internal/eventbus"
	"scrollwatch/internal/logic"
	"scrollwatch/internal/scroll"
	"scrollwatch/internal/tracker"
)

func newTestHub(sendBuf, broadcastBuf int) *Hub {
	return NewHub(slog.Default(), HubConfig{SendBuf: sendBuf, BroadcastBuf: broadcastBuf})
}

func runHub(t *testing.T, hub *Hub) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("hub did not stop")
		}
	})
	return cancel
}

func registered(hub *Hub, c *Client) func() bool {
	return func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.clients[c]
		return ok
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := newTestHub(4, 8)
	runHub(t, hub)

	c1 := NewClient(hub, nil, "c1", slog.Default())
	c2 := NewClient(hub, nil, "c2", slog.Default())
	hub.register <- c1
	hub.register <- c2
	require.Eventually(t, registered(hub, c1), time.Second, 5*time.Millisecond)
	require.Eventually(t, registered(hub, c2), time.Second, 5*time.Millisecond)

	msg := []byte(`{"type":"sample"}`)
	hub.broadcast <- msg

	for _, c := range []*Client{c1, c2} {
		select {
		case got := <-c.send:
			assert.Equal(t, msg, got)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", c.remoteAddr)
		}
	}
	assert.Equal(t, 2, hub.Clients())
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := newTestHub(1, 8)
	runHub(t, hub)

	slow := NewClient(hub, nil, "slow", slog.Default())
	fast := &Client{hub: hub, send: make(chan []byte, 8), remoteAddr: "fast", logger: slog.Default()}
	hub.register <- slow
	hub.register <- fast
	require.Eventually(t, registered(hub, slow), time.Second, 5*time.Millisecond)
	require.Eventually(t, registered(hub, fast), time.Second, 5*time.Millisecond)

	slow.send <- []byte(`"stuck"`)
	hub.broadcast <- []byte(`{"type":"sample"}`)

	select {
	case <-fast.send:
	case <-time.After(time.Second):
		t.Fatal("fast client did not receive broadcast")
	}

	<-slow.send
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.Clients())
}

func TestConvertEvent(t *testing.T) {
	v := 0.5
	state := scroll.VelocityState{}
	state.Position = scroll.Position{Y: 40}
	state.Delta = scroll.Position{Y: 10}
	state.Direction = scroll.Directions{X: scroll.None, Y: scroll.Down}
	state.Velocity = scroll.Velocity{X: &v, Y: &v}
	state.Timestamp = time.UnixMilli(1500)
	state.History = []scroll.Sample{state.Sample}

	ev, ok := convertEvent(domain.SampleRecordedEvent{Surface: "doc", State: state})
	require.True(t, ok)
	assert.Equal(t, TypeSample, ev.Type)

	msg, err := marshal(ev)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeSample, env.Type)
	require.NotNil(t, env.Ts)
	assert.Equal(t, int64(1500), env.Ts.UnixMilli())

	var data SampleData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "doc", data.Surface)
	assert.Equal(t, scroll.Down, data.Direction.Y)
	assert.Equal(t, 1, data.HistoryLen)
	require.NotNil(t, data.Velocity.Y)
	assert.Equal(t, 0.5, *data.Velocity.Y)

	_, ok = convertEvent(domain.ConfigSavedEvent{Path: "x"})
	assert.False(t, ok)
}

func TestDirectionChangedMarksReversal(t *testing.T) {
	tests := []struct {
		from, to scroll.Direction
		reversed bool
	}{
		{scroll.Down, scroll.Up, true},
		{scroll.Left, scroll.Right, true},
		{scroll.Down, scroll.None, false},
		{scroll.None, scroll.Up, false},
	}

	for _, tt := range tests {
		ev, ok := convertEvent(domain.DirectionChangedEvent{Surface: "doc", Axis: scroll.AxisY, From: tt.from, To: tt.to})
		require.True(t, ok)
		assert.Equal(t, TypeDirectionChanged, ev.Type)

		data, ok := ev.Data.(DirectionChangedData)
		require.True(t, ok)
		assert.Equal(t, tt.reversed, data.Reversed, "%s -> %s", tt.from, tt.to)
	}
}

func TestUnknownVelocityEncodesAsNull(t *testing.T) {
	msg, err := marshal(outboundEvent{Type: TypeSample, Data: sampleData("doc", scroll.VelocityState{})})
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"velocity":{"x":null,"y":null}`)
}

type collector struct {
	mu     sync.Mutex
	frames []Envelope
}

func (c *collector) read(t *testing.T, conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if json.Unmarshal(msg, &env) != nil {
			t.Errorf("bad frame %q", msg)
			return
		}
		c.mu.Lock()
		c.frames = append(c.frames, env)
		c.mu.Unlock()
	}
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Type)
	}
	return out
}

func (c *collector) first() Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[0]
}

func TestServerStreamsTrackerEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	now := time.UnixMilli(0)
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		clockMu.Lock()
		now = now.Add(d)
		clockMu.Unlock()
	}

	tr := tracker.New(bus, logic.NewMemoryChainStore(), domain.Settings{Window: time.Second}, tracker.WithClock(clock))
	tr.Record("doc", scroll.Position{Y: 5})

	srv := NewServer(slog.Default(), tr, ServerConfig{})
	mux := http.NewServeMux()
	srv.Register(mux, "/ws/state")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)
	broadcaster := NewBroadcaster(srv.Hub(), bus, 10*time.Millisecond, slog.Default())
	go broadcaster.Run(ctx)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/state"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	frames := &collector{}
	go frames.read(t, conn)

	require.Eventually(t, func() bool { return len(frames.types()) >= 1 }, 2*time.Second, 5*time.Millisecond)
	init := frames.first()
	assert.Equal(t, TypeStateInit, init.Type)

	var snap StateInitData
	require.NoError(t, json.Unmarshal(init.Data, &snap))
	assert.Equal(t, int64(1000), snap.WindowMS)
	require.Len(t, snap.Surfaces, 1)
	assert.Equal(t, 5.0, snap.Surfaces[0].Position.Y)
	assert.Equal(t, 1, snap.Surfaces[0].Samples)

	require.Eventually(t, func() bool { return srv.Hub().Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	advance(time.Second)
	tr.Record("doc", scroll.Position{Y: 1})

	require.Eventually(t, func() bool {
		types := frames.types()
		return contains(types, TypeSample) &&
			contains(types, TypeDirectionChanged) &&
			contains(types, TypeVelocityAvailable)
	}, 2*time.Second, 10*time.Millisecond)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestBroadcasterCoalescesSamples(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	hub := newTestHub(16, 16)
	runHub(t, hub)
	client := NewClient(hub, nil, "c", slog.Default())
	hub.register <- client
	require.Eventually(t, registered(hub, client), time.Second, 5*time.Millisecond)

	b := NewBroadcaster(hub, bus, time.Hour, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()

	for y := 1.0; y <= 3; y++ {
		var s scroll.VelocityState
		s.Position = scroll.Position{Y: y}
		b.forward(domain.SampleRecordedEvent{Surface: "doc", State: s})
	}
	b.forward(domain.ChainResetEvent{Surface: "doc"})

	var got []Envelope
	for len(got) < 2 {
		select {
		case msg := <-client.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(msg, &env))
			got = append(got, env)
		case <-time.After(time.Second):
			t.Fatalf("received %d frames, want 2", len(got))
		}
	}

	assert.Equal(t, TypeSample, got[0].Type)
	var data SampleData
	require.NoError(t, json.Unmarshal(got[0].Data, &data))
	assert.Equal(t, 3.0, data.Position.Y)
	assert.Equal(t, TypeChainReset, got[1].Type)

	cancel()
	<-done
	select {
	case msg := <-client.send:
		t.Fatalf("unexpected extra frame %s", msg)
	default:
	}
}
