package feed

import (
	"context"
	"log/slog"
	"time"

	"scrollwatch/internal/domain"
	"scrollwatch/internal/eventbus"
)

// DefaultCoalesceWindow bounds how often "sample" frames go out per surface.
const DefaultCoalesceWindow = 50 * time.Millisecond

// Broadcaster forwards tracker events from the bus to every hub client
type Broadcaster struct {
	hub         *Hub
	logger      *slog.Logger
	window      time.Duration
	src         chan domain.DomainEvent
	unsubscribe []func()
}

// NewBroadcaster subscribes to bus right away, so events published before Run
// starts are queued rather than lost.
func NewBroadcaster(hub *Hub, bus eventbus.EventBus, window time.Duration, logger *slog.Logger) *Broadcaster {
	if window <= 0 {
		window = DefaultCoalesceWindow
	}
	b := &Broadcaster{
		hub:    hub,
		logger: logger,
		window: window,
		src:    make(chan domain.DomainEvent, 256),
	}

	for _, t := range []eventbus.EventType{
		eventbus.EventSampleRecorded,
		eventbus.EventDirectionChanged,
		eventbus.EventVelocityAvailable,
		eventbus.EventChainReset,
	} {
		b.unsubscribe = append(b.unsubscribe, bus.Subscribe(t, b.forward))
	}
	return b
}

func (b *Broadcaster) forward(e eventbus.DomainEvent) {
	select {
	case b.src <- e:
	default:
		b.logger.Warn("feed broadcaster queue full, dropping event", "type", e.Type())
	}
}

// Run sends frames until ctx is canceled. Bursty "sample" frames are coalesced per
// surface, latest wins, and flushed at most once per window. Other frames flush the
// pending sample of their surface first and go out immediately.
func (b *Broadcaster) Run(ctx context.Context) {
	defer func() {
		for _, u := range b.unsubscribe {
			u()
		}
	}()

	pending := make(map[string]outboundEvent)
	var order []string

	send := func(ev outboundEvent) {
		msg, err := marshal(ev)
		if err != nil {
			b.logger.Warn("feed broadcaster marshal failed", "error", err, "type", ev.Type)
			return
		}
		b.hub.BroadcastBytes(msg)
	}

	flushSurface := func(surface string) {
		ev, ok := pending[surface]
		if !ok {
			return
		}
		delete(pending, surface)
		send(ev)
	}

	flushAll := func() {
		for _, surface := range order {
			flushSurface(surface)
		}
		order = order[:0]
	}

	ticker := time.NewTicker(b.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushAll()
			return

		case <-ticker.C:
			flushAll()

		case e := <-b.src:
			ev, ok := convertEvent(e)
			if !ok {
				continue
			}

			if ev.Type == TypeSample {
				if _, queued := pending[ev.Surface]; !queued {
					order = append(order, ev.Surface)
				}
				pending[ev.Surface] = ev
				continue
			}

			flushSurface(ev.Surface)
			send(ev)
		}
	}
}
