package tracker

import (
	"log"
	"sync"

	"scrollwatch/internal/domain"
	"scrollwatch/internal/eventbus"
	"scrollwatch/internal/logic"
	"scrollwatch/internal/scroll"
)

// Tracker owns the carried scroll state of every observed surface. It feeds each
// surface's previous state back into the velocity computer, stores the result and
// publishes what changed. Calls are serialised, so one surface's chain is never
// advanced from two goroutines at once.
type Tracker struct {
	mu       sync.Mutex
	bus      eventbus.EventBus
	store    logic.ChainStore
	clock    scroll.Clock
	settings domain.Settings
	compute  scroll.StateComputer[scroll.VelocityState]
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock replaces the wall clock used to timestamp samples
func WithClock(clock scroll.Clock) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// New creates a tracker. bus may be nil when no events are wanted.
func New(bus eventbus.EventBus, store logic.ChainStore, settings domain.Settings, opts ...Option) *Tracker {
	t := &Tracker{
		bus:   bus,
		store: store,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.configure(settings)
	return t
}

func (t *Tracker) configure(settings domain.Settings) {
	t.settings = settings
	t.compute = scroll.WithVelocity(settings.Window, scroll.Compute,
		scroll.WithClock(t.clock),
		scroll.WithHistoryLimit(settings.HistoryLimit),
	)
}

// Reconfigure swaps in new settings. Existing chains are kept, so the new window
// applies to history that was collected under the old one.
func (t *Tracker) Reconfigure(settings domain.Settings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Printf("Tracker reconfigured: window=%s history_limit=%d", settings.Window, settings.HistoryLimit)
	t.configure(settings)
}

// Settings returns the settings currently in effect
func (t *Tracker) Settings() domain.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// Record advances the chain of surface with a new position sample
func (t *Tracker) Record(surface string, pos scroll.Position) scroll.VelocityState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.advance(surface, func(old *scroll.VelocityState) scroll.VelocityState {
		return t.compute(old, pos)
	})
}

// Attach returns an update function for surface that reads the position from get
func (t *Tracker) Attach(surface string, get scroll.PositionGetter) func() scroll.VelocityState {
	return func() scroll.VelocityState {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.advance(surface, scroll.WithPositionSource(get, t.compute))
	}
}

// Latest returns the last state recorded for surface
func (t *Tracker) Latest(surface string) (scroll.VelocityState, bool) {
	chain := t.store.GetChain(surface)
	if chain == nil {
		return scroll.VelocityState{}, false
	}
	return chain.State, true
}

// Chains returns a copy of every carried chain, ordered by surface
func (t *Tracker) Chains() []domain.Chain {
	surfaces := t.store.Surfaces()
	chains := make([]domain.Chain, 0, len(surfaces))
	for _, surface := range surfaces {
		// a chain reset in between is skipped
		if c := t.store.GetChain(surface); c != nil {
			chains = append(chains, *c)
		}
	}
	return chains
}

// Reset drops the carried state of surface; the next sample starts a new chain
func (t *Tracker) Reset(surface string) {
	t.mu.Lock()
	t.store.RemoveChain(surface)
	t.mu.Unlock()

	if t.bus != nil {
		t.bus.Publish(eventbus.ChainResetEvent{Surface: surface})
	}
}

func (t *Tracker) advance(surface string, update func(old *scroll.VelocityState) scroll.VelocityState) scroll.VelocityState {
	prev := t.store.GetChain(surface)

	var old *scroll.VelocityState
	next := &domain.Chain{Surface: surface}
	if prev != nil {
		old = &prev.State
		next.Samples = prev.Samples
		next.StartedAt = prev.StartedAt
	}

	state := update(old)
	next.State = state
	next.Samples++
	if prev == nil {
		next.StartedAt = state.Timestamp
	}
	t.store.PutChain(next)

	t.publish(surface, old, state)
	return state
}

func (t *Tracker) publish(surface string, old *scroll.VelocityState, state scroll.VelocityState) {
	if t.bus == nil {
		return
	}

	t.bus.Publish(eventbus.SampleRecordedEvent{Surface: surface, State: state})

	if old != nil {
		if old.Direction.X != state.Direction.X {
			t.bus.Publish(eventbus.DirectionChangedEvent{Surface: surface, Axis: scroll.AxisX, From: old.Direction.X, To: state.Direction.X})
		}
		if old.Direction.Y != state.Direction.Y {
			t.bus.Publish(eventbus.DirectionChangedEvent{Surface: surface, Axis: scroll.AxisY, From: old.Direction.Y, To: state.Direction.Y})
		}
	}

	if state.Velocity.Known() && (old == nil || !old.Velocity.Known()) {
		t.bus.Publish(eventbus.VelocityAvailableEvent{Surface: surface, Velocity: state.Velocity})
	}
}
