package scroll

import "time"

// Clock returns the current time. time.Now is used unless WithClock overrides it.
type Clock func() time.Time

// Velocity is the rate of change per axis in position units per millisecond.
// A nil axis means no sample old enough to measure against exists yet.
type Velocity struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Known reports whether both axes carry a value.
func (v Velocity) Known() bool {
	return v.X != nil && v.Y != nil
}

// Sample is one timestamped state as kept in a history.
type Sample struct {
	State
	Timestamp time.Time `json:"timestamp"`
	Velocity  Velocity  `json:"velocity"`
}

// VelocityState is the output of a computer built by WithVelocity. History is
// ordered oldest first and always ends with the sample itself; callers pass the
// whole value back unchanged on the next call.
type VelocityState struct {
	Sample
	History []Sample `json:"history,omitempty"`
}

type velocityOptions struct {
	clock        Clock
	historyLimit int
}

// VelocityOption configures WithVelocity.
type VelocityOption func(*velocityOptions)

// WithClock sets the clock used to timestamp samples.
func WithClock(clock Clock) VelocityOption {
	return func(o *velocityOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithHistoryLimit caps the carried history to the newest n samples.
// Zero (the default) leaves history unbounded: it only shrinks once its oldest
// sample has aged past the window. A cap smaller than the number of calls made
// within one window keeps velocity unknown, since the anchor is evicted early.
func WithHistoryLimit(n int) VelocityOption {
	return func(o *velocityOptions) {
		if n > 0 {
			o.historyLimit = n
		}
	}
}

// WithVelocity wraps inner so that every state also carries a timestamp, a
// velocity estimate and the sample history needed for the next estimate.
//
// Velocity stays unknown until the oldest carried sample is at least window old.
// From then on it is measured against an anchor: the most recent sample that is
// still at least window old. Older samples are dropped from the history.
func WithVelocity(window time.Duration, inner StateComputer[State], opts ...VelocityOption) StateComputer[VelocityState] {
	o := velocityOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return func(old *VelocityState, pos Position) VelocityState {
		var (
			prev    *State
			history []Sample
		)
		if old != nil {
			prev = &old.State
			history = old.History
		}

		working := Sample{
			State:     inner(prev, pos),
			Timestamp: o.clock(),
		}

		if len(history) > 0 && working.Timestamp.Sub(history[0].Timestamp) >= window {
			for len(history) > 1 && working.Timestamp.Sub(history[1].Timestamp) >= window {
				history = history[1:]
			}
			working.Velocity = velocityBetween(history[0], working)
		}

		next := make([]Sample, 0, len(history)+1)
		next = append(next, history...)
		next = append(next, working)
		if o.historyLimit > 0 && len(next) > o.historyLimit {
			next = next[len(next)-o.historyLimit:]
		}

		return VelocityState{Sample: working, History: next}
	}
}

// velocityBetween measures the rate from anchor to current in units per millisecond.
func velocityBetween(anchor, current Sample) Velocity {
	dt := float64(current.Timestamp.Sub(anchor.Timestamp)) / float64(time.Millisecond)
	x := (current.Position.X - anchor.Position.X) / dt
	y := (current.Position.Y - anchor.Position.Y) / dt
	return Velocity{X: &x, Y: &y}
}
