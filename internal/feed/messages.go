package feed

import (
	"encoding/json"
	"time"

	"scrollwatch/internal/domain"
	"scrollwatch/internal/scroll"
)

// Message types sent to feed clients
const (
	TypeStateInit         = "state_init"
	TypeSample            = "sample"
	TypeDirectionChanged  = "direction_changed"
	TypeVelocityAvailable = "velocity_available"
	TypeChainReset        = "chain_reset"
)

// Envelope is the wire format of every frame: {type, ts, data}
type Envelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// SampleData is the payload of "sample" frames and of each state_init entry.
// History is reported by length only.
type SampleData struct {
	Surface    string            `json:"surface"`
	Position   scroll.Position   `json:"position"`
	Delta      scroll.Position   `json:"delta"`
	Direction  scroll.Directions `json:"direction"`
	Velocity   scroll.Velocity   `json:"velocity"`
	HistoryLen int               `json:"history_len"`
	Samples    int               `json:"samples,omitempty"`
}

// StateInitData is the payload of the "state_init" frame sent on connect
type StateInitData struct {
	WindowMS int64        `json:"window_ms"`
	Surfaces []SampleData `json:"surfaces"`
}

// DirectionChangedData is the payload of "direction_changed" frames
type DirectionChangedData struct {
	Surface  string           `json:"surface"`
	Axis     scroll.Axis      `json:"axis"`
	From     scroll.Direction `json:"from"`
	To       scroll.Direction `json:"to"`
	Reversed bool             `json:"reversed"` // flipped straight from one way to the other
}

// VelocityAvailableData is the payload of "velocity_available" frames
type VelocityAvailableData struct {
	Surface  string          `json:"surface"`
	Velocity scroll.Velocity `json:"velocity"`
}

// ChainResetData is the payload of "chain_reset" frames
type ChainResetData struct {
	Surface string `json:"surface"`
}

func sampleData(surface string, s scroll.VelocityState) SampleData {
	return SampleData{
		Surface:    surface,
		Position:   s.Position,
		Delta:      s.Delta,
		Direction:  s.Direction,
		Velocity:   s.Velocity,
		HistoryLen: len(s.History),
	}
}

type outboundEvent struct {
	Type    string
	Surface string
	Data    any
	At      time.Time
}

func convertEvent(e domain.DomainEvent) (outboundEvent, bool) {
	switch ev := e.(type) {
	case domain.SampleRecordedEvent:
		return outboundEvent{
			Type:    TypeSample,
			Surface: ev.Surface,
			Data:    sampleData(ev.Surface, ev.State),
			At:      ev.State.Timestamp,
		}, true

	case domain.DirectionChangedEvent:
		return outboundEvent{
			Type:    TypeDirectionChanged,
			Surface: ev.Surface,
			Data: DirectionChangedData{
				Surface:  ev.Surface,
				Axis:     ev.Axis,
				From:     ev.From,
				To:       ev.To,
				Reversed: reversed(ev.From, ev.To),
			},
		}, true

	case domain.VelocityAvailableEvent:
		return outboundEvent{
			Type:    TypeVelocityAvailable,
			Surface: ev.Surface,
			Data:    VelocityAvailableData{Surface: ev.Surface, Velocity: ev.Velocity},
		}, true

	case domain.ChainResetEvent:
		return outboundEvent{
			Type:    TypeChainReset,
			Surface: ev.Surface,
			Data:    ChainResetData{Surface: ev.Surface},
		}, true

	default:
		return outboundEvent{}, false
	}
}

func reversed(from, to scroll.Direction) bool {
	return (from.Increasing() && to.Decreasing()) || (from.Decreasing() && to.Increasing())
}

func marshal(ev outboundEvent) ([]byte, error) {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	return json.Marshal(outbound{Type: ev.Type, Ts: &ts, Data: ev.Data})
}
