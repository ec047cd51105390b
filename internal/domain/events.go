package domain

import "scrollwatch/internal/scroll"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSampleRecorded    EventType = "SampleRecorded"
	EventDirectionChanged  EventType = "DirectionChanged"
	EventVelocityAvailable EventType = "VelocityAvailable"
	EventChainReset        EventType = "ChainReset"
	EventError             EventType = "Error"
	EventConfigLoaded      EventType = "ConfigLoaded"
	EventConfigSaved       EventType = "ConfigSaved"
	EventConfigChanged     EventType = "ConfigChanged"
	EventAppReady          EventType = "AppReady"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SampleRecordedEvent is emitted every time a surface position is sampled
type SampleRecordedEvent struct {
	Surface string
	State   scroll.VelocityState
}

func (e SampleRecordedEvent) Type() EventType { return EventSampleRecorded }

// DirectionChangedEvent is emitted when the direction on one axis differs from the previous sample
type DirectionChangedEvent struct {
	Surface string
	Axis    scroll.Axis
	From    scroll.Direction
	To      scroll.Direction
}

func (e DirectionChangedEvent) Type() EventType { return EventDirectionChanged }

// VelocityAvailableEvent is emitted on the first sample of a chain that carries a velocity
type VelocityAvailableEvent struct {
	Surface  string
	Velocity scroll.Velocity
}

func (e VelocityAvailableEvent) Type() EventType { return EventVelocityAvailable }

// ChainResetEvent is emitted when a surface's carried state is discarded
type ChainResetEvent struct {
	Surface string
}

func (e ChainResetEvent) Type() EventType { return EventChainReset }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path     string
	Settings Settings
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ConfigChangedEvent is emitted when the config file changed on disk and was reloaded
type ConfigChangedEvent struct {
	Path     string
	Settings Settings
}

func (e ConfigChangedEvent) Type() EventType { return EventConfigChanged }

// AppReadyEvent is emitted when the app is fully initialized and ready
type AppReadyEvent struct {
	HasExistingConfig bool
}

func (e AppReadyEvent) Type() EventType { return EventAppReady }
