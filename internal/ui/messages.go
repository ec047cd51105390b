package ui

import (
	"time"

	"scrollwatch/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg drives periodic position sampling
type tickMsg time.Time

// historyPagerMsg contains the result of showing the history in the pager
type historyPagerMsg struct {
	err error
}

// copiedMsg contains the result of copying the current state to the clipboard
type copiedMsg struct {
	err error
}
